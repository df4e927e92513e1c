package repository

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"golang-kis-trader/internal/trading/dto"
	"golang-kis-trader/pkg/logger"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

// NewsFeedRepository reads headlines from RSS feeds.
type NewsFeedRepository interface {
	Fetch(ctx context.Context, symbol string, limit int) ([]dto.NewsItem, error)
}

// NewNewsFeedRepository creates an RSS repository. Each feed URL may contain
// one %s which is replaced by the query-escaped symbol.
func NewNewsFeedRepository(feedURLs []string, timeout time.Duration, log *logger.Logger) NewsFeedRepository {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &newsFeedRepository{
		feedURLs: feedURLs,
		timeout:  timeout,
		logger:   log,
	}
}

type newsFeedRepository struct {
	feedURLs []string
	timeout  time.Duration
	logger   *logger.Logger
}

// Fetch merges the items of every feed, newest first. A feed that fails is
// logged and skipped; an error is returned only when every feed failed.
func (r *newsFeedRepository) Fetch(ctx context.Context, symbol string, limit int) ([]dto.NewsItem, error) {
	var (
		items   []dto.NewsItem
		lastErr error
		failed  int
	)

	for _, tmpl := range r.feedURLs {
		feedURL := tmpl
		if strings.Contains(tmpl, "%s") {
			feedURL = fmt.Sprintf(tmpl, url.QueryEscape(symbol))
		}

		feedCtx, cancel := context.WithTimeout(ctx, r.timeout)
		fp := gofeed.NewParser()
		feed, err := fp.ParseURLWithContext(feedURL, feedCtx)
		cancel()
		if err != nil {
			r.logger.Error("Failed to parse RSS feed", logger.ErrorField(err), logger.StringField("url", feedURL))
			lastErr = err
			failed++
			continue
		}

		for _, item := range feed.Items {
			items = append(items, dto.NewsItem{
				Title:       strings.TrimSpace(item.Title),
				Link:        item.Link,
				Summary:     plainText(item.Description),
				Source:      feed.Title,
				PublishedAt: item.PublishedParsed,
			})
		}
	}

	if failed > 0 && failed == len(r.feedURLs) {
		return nil, lastErr
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].PublishedAt == nil || items[j].PublishedAt == nil {
			return items[j].PublishedAt == nil && items[i].PublishedAt != nil
		}
		return items[i].PublishedAt.After(*items[j].PublishedAt)
	})

	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

// plainText strips markup from an RSS description.
func plainText(content string) string {
	if content == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return strings.TrimSpace(content)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
