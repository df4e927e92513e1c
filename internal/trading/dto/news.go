package dto

import "time"

// NewsItem is one headline merged from the brokerage and RSS feeds.
type NewsItem struct {
	Title       string     `json:"title"`
	Link        string     `json:"link,omitempty"`
	Summary     string     `json:"summary,omitempty"`
	Source      string     `json:"source"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
}

// NewsResponse is returned by the news endpoint.
type NewsResponse struct {
	Symbol string                 `json:"symbol,omitempty"`
	KIS    map[string]interface{} `json:"kis,omitempty"`
	Items  []NewsItem             `json:"items"`
}
