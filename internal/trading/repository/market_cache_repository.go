package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang-kis-trader/pkg/common"
	"golang-kis-trader/pkg/vwap"

	"github.com/redis/go-redis/v9"
)

// MarketSample is one quote observation: price and the cumulative volume traded so far that day.
type MarketSample struct {
	Price            float64   `json:"price"`
	CumulativeVolume int64     `json:"cumulative_volume"`
	Timestamp        time.Time `json:"timestamp"`
}

// MarketCacheRepository keeps the latest price and a rolling window of
// intraday samples per symbol.
type MarketCacheRepository interface {
	SetLastPrice(ctx context.Context, symbol string, price float64, ttl time.Duration) error
	GetLastPrice(ctx context.Context, symbol string) (float64, bool, error)
	AppendSample(ctx context.Context, symbol string, sample MarketSample, window int) error
	Samples(ctx context.Context, symbol string) ([]vwap.PriceSample, []vwap.VolumeSample, error)
}

// NewMarketCacheRepository creates a Redis-backed market cache.
func NewMarketCacheRepository(client *redis.Client) MarketCacheRepository {
	return &marketCacheRepository{client: client}
}

type marketCacheRepository struct {
	client *redis.Client
}

func (r *marketCacheRepository) SetLastPrice(ctx context.Context, symbol string, price float64, ttl time.Duration) error {
	return r.client.Set(ctx, fmt.Sprintf(common.RedisKeyLastPrice, symbol), strconv.FormatFloat(price, 'f', -1, 64), ttl).Err()
}

func (r *marketCacheRepository) GetLastPrice(ctx context.Context, symbol string) (float64, bool, error) {
	price, err := r.client.Get(ctx, fmt.Sprintf(common.RedisKeyLastPrice, symbol)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return price, true, nil
}

// AppendSample pushes the sample and trims the list to the newest window entries.
func (r *marketCacheRepository) AppendSample(ctx context.Context, symbol string, sample MarketSample, window int) error {
	raw, err := json.Marshal(sample)
	if err != nil {
		return err
	}

	key := fmt.Sprintf(common.RedisKeyMarketSamples, symbol)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, raw)
	if window > 0 {
		pipe.LTrim(ctx, key, int64(-window), -1)
	}
	pipe.Expire(ctx, key, 24*time.Hour)
	_, err = pipe.Exec(ctx)
	return err
}

// Samples converts the stored observations into VWAP inputs. The volume of a
// sample is the cumulative volume traded since the previous one; the first
// sample and samples after a daily reset only anchor the next one.
func (r *marketCacheRepository) Samples(ctx context.Context, symbol string) ([]vwap.PriceSample, []vwap.VolumeSample, error) {
	raws, err := r.client.LRange(ctx, fmt.Sprintf(common.RedisKeyMarketSamples, symbol), 0, -1).Result()
	if err != nil {
		return nil, nil, err
	}

	var (
		prices  []vwap.PriceSample
		volumes []vwap.VolumeSample
		prev    *MarketSample
	)
	for _, raw := range raws {
		var s MarketSample
		if err := json.Unmarshal([]byte(raw), &s); err != nil {
			return nil, nil, fmt.Errorf("decode market sample: %w", err)
		}
		if prev != nil && s.CumulativeVolume >= prev.CumulativeVolume {
			prices = append(prices, vwap.PriceSample{Price: s.Price, Timestamp: s.Timestamp})
			volumes = append(volumes, vwap.VolumeSample{Volume: s.CumulativeVolume - prev.CumulativeVolume, Timestamp: s.Timestamp})
		}
		cur := s
		prev = &cur
	}
	return prices, volumes, nil
}
