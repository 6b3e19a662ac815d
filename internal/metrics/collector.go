package metrics

import (
	"context"
	"log/slog"
	"time"

	"mystrava-sync/internal/strava"
)

// RateLimitSource reports the remote API's rate limit windows
type RateLimitSource interface {
	RateLimitStatus() strava.RateLimitStatus
}

// StartRateLimitCollector starts a background goroutine that periodically
// publishes the remote API rate limit status as gauges, until ctx is
// cancelled.
func StartRateLimitCollector(ctx context.Context, source RateLimitSource, interval time.Duration) {
	logger := slog.With("component", "rate_limit_collector")

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		collect(source)

		for {
			select {
			case <-ctx.Done():
				logger.Debug("rate limit collector stopping")
				return
			case <-ticker.C:
				collect(source)
			}
		}
	}()
}

func collect(source RateLimitSource) {
	status := source.RateLimitStatus()

	RemoteAPIRateLimit.WithLabelValues(RateLimit15Min, BucketLimit).Set(float64(status.Limit15Min))
	RemoteAPIRateLimit.WithLabelValues(RateLimit15Min, BucketUsage).Set(float64(status.Usage15Min))
	RemoteAPIRateLimit.WithLabelValues(RateLimitDaily, BucketLimit).Set(float64(status.LimitDaily))
	RemoteAPIRateLimit.WithLabelValues(RateLimitDaily, BucketUsage).Set(float64(status.UsageDaily))
}
