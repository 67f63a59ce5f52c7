package usecase

import (
	"context"
	"errors"

	syncdomain "rolodex-backend/internal/sync/domain"

	"go.uber.org/zap"
)

// PageFunc fetches one page of provider items.
type PageFunc[T any] func(ctx context.Context, pageToken string, pageSize int64) (items []T, nextPageToken string, err error)

// Collect drains pages from fetch until the listing is exhausted or the
// item cap is reached. Provider throttling does not fail the collection:
// the items gathered so far are returned together with the rate limit
// signal, so a partial batch still reaches persistence.
func Collect[T any](ctx context.Context, fetch PageFunc[T], itemCap int, pageSize int64, logger *zap.Logger) ([]T, *syncdomain.RateLimitError, error) {
	var collected []T
	pageToken := ""

	for {
		items, next, err := fetch(ctx, pageToken, pageSize)
		if err != nil {
			var rateErr *syncdomain.RateLimitError
			if errors.As(err, &rateErr) {
				logger.Warn("provider throttled, keeping partial batch",
					zap.Int("collected", len(collected)),
					zap.Duration("retryAfter", rateErr.RetryAfter))
				return collected, rateErr, nil
			}
			return nil, nil, err
		}

		collected = append(collected, items...)
		if len(collected) >= itemCap {
			logger.Debug("item cap reached", zap.Int("cap", itemCap))
			return collected[:itemCap], nil, nil
		}

		pageToken = next
		if pageToken == "" {
			return collected, nil, nil
		}
	}
}
