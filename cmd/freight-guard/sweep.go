package main

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

type expirer interface {
	ExpireStale(ctx context.Context) (int, error)
}

func runExpirySweep(ctx context.Context, svc expirer, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := svc.ExpireStale(ctx)
			if err != nil {
				log.Error().Err(err).Msg("service request expiry sweep failed")
				continue
			}
			if n > 0 {
				log.Info().Int("expired", n).Msg("service request expiry sweep")
			}
		}
	}
}
