package sessionstore

import (
	"context"
	"time"

	"shopping-assistant/internal/common/logger"
)

type Sweeper interface {
	SweepExpired(ctx context.Context) (int, error)
}

// RunSweeper calls SweepExpired every interval until ctx is done. A non-positive
// interval disables the loop and leaves expiry to lazy reads.
func RunSweeper(ctx context.Context, store Sweeper, interval time.Duration, log logger.Logger) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.SweepExpired(ctx)
			if err != nil {
				log.Warn("Session sweep failed", map[string]interface{}{"error": err.Error()})
				continue
			}
			if removed > 0 {
				log.Info("Expired sessions removed", map[string]interface{}{"removed": removed})
			}
		}
	}
}
