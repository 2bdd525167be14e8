package app

import (
	"context"
	"time"
)

// syncLookback bounds the first import window
const syncLookback = 24 * time.Hour

// RunSync imports Nightscout readings every interval until ctx is cancelled.
// It returns immediately when Nightscout is not configured.
func (s *Service) RunSync(ctx context.Context, interval time.Duration) {
	if s.source == nil || interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Initial fetch
	s.syncOnce(ctx)

	for {
		select {
		case <-ticker.C:
			s.syncOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// syncOnce imports everything since the newest recorded reading
func (s *Service) syncOnce(ctx context.Context) {
	since := s.now().Add(-syncLookback)

	s.mu.RLock()
	if last, ok := s.history.LastReading(); ok && last.Time.After(since) {
		since = last.Time
	}
	s.mu.RUnlock()

	if _, err := s.SyncNightscout(ctx, since); err != nil && ctx.Err() == nil {
		s.logger.Warn("nightscout sync failed", "error", err)
	}
}
