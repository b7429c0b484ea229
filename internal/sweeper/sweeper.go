package sweeper

import (
	"context"
	"time"

	"cinebook/internal/bookings"
	"cinebook/pkg/logger"
)

const sweepBatchSize = 100

// Sweeper retires pending bookings whose hold deadline has passed. It
// is a safety net behind the read-time expiry checks; the system stays
// correct even if a sweep is late.
type Sweeper struct {
	service  bookings.Service
	repo     bookings.Repository
	interval time.Duration
	log      *logger.Logger
	done     chan struct{}
}

func New(service bookings.Service, repo bookings.Repository, interval time.Duration, log *logger.Logger) *Sweeper {
	return &Sweeper{
		service:  service,
		repo:     repo,
		interval: interval,
		log:      log,
		done:     make(chan struct{}),
	}
}

// Start runs the sweep loop until Stop is called
func (s *Sweeper) Start() {
	go s.run()
	s.log.Info("expiry sweeper started", "interval", s.interval.String())
}

func (s *Sweeper) Stop() {
	close(s.done)
	s.log.Info("expiry sweeper stopped")
}

func (s *Sweeper) run() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep expires one batch of overdue bookings. Each booking is its own
// failure boundary: one bad row never stalls the rest, and the
// optimistic transition guard makes overlapping sweeps harmless.
func (s *Sweeper) Sweep(ctx context.Context) (expired, failed int) {
	ids, err := s.repo.ListExpiredPending(ctx, time.Now(), sweepBatchSize)
	if err != nil {
		s.log.WithError(err).Error("failed to list expired bookings")
		return 0, 0
	}
	if len(ids) == 0 {
		return 0, 0
	}

	for _, id := range ids {
		applied, err := s.service.Expire(ctx, id)
		if err != nil {
			failed++
			s.log.WithError(err).Error("failed to expire booking", "booking_id", id.String())
			continue
		}
		if applied {
			expired++
		}
	}

	s.log.LogSweepCompleted(ctx, expired, failed)
	return expired, failed
}
