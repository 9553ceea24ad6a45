package service

import (
	"context"
	"sync"
	"time"

	"currency-rates-service/internal/domain/ports"
	"currency-rates-service/pkg/logger"
)

const (
	// pollGranularity bounds how long a stop request can go unnoticed
	// during the inter-cycle wait.
	pollGranularity = time.Second

	// errorCooldown is the wait after an unexpected run error before the
	// loop retries, instead of terminating.
	errorCooldown = time.Minute

	// stopJoinTimeout bounds how long Stop blocks waiting for the loop to
	// observe the signal. An in-flight run is never preempted.
	stopJoinTimeout = 10 * time.Second
)

// RatesScheduler runs the updater on a fixed interval in the background.
// States: Stopped -> Running -> Stopped.
type RatesScheduler struct {
	updater  ports.Updater
	interval time.Duration
	log      *logger.Logger

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewRatesScheduler(updater ports.Updater, interval time.Duration, log *logger.Logger) *RatesScheduler {
	return &RatesScheduler{
		updater:  updater,
		interval: interval,
		log:      log,
	}
}

// Start launches the periodic loop. Calling Start while running is a no-op
// returning false; there is never a second concurrent loop.
func (s *RatesScheduler) Start() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		s.log.Warn("Scheduler is already running")
		return false
	}

	s.stopCh = make(chan struct{})
	s.doneCh = make(chan struct{})
	s.running = true

	go s.loop(s.stopCh, s.doneCh)

	s.log.Info("Scheduler started", "interval", s.interval)
	return true
}

// Stop signals cancellation and waits (bounded) for the loop to exit.
func (s *RatesScheduler) Stop() bool {
	s.mu.Lock()
	if !s.running || s.stopCh == nil {
		s.mu.Unlock()
		s.log.Warn("Scheduler is not running")
		return false
	}
	stopCh, doneCh := s.stopCh, s.doneCh
	s.stopCh = nil
	s.mu.Unlock()

	close(stopCh)

	select {
	case <-doneCh:
	case <-time.After(stopJoinTimeout):
		s.log.Error("Scheduler loop did not exit within stop timeout")
	}

	s.mu.Lock()
	s.running = false
	s.mu.Unlock()

	s.log.Info("Scheduler stopped")
	return true
}

func (s *RatesScheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *RatesScheduler) loop(stopCh, doneCh chan struct{}) {
	defer close(doneCh)

	for {
		result, err := s.updater.RunUpdate(context.Background(), nil)
		if err != nil {
			s.log.Error("Scheduled update failed", "error", err)
			if !s.wait(errorCooldown, stopCh) {
				return
			}
			continue
		}

		s.log.Info("Scheduled update completed",
			"run_id", result.RunID,
			"total_rates", result.TotalRates,
			"failed_sources", len(result.FailedSources),
		)

		if !s.wait(s.interval, stopCh) {
			return
		}
	}
}

// wait sleeps for d, checking the stop signal at pollGranularity. It returns
// false when stopped.
func (s *RatesScheduler) wait(d time.Duration, stopCh chan struct{}) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		step := pollGranularity
		if remaining := time.Until(deadline); remaining < step {
			step = remaining
		}
		select {
		case <-stopCh:
			return false
		case <-time.After(step):
		}
	}
	return true
}
