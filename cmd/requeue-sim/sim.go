package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"andy.dev/requeue"
)

// ErrRejected is returned by the simulated service for a fatal failure.
var ErrRejected = errors.New("request rejected")

// Quote is the value returned by a successful call.
type Quote struct {
	ID       int
	Price    int
	Attempts int
}

// Service is a remote quoting service that fails at the configured rates.
type Service struct {
	failRate  float64
	fatalRate float64
	latency   time.Duration

	mu       sync.Mutex
	rnd      *rand.Rand
	attempts map[int]int
}

// NewService returns a Service seeded with s.Seed.
func NewService(s Settings) *Service {
	return &Service{
		failRate:  s.FailRate,
		fatalRate: s.FatalRate,
		latency:   s.Latency,
		rnd:       rand.New(rand.NewSource(s.Seed)),
		attempts:  map[int]int{},
	}
}

// roll returns the simulated latency and failure draw for one call.
func (svc *Service) roll(id int) (time.Duration, float64, int) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	svc.attempts[id]++
	var wait time.Duration
	if svc.latency > 0 {
		wait = time.Duration(svc.rnd.Int63n(int64(svc.latency)))
	}
	return wait, svc.rnd.Float64(), svc.attempts[id]
}

// Quote calls the service for id.
func (svc *Service) Quote(ctx context.Context, id int) (requeue.Outcome[Quote, int], error) {
	wait, draw, n := svc.roll(id)
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return requeue.Outcome[Quote, int]{}, context.Cause(ctx)
	case <-t.C:
	}
	switch {
	case draw < svc.fatalRate:
		return requeue.Outcome[Quote, int]{}, fmt.Errorf("quote %d: %w", id, ErrRejected)
	case draw < svc.fatalRate+svc.failRate:
		return requeue.Retry[Quote](id), nil
	}
	return requeue.Success[Quote, int](Quote{ID: id, Price: 100 + id*7, Attempts: n}), nil
}

// Report summarizes a simulation.
type Report struct {
	Quotes  []Quote
	Pending []int
}

// Simulate quotes s.Keys ids against svc, retrying failed ids per s.
func Simulate(ctx context.Context, svc *Service, s Settings, options ...requeue.Option) (*Report, error) {
	ids := make([]int, s.Keys)
	for i := range ids {
		ids[i] = i + 1
	}
	quotes, pending, err := requeue.Run(ctx, ids, svc.Quote, options...)
	if err != nil {
		return nil, err
	}
	return &Report{Quotes: quotes, Pending: pending}, nil
}
