// Copyright (c) 2026 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package router

import (
	"context"
	"errors"
	"time"

	"github.com/sony/gobreaker"
	"github.com/z5labs/tickhttp/codec"
)

// BreakerOption configures [Breaker].
type BreakerOption func(*gobreaker.Settings)

// HalfOpenRequests sets how many requests may pass while half-open.
func HalfOpenRequests(n uint32) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.MaxRequests = n
	}
}

// ResetInterval sets the cyclic period after which closed-state counts are cleared.
func ResetInterval(d time.Duration) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.Interval = d
	}
}

// OpenTimeout sets how long the breaker stays open before going half-open.
func OpenTimeout(d time.Duration) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.Timeout = d
	}
}

// TripAfter opens the breaker after n consecutive failures.
func TripAfter(n uint32) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.ReadyToTrip = func(c gobreaker.Counts) bool {
			return c.ConsecutiveFailures >= n
		}
	}
}

// OnStateChange registers f to observe breaker transitions.
func OnStateChange(f func(name string, from, to gobreaker.State)) BreakerOption {
	return func(s *gobreaker.Settings) {
		s.OnStateChange = f
	}
}

// Breaker guards h with a circuit breaker. While the breaker is open h is
// not invoked and [codec.StatusServiceUnavailable] is returned instead.
//
// Errors carrying a [codec.Status] below 500 are the client's fault and
// are not counted as failures.
func Breaker[S any](name string, h HandlerFunc[S], opts ...BreakerOption) HandlerFunc[S] {
	settings := gobreaker.Settings{
		Name:         name,
		IsSuccessful: isSuccessful,
	}
	for _, opt := range opts {
		opt(&settings)
	}
	cb := gobreaker.NewCircuitBreaker(settings)

	return func(ctx context.Context, state S, req *codec.Request) (*codec.Response, error) {
		v, err := cb.Execute(func() (interface{}, error) {
			return h(ctx, state, req)
		})
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, codec.StatusServiceUnavailable
		}
		if err != nil {
			return nil, err
		}
		resp, _ := v.(*codec.Response)
		return resp, nil
	}
}

func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	var status codec.Status
	return errors.As(err, &status) && status < codec.StatusInternalServerError
}
