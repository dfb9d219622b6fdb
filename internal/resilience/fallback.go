// Package resilience provides failover across interchangeable provider
// backends.
//
// Question generation leans on free-tier and locally hosted models, which
// rate-limit and fall over routinely; a room should still get its quiz when
// the first backend is having a bad minute. The [FallbackGroup] tries each
// registered backend in order and returns the first success.
package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrAllFailed is returned when every entry in a [FallbackGroup] fails.
var ErrAllFailed = errors.New("all providers failed")

// fallbackEntry pairs a provider value with its log name.
type fallbackEntry[T any] struct {
	name  string
	value T
}

// FallbackGroup wraps a primary and zero or more fallback instances of the
// same provider type, tried in registration order.
//
// Registration (New, AddFallback) is not synchronised and must finish before
// the first Execute; after that the group is safe for concurrent use.
type FallbackGroup[T any] struct {
	entries []fallbackEntry[T]
	log     *slog.Logger
}

// NewFallbackGroup creates a [FallbackGroup] with primary as the first entry.
// Additional fallbacks are registered via [FallbackGroup.AddFallback].
func NewFallbackGroup[T any](primary T, primaryName string, logger *slog.Logger) *FallbackGroup[T] {
	if logger == nil {
		logger = slog.Default()
	}
	return &FallbackGroup[T]{
		entries: []fallbackEntry[T]{{name: primaryName, value: primary}},
		log:     logger,
	}
}

// AddFallback appends a fallback provider. Fallbacks are tried in the order
// they are added, after the primary.
func (fg *FallbackGroup[T]) AddFallback(name string, fallback T) {
	fg.entries = append(fg.entries, fallbackEntry[T]{name: name, value: fallback})
}

// Names returns the registered provider names in try order.
func (fg *FallbackGroup[T]) Names() []string {
	names := make([]string, len(fg.entries))
	for i, e := range fg.entries {
		names[i] = e.name
	}
	return names
}

// Execute tries fn against each entry in order until one succeeds. Returns
// [ErrAllFailed] wrapped with the last error if every entry fails.
func (fg *FallbackGroup[T]) Execute(fn func(T) error) error {
	var lastErr error
	for i := range fg.entries {
		entry := &fg.entries[i]
		err := fn(entry.value)
		if err == nil {
			if i > 0 {
				fg.log.Info("fallback provider served the request", "provider", entry.name)
			}
			return nil
		}
		lastErr = err
		fg.log.Warn("provider failed, trying next", "provider", entry.name, "error", err)
	}
	return fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}

// ExecuteWithResult tries fn against each entry in the group until one
// succeeds, returning both the result value and error. This is a
// package-level function because Go does not support method-level type
// parameters.
func ExecuteWithResult[T any, R any](fg *FallbackGroup[T], fn func(T) (R, error)) (R, error) {
	var (
		lastErr error
		zero    R
	)
	for i := range fg.entries {
		entry := &fg.entries[i]
		result, err := fn(entry.value)
		if err == nil {
			if i > 0 {
				fg.log.Info("fallback provider served the request", "provider", entry.name)
			}
			return result, nil
		}
		lastErr = err
		fg.log.Warn("provider failed, trying next", "provider", entry.name, "error", err)
	}
	return zero, fmt.Errorf("%w: %v", ErrAllFailed, lastErr)
}
