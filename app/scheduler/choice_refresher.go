// Package scheduler runs the background jobs of the campaign listing service
package scheduler

import (
	"context"
	"time"

	"github.com/amirphl/filterkit/choices"
	"github.com/rs/zerolog"
)

// ChoiceSetStore replaces the cached values of one field
type ChoiceSetStore interface {
	Refresh(ctx context.Context, field string, values []string) error
}

// ChoiceRefresher periodically rebuilds cached choice sets from their source,
// so values added to the database show up in the filters before the cache expires.
type ChoiceRefresher struct {
	source   choices.ValueSource
	store    ChoiceSetStore
	fields   []string
	interval time.Duration
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewChoiceRefresher creates a refresher for the given fields
func NewChoiceRefresher(source choices.ValueSource, store ChoiceSetStore, fields []string, interval time.Duration, logger zerolog.Logger) *ChoiceRefresher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &ChoiceRefresher{
		source:   source,
		store:    store,
		fields:   fields,
		interval: interval,
		timeout:  30 * time.Second,
		logger:   logger,
	}
}

// Start launches the refresh loop in a background goroutine and returns a stop function.
// The first refresh runs immediately.
func (r *ChoiceRefresher) Start(parent context.Context) func() {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan struct{})

	go func() {
		defer close(done)
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()

		r.RunOnce(ctx)

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.RunOnce(ctx)
			}
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

// RunOnce refreshes every field and returns how many succeeded.
// A failing field is logged and does not stop the others.
func (r *ChoiceRefresher) RunOnce(ctx context.Context) int {
	refreshed := 0
	for _, field := range r.fields {
		if ctx.Err() != nil {
			return refreshed
		}
		if err := r.refresh(ctx, field); err != nil {
			r.logger.Warn().Err(err).Str("field", field).Msg("Choice set refresh failed")
			continue
		}
		refreshed++
	}
	return refreshed
}

func (r *ChoiceRefresher) refresh(parent context.Context, field string) error {
	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	values, err := r.source.DistinctValues(ctx, field)
	if err != nil {
		return err
	}
	if err := r.store.Refresh(ctx, field, values); err != nil {
		return err
	}
	r.logger.Debug().Str("field", field).Int("values", len(values)).Msg("Choice set refreshed")
	return nil
}
