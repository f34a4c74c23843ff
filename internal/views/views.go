// Package views holds the client-side state of the dashboard screens and
// applies the refresh-after-mutate rule to every mutation.
package views

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"webomat/internal/apiclient"
	"webomat/internal/invoice/lifecycle"
)

// ErrBusy is returned when a mutation on the same view is still pending.
var ErrBusy = errors.New("views: another change is still being saved")

// TransportMessage is shown when the backend could not be reached.
const TransportMessage = "Could not reach the server. Check your connection and try again."

// Logger is the logging surface used by views.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// Notifier receives the toast for each mutation outcome.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type nopNotifier struct{}

func (nopNotifier) Success(string) {}
func (nopNotifier) Error(string)   {}

// Message renders err the way it is shown to the user.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apiclient.APIError
	var decodeErr *apiclient.DecodeError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Detail == "" {
			return fmt.Sprintf("Error %d", apiErr.StatusCode)
		}
		return fmt.Sprintf("Error %d: %s", apiErr.StatusCode, apiErr.Detail)
	case apiclient.IsTransport(err):
		return TransportMessage
	case errors.As(err, &decodeErr):
		return "The server returned an unexpected response."
	case errors.Is(err, lifecycle.ErrReasonRequired):
		return "Please enter a reason for the rejection."
	case errors.Is(err, lifecycle.ErrInvalidTransition):
		return "This action is not available for the invoice in its current status."
	case errors.Is(err, lifecycle.ErrInFlight), errors.Is(err, ErrBusy):
		return "The previous request is still being processed."
	case errors.Is(err, lifecycle.ErrInvalidPaidDate):
		return "Paid date must be in YYYY-MM-DD format."
	}
	return err.Error()
}

type refresher struct {
	name string
	fn   func(ctx context.Context) error
}

// mutator serialises mutations of one view, or of one item of a view,
// and runs the refresh step.
type mutator struct {
	logger   Logger
	notifier Notifier

	mu   sync.Mutex
	busy map[string]struct{}
}

func (m *mutator) begin(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.busy[key]; ok {
		return false
	}
	if m.busy == nil {
		m.busy = make(map[string]struct{})
	}
	m.busy[key] = struct{}{}
	return true
}

func (m *mutator) end(key string) {
	m.mu.Lock()
	delete(m.busy, key)
	m.mu.Unlock()
}

// run performs mutation. On failure it calls onFailure with the surfaced
// message and returns the error; state is left untouched. On success it
// calls onSuccess, then runs every refresher independently. A refresher
// failure is only logged.
func (m *mutator) run(ctx context.Context, op, success string, mutation func(ctx context.Context) error, onFailure func(msg string), onSuccess func(), refreshers ...refresher) error {
	return m.runFor(ctx, "", op, success, mutation, onFailure, onSuccess, refreshers...)
}

// runFor is run with the busy flag scoped to key.
func (m *mutator) runFor(ctx context.Context, key, op, success string, mutation func(ctx context.Context) error, onFailure func(msg string), onSuccess func(), refreshers ...refresher) error {
	if !m.begin(key) {
		return ErrBusy
	}
	defer m.end(key)

	if err := mutation(ctx); err != nil {
		msg := Message(err)
		m.logger.Errorf("%s: %v", op, err)
		onFailure(msg)
		m.notifier.Error(msg)
		return err
	}
	onSuccess()
	m.notifier.Success(success)

	refreshAll(ctx, m.logger, op, refreshers...)
	return nil
}

func refreshAll(ctx context.Context, logger Logger, op string, refreshers ...refresher) {
	var g errgroup.Group
	for _, r := range refreshers {
		r := r
		g.Go(func() error {
			if err := r.fn(ctx); err != nil {
				logger.Errorf("%s: refresh %s: %v", op, r.name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
}
