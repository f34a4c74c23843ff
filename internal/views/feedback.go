package views

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/exp/slices"

	"webomat/internal/models"
)

// ErrInvalidFeedbackStatus is returned for a status outside the known set.
var ErrInvalidFeedbackStatus = errors.New("views: unknown feedback status")

var feedbackStatuses = []string{
	models.FeedbackStatusOpen,
	models.FeedbackStatusInProgress,
	models.FeedbackStatusDone,
	models.FeedbackStatusRejected,
}

// FeedbackAPI is the admin side of the feedback endpoints.
type FeedbackAPI interface {
	AdminFeedback(ctx context.Context, f models.FeedbackFilter) ([]models.Feedback, error)
	UpdateFeedback(ctx context.Context, id string, upd models.FeedbackUpdate) (*models.Feedback, error)
}

// FeedbackAdmin is the admin feedback inbox.
type FeedbackAdmin struct {
	api FeedbackAPI
	mut mutator

	mu      sync.RWMutex
	filter  models.FeedbackFilter
	items   []models.Feedback
	loadErr string
	err     string
}

func NewFeedbackAdmin(api FeedbackAPI, logger Logger, notifier Notifier) *FeedbackAdmin {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &FeedbackAdmin{api: api, mut: mutator{logger: logger, notifier: notifier}}
}

// Load fetches the inbox with filter f.
func (v *FeedbackAdmin) Load(ctx context.Context, f models.FeedbackFilter) error {
	items, err := v.api.AdminFeedback(ctx, f)
	v.mu.Lock()
	defer v.mu.Unlock()
	if err != nil {
		v.loadErr = Message(err)
		return fmt.Errorf("load feedback: %w", err)
	}
	v.filter = f
	v.items = items
	v.loadErr = ""
	return nil
}

func (v *FeedbackAdmin) Items() []models.Feedback {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]models.Feedback(nil), v.items...)
}

func (v *FeedbackAdmin) Error() string {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.err
}

// UpdateStatus sets status and an optional admin note, then reloads the
// inbox with the current filter.
func (v *FeedbackAdmin) UpdateStatus(ctx context.Context, id, status, note string) error {
	if !slices.Contains(feedbackStatuses, status) {
		return fmt.Errorf("%w: %q", ErrInvalidFeedbackStatus, status)
	}
	upd := models.FeedbackUpdate{Status: status}
	if n := strings.TrimSpace(note); n != "" {
		upd.AdminNote = &n
	}
	return v.mut.run(ctx, "update feedback", "Feedback updated",
		func(ctx context.Context) error {
			_, err := v.api.UpdateFeedback(ctx, id, upd)
			return err
		},
		func(msg string) {
			v.mu.Lock()
			v.err = msg
			v.mu.Unlock()
		},
		func() {
			v.mu.Lock()
			v.err = ""
			v.mu.Unlock()
		},
		refresher{name: "feedback", fn: func(ctx context.Context) error {
			v.mu.RLock()
			f := v.filter
			v.mu.RUnlock()
			items, err := v.api.AdminFeedback(ctx, f)
			if err != nil {
				return err
			}
			v.mu.Lock()
			v.items = items
			v.mu.Unlock()
			return nil
		}},
	)
}
