package views

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webomat/internal/apiclient"
	"webomat/internal/models"
)

type fakeFeedbackAPI struct {
	items     []models.Feedback
	updates   []models.FeedbackUpdate
	lastQuery models.FeedbackFilter
	updateErr error
	listErr   error
}

func (f *fakeFeedbackAPI) AdminFeedback(_ context.Context, filter models.FeedbackFilter) ([]models.Feedback, error) {
	f.lastQuery = filter
	if f.listErr != nil {
		return nil, f.listErr
	}
	return append([]models.Feedback(nil), f.items...), nil
}

func (f *fakeFeedbackAPI) UpdateFeedback(_ context.Context, id string, upd models.FeedbackUpdate) (*models.Feedback, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, upd)
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Status = upd.Status
			f.items[i].AdminNote = upd.AdminNote
		}
	}
	return &models.Feedback{ID: id, Status: upd.Status}, nil
}

func TestFeedbackAdminUpdateRefreshes(t *testing.T) {
	api := &fakeFeedbackAPI{items: []models.Feedback{{ID: "f1", Status: models.FeedbackStatusOpen}}}
	v := NewFeedbackAdmin(api, testLogger{}, nil)
	filter := models.FeedbackFilter{Category: models.FeedbackCategoryBug}
	require.NoError(t, v.Load(context.Background(), filter))

	require.NoError(t, v.UpdateStatus(context.Background(), "f1", models.FeedbackStatusDone, "  fixed in 1.2 "))
	require.Len(t, api.updates, 1)
	require.NotNil(t, api.updates[0].AdminNote)
	assert.Equal(t, "fixed in 1.2", *api.updates[0].AdminNote)
	assert.Equal(t, models.FeedbackStatusDone, v.Items()[0].Status)
	assert.Equal(t, filter, api.lastQuery)
}

func TestFeedbackAdminRejectsUnknownStatus(t *testing.T) {
	api := &fakeFeedbackAPI{}
	v := NewFeedbackAdmin(api, testLogger{}, nil)
	assert.ErrorIs(t, v.UpdateStatus(context.Background(), "f1", "archived", ""), ErrInvalidFeedbackStatus)
	assert.Empty(t, api.updates)
}

func TestFeedbackAdminFailureSurfaces(t *testing.T) {
	api := &fakeFeedbackAPI{
		items:     []models.Feedback{{ID: "f1", Status: models.FeedbackStatusOpen}},
		updateErr: &apiclient.APIError{StatusCode: 404, Detail: "Feedback not found"},
	}
	v := NewFeedbackAdmin(api, testLogger{}, nil)
	require.NoError(t, v.Load(context.Background(), models.FeedbackFilter{}))

	require.Error(t, v.UpdateStatus(context.Background(), "f1", models.FeedbackStatusRejected, ""))
	assert.Equal(t, "Error 404: Feedback not found", v.Error())
	assert.Equal(t, models.FeedbackStatusOpen, v.Items()[0].Status)
}

func TestFeedbackAdminRefreshFailureKeepsItems(t *testing.T) {
	api := &fakeFeedbackAPI{items: []models.Feedback{
		{ID: "f1", Status: models.FeedbackStatusOpen},
		{ID: "f2", Status: models.FeedbackStatusOpen},
	}}
	n := &recordingNotifier{}
	v := NewFeedbackAdmin(api, testLogger{}, n)
	require.NoError(t, v.Load(context.Background(), models.FeedbackFilter{}))
	before := v.Items()

	api.listErr = &apiclient.TransportError{Err: errors.New("connection reset")}
	require.NoError(t, v.UpdateStatus(context.Background(), "f1", models.FeedbackStatusDone, ""))

	assert.Len(t, api.updates, 1)
	assert.Empty(t, v.Error())
	assert.Equal(t, before, v.Items())
	assert.Empty(t, n.errors)
	assert.NotEmpty(t, n.successes)
}
