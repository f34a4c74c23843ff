package models

import "time"

// Feedback categories.
const (
	FeedbackCategoryBug   = "bug"
	FeedbackCategoryIdea  = "idea"
	FeedbackCategoryUX    = "ux"
	FeedbackCategoryOther = "other"
)

// Feedback priorities.
const (
	FeedbackPriorityLow    = "low"
	FeedbackPriorityMedium = "medium"
	FeedbackPriorityHigh   = "high"
)

// Feedback statuses.
const (
	FeedbackStatusOpen       = "open"
	FeedbackStatusInProgress = "in_progress"
	FeedbackStatusDone       = "done"
	FeedbackStatusRejected   = "rejected"
)

// Feedback is a free-text submission from an authenticated user.
type Feedback struct {
	ID            string     `json:"id"`
	UserID        string     `json:"user_id"`
	UserName      string     `json:"user_name,omitempty"`
	Content       string     `json:"content"`
	Category      string     `json:"category"`
	Priority      string     `json:"priority"`
	Status        string     `json:"status"`
	AdminNote     *string    `json:"admin_note"`
	HandledBy     *string    `json:"handled_by"`
	HandledAt     *time.Time `json:"handled_at"`
	PageURL       string     `json:"page_url"`
	ScreenshotURL *string    `json:"screenshot_url,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// FeedbackCreate is the submission payload.
type FeedbackCreate struct {
	Content       string  `json:"content"`
	Category      string  `json:"category"`
	Priority      string  `json:"priority"`
	PageURL       string  `json:"page_url"`
	ScreenshotURL *string `json:"screenshot_url,omitempty"`
}

// FeedbackUpdate is the admin annotation payload.
type FeedbackUpdate struct {
	Status    string  `json:"status"`
	AdminNote *string `json:"admin_note,omitempty"`
}

// FeedbackFilter narrows the admin feedback list.
type FeedbackFilter struct {
	Status   string
	Category string
}
