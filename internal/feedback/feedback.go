// Package feedback validates and submits user feedback.
package feedback

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"webomat/internal/models"
)

const (
	MinContentLength = 10
	MaxContentLength = 5000
	MaxScreenshot    = 5 << 20
)

var (
	ErrContentTooShort    = fmt.Errorf("feedback: content must be at least %d characters", MinContentLength)
	ErrContentTooLong     = fmt.Errorf("feedback: content must be at most %d characters", MaxContentLength)
	ErrInvalidCategory    = errors.New("feedback: unknown category")
	ErrInvalidPriority    = errors.New("feedback: unknown priority")
	ErrScreenshotTooLarge = errors.New("feedback: screenshot is too large")
	ErrScreenshotType     = errors.New("feedback: screenshot must be a PNG, JPEG or WebP image")
	ErrNoUploader         = errors.New("feedback: screenshot uploads are not configured")
)

var screenshotExt = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
}

// API submits validated feedback.
type API interface {
	SubmitFeedback(ctx context.Context, in models.FeedbackCreate) (*models.Feedback, error)
}

// Uploader stores a screenshot and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
}

// Screenshot is an optional image attached to feedback.
type Screenshot struct {
	ContentType string
	Data        []byte
}

// Input is the raw form as typed by the user.
type Input struct {
	Content    string `validate:"min=10,max=5000"`
	Category   string `validate:"oneof=bug idea ux other"`
	Priority   string `validate:"oneof=low medium high"`
	PageURL    string `validate:"omitempty,max=2048"`
	Screenshot *Screenshot
}

// Normalize trims the content and fills in defaults.
func (in Input) Normalize() Input {
	in.Content = strings.TrimSpace(in.Content)
	in.Category = strings.ToLower(strings.TrimSpace(in.Category))
	in.Priority = strings.ToLower(strings.TrimSpace(in.Priority))
	if in.Category == "" {
		in.Category = models.FeedbackCategoryOther
	}
	if in.Priority == "" {
		in.Priority = models.FeedbackPriorityMedium
	}
	in.PageURL = strings.TrimSpace(in.PageURL)
	return in
}

var validate = validator.New()

// Validate checks a normalized input.
func Validate(in Input) error {
	err := validate.Struct(in)
	if err == nil {
		return validateScreenshot(in.Screenshot)
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Field() {
	case "Content":
		if fe.Tag() == "max" {
			return ErrContentTooLong
		}
		return ErrContentTooShort
	case "Category":
		return ErrInvalidCategory
	case "Priority":
		return ErrInvalidPriority
	}
	return fmt.Errorf("feedback: invalid %s", strings.ToLower(fe.Field()))
}

func validateScreenshot(s *Screenshot) error {
	if s == nil {
		return nil
	}
	if len(s.Data) > MaxScreenshot {
		return ErrScreenshotTooLarge
	}
	if _, ok := screenshotExt[s.ContentType]; !ok {
		return ErrScreenshotType
	}
	return nil
}

// Service submits feedback. Invalid input never reaches the network.
type Service struct {
	api      API
	uploader Uploader
	now      func() time.Time
}

// NewService constructs a Service. uploader may be nil when screenshots are
// not supported by the host.
func NewService(api API, uploader Uploader) *Service {
	return &Service{api: api, uploader: uploader, now: time.Now}
}

// Submit normalizes, validates, uploads the screenshot and submits.
func (s *Service) Submit(ctx context.Context, raw Input) (*models.Feedback, error) {
	in := raw.Normalize()
	if err := Validate(in); err != nil {
		return nil, err
	}

	req := models.FeedbackCreate{
		Content:  in.Content,
		Category: in.Category,
		Priority: in.Priority,
		PageURL:  in.PageURL,
	}
	if in.Screenshot != nil {
		if s.uploader == nil {
			return nil, ErrNoUploader
		}
		key := path.Join("feedback", s.now().UTC().Format("2006/01"), uuid.NewString()+screenshotExt[in.Screenshot.ContentType])
		url, err := s.uploader.Upload(ctx, key, bytes.NewReader(in.Screenshot.Data), in.Screenshot.ContentType)
		if err != nil {
			return nil, fmt.Errorf("upload screenshot: %w", err)
		}
		req.ScreenshotURL = &url
	}
	return s.api.SubmitFeedback(ctx, req)
}
