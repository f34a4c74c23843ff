// Package preview serves token-addressed public website previews and their
// comment threads.
package preview

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"

	"webomat/internal/models"
)

var (
	ErrTokenRequired   = errors.New("preview: token is required")
	ErrAuthorRequired  = errors.New("preview: author name is required")
	ErrAuthorTooLong   = errors.New("preview: author name is too long")
	ErrContentRequired = errors.New("preview: comment is required")
	ErrContentTooLong  = errors.New("preview: comment is too long")
	ErrInvalidEmail    = errors.New("preview: invalid email address")
)

// API is the public preview surface of the API client.
type API interface {
	PreviewInfo(ctx context.Context, token string) (*models.PreviewInfo, error)
	PreviewHTML(ctx context.Context, token string) (string, error)
	PreviewComments(ctx context.Context, token string) ([]models.PreviewComment, error)
	AddPreviewComment(ctx context.Context, token string, in models.PreviewCommentCreate) (*models.PreviewComment, error)
}

// Logger is the logging surface used by the service.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// CommentForm is the submitted comment form. Honeypot is bound to a field
// hidden from humans.
type CommentForm struct {
	AuthorName  string `validate:"required,max=120"`
	AuthorEmail string `validate:"omitempty,email,max=254"`
	Content     string `validate:"required,max=2000"`
	Honeypot    string
}

// Result reports the outcome of AddComment. Discarded submissions look
// accepted to the sender.
type Result struct {
	Comment   *models.PreviewComment
	Discarded bool
}

type Service struct {
	api    API
	logger Logger
}

func NewService(api API, logger Logger) *Service {
	return &Service{api: api, logger: logger}
}

func (s *Service) Info(ctx context.Context, token string) (*models.PreviewInfo, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}
	return s.api.PreviewInfo(ctx, token)
}

func (s *Service) HTML(ctx context.Context, token string) (string, error) {
	if strings.TrimSpace(token) == "" {
		return "", ErrTokenRequired
	}
	return s.api.PreviewHTML(ctx, token)
}

func (s *Service) Comments(ctx context.Context, token string) ([]models.PreviewComment, error) {
	if strings.TrimSpace(token) == "" {
		return nil, ErrTokenRequired
	}
	return s.api.PreviewComments(ctx, token)
}

var validate = validator.New()

// AddComment posts a comment. A filled honeypot is dropped without any
// request.
func (s *Service) AddComment(ctx context.Context, token string, form CommentForm) (Result, error) {
	if strings.TrimSpace(token) == "" {
		return Result{}, ErrTokenRequired
	}
	if strings.TrimSpace(form.Honeypot) != "" {
		s.logger.Infof("preview %s: discarded comment with filled honeypot", token)
		return Result{Discarded: true}, nil
	}

	form.AuthorName = strings.TrimSpace(form.AuthorName)
	form.AuthorEmail = strings.TrimSpace(form.AuthorEmail)
	form.Content = strings.TrimSpace(form.Content)
	if err := validateForm(form); err != nil {
		return Result{}, err
	}

	c, err := s.api.AddPreviewComment(ctx, token, models.PreviewCommentCreate{
		AuthorName:  form.AuthorName,
		AuthorEmail: form.AuthorEmail,
		Content:     form.Content,
	})
	if err != nil {
		return Result{}, err
	}
	return Result{Comment: c}, nil
}

func validateForm(form CommentForm) error {
	err := validate.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch {
	case fe.Field() == "AuthorName" && fe.Tag() == "max":
		return ErrAuthorTooLong
	case fe.Field() == "AuthorName":
		return ErrAuthorRequired
	case fe.Field() == "AuthorEmail":
		return ErrInvalidEmail
	case fe.Field() == "Content" && fe.Tag() == "max":
		return ErrContentTooLong
	default:
		return ErrContentRequired
	}
}
