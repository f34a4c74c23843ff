package models

import "errors"

var (
	ErrNoRecord      = errors.New("models: no matching record found")
	ErrNotAuthorized = errors.New("models: not authenticated")
	ErrForbidden     = errors.New("models: forbidden")
)
