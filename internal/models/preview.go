package models

import "time"

// PreviewInfo describes a token-addressed public website preview.
type PreviewInfo struct {
	Token        string    `json:"token"`
	BusinessName string    `json:"business_name"`
	VersionID    string    `json:"version_id"`
	Version      int       `json:"version_number"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// PreviewComment is a comment left on a public preview.
type PreviewComment struct {
	ID         string    `json:"id"`
	AuthorName string    `json:"author_name"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"created_at"`
}

// PreviewCommentCreate is the comment submission payload.
type PreviewCommentCreate struct {
	AuthorName  string `json:"author_name"`
	AuthorEmail string `json:"author_email,omitempty"`
	Content     string `json:"content"`
}
