package models

import "github.com/oklog/ulid/v2"

// NoticeLevel controls how a notice is styled.
type NoticeLevel string

const (
	NoticeInfo        NoticeLevel = "info"
	NoticeSuccess     NoticeLevel = "success"
	NoticeDestructive NoticeLevel = "destructive"
)

// Notice is a transient, non-blocking notification shown once on the next
// rendered page.
type Notice struct {
	ID          string      `json:"id"` // ULID
	Level       NoticeLevel `json:"level"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
}

// NewNotice creates a notice with a fresh ID.
func NewNotice(level NoticeLevel, title, description string) Notice {
	return Notice{
		ID:          ulid.Make().String(),
		Level:       level,
		Title:       title,
		Description: description,
	}
}
