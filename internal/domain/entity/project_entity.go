package entity

import (
	"io"
	"time"
)

// Project is the aggregate root of the feed. ImageRef always names an asset
// owned by the configured asset store.
type Project struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Content   string          `json:"content"`
	ImageRef  string          `json:"imageRef"`
	CreatorID string          `json:"creatorId"`
	Creator   *CreatorSummary `json:"creator,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// CreatorSummary is the populated creator of a project.
type CreatorSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Upload is an incoming image file as received from a multipart request.
type Upload struct {
	Filename string
	MimeType string
	Size     int64
	Body     io.Reader
}
