package store

import (
	"time"

	"github.com/google/uuid"
)

// Work is a novel: an ordered collection of chapters identified by title.
type Work struct {
	ID          uuid.UUID
	Title       string
	Author      string
	Category    string
	Intro       string
	IsRecommend bool
	SourceURL   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewWork carries the fields for work creation.
type NewWork struct {
	Title     string
	Author    string
	Category  string
	Intro     string
	SourceURL string
}

// ChapterRef is a chapter's identity and order, without its body.
type ChapterRef struct {
	ID    uuid.UUID
	Title string
	Order int
}
