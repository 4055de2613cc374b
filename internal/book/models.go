package book

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultPublisher is written when a book has no publisher of its own.
	DefaultPublisher = "Manuscript"
	// DefaultLanguage is the locale tag used when a book declares none.
	DefaultLanguage = "ja"
)

// Metadata describes a book as a whole.
type Metadata struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Publisher   string   `json:"publisher,omitempty"`
	Description string   `json:"description,omitempty"`
	Language    string   `json:"language,omitempty"`
	Cover       *Cover   `json:"coverImage,omitempty"`
	ISBN        string   `json:"isbn,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Chapter is one unit of the manuscript. Memo is editorial only and is never
// written into an exported artifact.
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Memo    string `json:"memo,omitempty"`
	Order   int    `json:"order"`
}

// Project is the persisted editing state of a single book.
type Project struct {
	Metadata Metadata  `json:"metadata"`
	Chapters []Chapter `json:"chapters"`
	SavedAt  time.Time `json:"savedAt"`
}

// NewChapterID returns a fresh opaque chapter identifier.
func NewChapterID() string {
	return uuid.NewString()
}

// PublisherOrDefault returns the publisher, falling back to DefaultPublisher.
func (m Metadata) PublisherOrDefault() string {
	if m.Publisher == "" {
		return DefaultPublisher
	}
	return m.Publisher
}

// LanguageOrDefault returns the language tag, falling back to DefaultLanguage.
func (m Metadata) LanguageOrDefault() string {
	if m.Language == "" {
		return DefaultLanguage
	}
	return m.Language
}

// SortByOrder returns a copy of chapters sorted by their Order field.
// Exporters use slice position, so callers holding stored data whose Order
// values disagree with position should sort before exporting.
func SortByOrder(chapters []Chapter) []Chapter {
	sorted := make([]Chapter, len(chapters))
	copy(sorted, chapters)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Order < sorted[j].Order
	})
	return sorted
}

// Renumber sets each chapter's Order to its slice position.
func Renumber(chapters []Chapter) {
	for i := range chapters {
		chapters[i].Order = i
	}
}
