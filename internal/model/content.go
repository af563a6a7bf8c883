package model

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"
)

// ErrInvalidInput is returned when a caller supplies data that violates the
// catalog's field rules (empty required fields, unknown enumeration values).
var ErrInvalidInput = errors.New("invalid input")

// Category classifies a content item by the skill it trains.
type Category string

const (
	CategoryListening Category = "listening"
	CategorySpeaking  Category = "speaking"
	CategoryReading   Category = "reading"
)

// Categories lists every valid category in display order.
var Categories = []Category{CategoryListening, CategorySpeaking, CategoryReading}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryListening, CategorySpeaking, CategoryReading:
		return true
	}
	return false
}

// ParseCategory converts s into a Category, rejecting unknown values.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: unknown category %q", ErrInvalidInput, s)
	}
	return c, nil
}

// Difficulty is the learner level a content item targets.
type Difficulty string

const (
	DifficultyBeginner     Difficulty = "beginner"
	DifficultyIntermediate Difficulty = "intermediate"
	DifficultyAdvanced     Difficulty = "advanced"
)

// Difficulties lists every valid difficulty from easiest to hardest.
var Difficulties = []Difficulty{DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced}

// Valid reports whether d is one of the known difficulties.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyBeginner, DifficultyIntermediate, DifficultyAdvanced:
		return true
	}
	return false
}

// Content is one catalog entry: a YouTube-hosted lesson with its
// classification metadata. Items are never edited after insertion.
type Content struct {
	ID          string     `json:"id" db:"id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	YouTubeURL  string     `json:"youtube_url" db:"youtube_url"`
	Category    Category   `json:"category" db:"category"`
	Difficulty  Difficulty `json:"difficulty" db:"difficulty"`
	CreatedBy   string     `json:"created_by" db:"created_by"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Column limits shared by every relational backend.
const (
	MaxTitleLength     = 255
	MaxCreatedByLength = 255
	MaxURLLength       = 2048

	// MaxDescriptionBytes is the capacity of a MySQL TEXT column.
	MaxDescriptionBytes = 65535
)

// NewContent carries the caller-supplied fields of a content item. The ID and
// CreatedAt fields are assigned by the repository on insert.
type NewContent struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	YouTubeURL  string     `json:"youtube_url"`
	Category    Category   `json:"category"`
	Difficulty  Difficulty `json:"difficulty"`
	CreatedBy   string     `json:"created_by"`
}

// Normalize trims surrounding whitespace and lowercases the enumerations.
func (n NewContent) Normalize() NewContent {
	n.Title = strings.TrimSpace(n.Title)
	n.Description = strings.TrimSpace(n.Description)
	n.YouTubeURL = strings.TrimSpace(n.YouTubeURL)
	n.Category = Category(strings.ToLower(strings.TrimSpace(string(n.Category))))
	n.Difficulty = Difficulty(strings.ToLower(strings.TrimSpace(string(n.Difficulty))))
	n.CreatedBy = strings.TrimSpace(n.CreatedBy)
	return n
}

// Validate checks required fields and enumeration membership. Errors wrap
// ErrInvalidInput.
func (n NewContent) Validate() error {
	var problems []string
	if n.Title == "" {
		problems = append(problems, "title is required")
	} else if utf8.RuneCountInString(n.Title) > MaxTitleLength {
		problems = append(problems, fmt.Sprintf("title must be at most %d characters", MaxTitleLength))
	}
	if n.Description == "" {
		problems = append(problems, "description is required")
	} else if len(n.Description) > MaxDescriptionBytes {
		problems = append(problems, fmt.Sprintf("description must be at most %d bytes", MaxDescriptionBytes))
	}
	if n.YouTubeURL == "" {
		problems = append(problems, "youtube_url is required")
	} else if len(n.YouTubeURL) > MaxURLLength {
		problems = append(problems, fmt.Sprintf("youtube_url must be at most %d bytes", MaxURLLength))
	}
	if !n.Category.Valid() {
		problems = append(problems, fmt.Sprintf("category must be one of listening, speaking, reading (got %q)", n.Category))
	}
	if !n.Difficulty.Valid() {
		problems = append(problems, fmt.Sprintf("difficulty must be one of beginner, intermediate, advanced (got %q)", n.Difficulty))
	}
	if n.CreatedBy == "" {
		problems = append(problems, "created_by is required")
	} else if utf8.RuneCountInString(n.CreatedBy) > MaxCreatedByLength {
		problems = append(problems, fmt.Sprintf("created_by must be at most %d characters", MaxCreatedByLength))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// YouTubeVideoID extracts the video id from a watch URL
// (https://www.youtube.com/watch?v=ID&t=1) or a short link
// (https://youtu.be/ID). It returns "" when no id can be found.
func YouTubeVideoID(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	switch host {
	case "youtu.be":
		return strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "music.youtube.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if id, ok := strings.CutPrefix(u.Path, "/embed/"); ok {
			return strings.Trim(id, "/")
		}
	}
	return ""
}

// EmbedURL returns the iframe-embeddable URL for the item's video, or ""
// when the stored URL does not carry a recognizable video id.
func (c Content) EmbedURL() string {
	id := YouTubeVideoID(c.YouTubeURL)
	if id == "" {
		return ""
	}
	return "https://www.youtube.com/embed/" + id
}
