package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Bookmark is a saved link as exchanged with the REST backend.
type Bookmark struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	URL        string    `json:"url"`
	Tags       string    `json:"tags"` // comma-separated labels
	Note       string    `json:"note"`
	IsFavorite Flag      `json:"is_favorite"`
	CreatedAt  Timestamp `json:"created_at"`
}

// TagList splits the comma-separated tags into trimmed labels, skipping empty ones.
func (b Bookmark) TagList() []string {
	if strings.TrimSpace(b.Tags) == "" {
		return nil
	}
	raw := strings.Split(b.Tags, ",")
	tags := make([]string, 0, len(raw))
	for _, t := range raw {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// BookmarkInput holds the user-editable fields of a bookmark.
type BookmarkInput struct {
	Title string `json:"title"`
	URL   string `json:"url"`
	Tags  string `json:"tags"`
	Note  string `json:"note"`
}

var (
	ErrTitleRequired = errors.New("title required")
	ErrURLRequired   = errors.New("url required")
	ErrInvalidURL    = errors.New("invalid url")
)

// Normalize trims surrounding whitespace from every field.
func (in BookmarkInput) Normalize() BookmarkInput {
	return BookmarkInput{
		Title: strings.TrimSpace(in.Title),
		URL:   strings.TrimSpace(in.URL),
		Tags:  strings.TrimSpace(in.Tags),
		Note:  strings.TrimSpace(in.Note),
	}
}

// Validate checks the required fields. Call it on a normalized input.
func (in BookmarkInput) Validate() error {
	if in.Title == "" {
		return ErrTitleRequired
	}
	if in.URL == "" {
		return ErrURLRequired
	}
	u, err := url.Parse(in.URL)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidURL
	}
	return nil
}

// Flag is a boolean that also accepts the 0/1 integers SQL backends emit.
type Flag bool

func (f *Flag) UnmarshalJSON(data []byte) error {
	switch string(bytes.TrimSpace(data)) {
	case "true", "1":
		*f = true
	case "false", "0", "null":
		*f = false
	default:
		return fmt.Errorf("invalid flag value %s", data)
	}
	return nil
}

// sqlTimestampLayout is the CURRENT_TIMESTAMP text form used by SQLite.
const sqlTimestampLayout = "2006-01-02 15:04:05"

// Timestamp is a time that decodes both RFC 3339 and SQL timestamp strings.
type Timestamp struct {
	time.Time
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		t.Time = time.Time{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, sqlTimestampLayout, time.RFC1123} {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("invalid timestamp %q", s)
}
