// Package comments stores short user comments that may contain a small
// subset of HTML. Input is sanitised against an allow-list before it is
// stored, so stored bodies are safe to render as-is.
package comments

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/microcosm-cc/bluemonday"

	"github.com/wayfarer/wayfarer/internal/uuid"
	"github.com/wayfarer/wayfarer/storage"
)

const (
	commentBucket = "__comments"
	// MaxLength bounds the raw input accepted by Post.
	MaxLength = 2000
)

var (
	// ErrEmpty is returned when nothing is left after sanitising.
	ErrEmpty = errors.New("comment is empty")
	// ErrTooLong is returned for input longer than MaxLength bytes.
	ErrTooLong = fmt.Errorf("comment exceeds %d characters", MaxLength)
)

// Comment is a stored, sanitised comment.
type Comment struct {
	ID        string    `json:"id"`
	Author    string    `json:"author"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// Policy returns the allow-list used for comment bodies: basic inline
// formatting, code and links with href/title/rel.
func Policy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements("b", "i", "strong", "em", "code")
	p.AllowAttrs("href").OnElements("a")
	p.AllowAttrs("title", "rel").OnElements("a")
	p.AllowStandardURLs()
	p.RequireNoFollowOnLinks(true)
	return p
}

// Board persists comments per author.
type Board struct {
	repo   storage.Repository
	policy *bluemonday.Policy
	now    func() time.Time
}

// NewBoard creates a comment board over repo.
func NewBoard(repo storage.Repository) *Board {
	return &Board{
		repo:   repo,
		policy: Policy(),
		now:    time.Now,
	}
}

// authorKey is the record type holding author's comments. Storage keys are
// "<type>:<id>" and List scans by "<type>:", so the author is hex-encoded to
// keep one author's prefix from matching another's.
func authorKey(author string) string {
	return "author-" + hex.EncodeToString([]byte(author))
}

// Sanitize applies the comment allow-list to raw.
func (b *Board) Sanitize(raw string) string {
	return strings.TrimSpace(b.policy.Sanitize(raw))
}

// Post sanitises raw and stores it under author.
func (b *Board) Post(ctx context.Context, author, raw string) (Comment, error) {
	if err := ctx.Err(); err != nil {
		return Comment{}, err
	}
	if author == "" {
		return Comment{}, errors.New("comment author is required")
	}
	if len(raw) > MaxLength {
		return Comment{}, ErrTooLong
	}
	body := b.Sanitize(raw)
	if body == "" {
		return Comment{}, ErrEmpty
	}
	now := b.now().UTC()
	c := Comment{
		// Zero-padded nanoseconds keep List in chronological order.
		ID:        fmt.Sprintf("%020d-%s", now.UnixNano(), uuid.New()[:8]),
		Author:    author,
		Body:      body,
		CreatedAt: now,
	}
	data, err := json.Marshal(c)
	if err != nil {
		return Comment{}, err
	}
	if err := b.repo.Put(commentBucket, authorKey(author), c.ID, data); err != nil {
		return Comment{}, fmt.Errorf("storing comment: %w", err)
	}
	return c, nil
}

// List returns author's comments, oldest first.
func (b *Board) List(ctx context.Context, author string) ([]Comment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := authorKey(author)
	ids, err := b.repo.List(commentBucket, key)
	if err != nil {
		return nil, fmt.Errorf("listing comments: %w", err)
	}
	out := make([]Comment, 0, len(ids))
	for _, id := range ids {
		data, err := b.repo.Get(commentBucket, key, id)
		if err != nil {
			return nil, fmt.Errorf("loading comment %s: %w", id, err)
		}
		var c Comment
		if err := json.Unmarshal(data, &c); err != nil {
			return nil, fmt.Errorf("decoding comment %s: %w", id, err)
		}
		out = append(out, c)
	}
	return out, nil
}
