// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PostStatus represents the publishing state of a post.
type PostStatus string

const (
	PostStatusDraft     PostStatus = "draft"
	PostStatusPublished PostStatus = "published"
)

// Valid reports whether s is one of the known statuses.
func (s PostStatus) Valid() bool {
	return s == PostStatusDraft || s == PostStatusPublished
}

// Post is a blog entry owned by a single author. PublishedAt stays nil until
// the first time the post is published and never moves afterwards.
type Post struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	AuthorID      uuid.UUID  `json:"author_id"`
	CategoryID    *uuid.UUID `json:"category_id,omitempty"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt"`
	FeaturedImage string     `json:"featured_image"` // object storage key, empty when absent
	Status        PostStatus `json:"status"`
	Views         int64      `json:"views"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`

	// Joined fields populated by store queries.
	AuthorName   string `json:"author_name"`
	CategoryName string `json:"category_name,omitempty"`
	CategorySlug string `json:"category_slug,omitempty"`
}

// IsPublished returns true if the post is in published status.
func (p Post) IsPublished() bool {
	return p.Status == PostStatusPublished
}

// IsDraft returns true if the post is still a draft.
func (p Post) IsDraft() bool {
	return p.Status == PostStatusDraft
}

// StatusLabel returns the display name of the post status.
func (p Post) StatusLabel() string {
	if p.IsPublished() {
		return "Published"
	}
	return "Draft"
}

// HasCategory reports whether the post is assigned to a category.
func (p Post) HasCategory() bool {
	return p.CategoryID != nil
}

// Publish moves the post to published status. PublishedAt is only set the
// first time; UpdatedAt always advances.
func (p *Post) Publish(now time.Time) {
	p.Status = PostStatusPublished
	p.Touch(now)
}

// Touch records a modification at now. A post saved as published without a
// publish timestamp receives one here, so every save path honors the
// set-once rule for PublishedAt.
func (p *Post) Touch(now time.Time) {
	p.UpdatedAt = now
	if p.Status == PostStatusPublished && p.PublishedAt == nil {
		t := now
		p.PublishedAt = &t
	}
}

// TimeSincePublished renders the age of the post relative to now, e.g.
// "3 days ago". Elapsed time is floor-divided into the coarsest whole unit.
func (p Post) TimeSincePublished(now time.Time) string {
	if p.PublishedAt == nil {
		return "Not published"
	}

	elapsed := now.Sub(*p.PublishedAt)
	switch {
	case elapsed >= 24*time.Hour:
		return ago(int(elapsed/(24*time.Hour)), "day")
	case elapsed >= time.Hour:
		return ago(int(elapsed/time.Hour), "hour")
	case elapsed >= time.Minute:
		return ago(int(elapsed/time.Minute), "minute")
	default:
		return "Just now"
	}
}

func ago(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s ago", unit)
	}
	return fmt.Sprintf("%d %ss ago", n, unit)
}

// AuthorStats summarizes an author's posts for the dashboard.
type AuthorStats struct {
	Total      int   `json:"total"`
	Published  int   `json:"published"`
	Drafts     int   `json:"drafts"`
	TotalViews int64 `json:"total_views"`
}
