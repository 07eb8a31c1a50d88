// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Category is a named, slugged tag grouping posts. A post belongs to at
// most one category; deleting a category leaves its posts uncategorized.
type Category struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// CategoryStat is one dashboard row: how many of an author's posts sit in a
// category and how many of those are published.
type CategoryStat struct {
	Category  Category `json:"category"`
	Total     int      `json:"total"`
	Published int      `json:"published"`
}

// CategorySection groups the latest published posts of one category for the
// home page.
type CategorySection struct {
	Category Category `json:"category"`
	Posts    []Post   `json:"posts"`
}
