package database

import (
	"database/sql"
	"fmt"
)

// DefaultCategory is one entry of the built-in category set.
type DefaultCategory struct {
	Name        string
	Slug        string
	Description string
}

// DefaultCategories is the category set installed by create-categories.
var DefaultCategories = []DefaultCategory{
	{Name: "Technology", Slug: "technology", Description: "Posts about technology, programming, and software"},
	{Name: "Agricultural", Slug: "agricultural", Description: "Posts about agriculture, farming, and crops"},
	{Name: "Design", Slug: "design", Description: "Posts about design, UI/UX, and creativity"},
	{Name: "AI", Slug: "ai", Description: "Posts about artificial intelligence and machine learning"},
	{Name: "Python", Slug: "python", Description: "Posts about Python programming"},
}

// SeedResult reports what happened to one default category. Name is the
// stored name, which differs from the default when the row already existed.
type SeedResult struct {
	Name    string
	Created bool
}

// SeedCategories inserts every default category whose slug is not taken yet.
// Existing rows are left untouched, so running it twice is safe. A default
// whose name is held by a row under another slug is an error.
func SeedCategories(db *sql.DB) ([]SeedResult, error) {
	return seedCategories(db, DefaultCategories)
}

func seedCategories(db *sql.DB, categories []DefaultCategory) ([]SeedResult, error) {
	results := make([]SeedResult, 0, len(categories))

	for _, c := range categories {
		var name string
		err := db.QueryRow(`
			INSERT INTO categories (name, slug, description)
			VALUES ($1, $2, $3)
			ON CONFLICT (slug) DO NOTHING
			RETURNING name`,
			c.Name, c.Slug, c.Description,
		).Scan(&name)

		switch {
		case err == nil:
			results = append(results, SeedResult{Name: name, Created: true})
		case err == sql.ErrNoRows:
			existing := c.Name
			if err := db.QueryRow("SELECT name FROM categories WHERE slug = $1", c.Slug).Scan(&existing); err != nil && err != sql.ErrNoRows {
				return results, fmt.Errorf("seed category %s: %w", c.Slug, err)
			}
			results = append(results, SeedResult{Name: existing})
		default:
			return results, fmt.Errorf("seed category %s: %w", c.Slug, err)
		}
	}

	return results, nil
}

// CreatedCount returns how many results were newly inserted.
func CreatedCount(results []SeedResult) int {
	n := 0
	for _, r := range results {
		if r.Created {
			n++
		}
	}
	return n
}
