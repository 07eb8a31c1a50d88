// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/models"
	"blogpress/internal/pagination"
)

// Default page sizes for the paginated listings.
const (
	CategoryPageSize = 6
	AuthorPageSize   = 10
)

// PostStore handles all post-related database operations, including the
// public listings, the author dashboard queries and the lifecycle writes.
type PostStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewPostStore creates a new PostStore with the given database connection.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, now: time.Now}
}

// postSelect joins the author name and category label onto every row.
const postSelect = `
	SELECT p.id, p.title, p.slug, p.author_id, p.category_id, p.content,
	       p.excerpt, p.featured_image, p.status, p.views,
	       p.created_at, p.updated_at, p.published_at,
	       u.display_name, COALESCE(c.name, ''), COALESCE(c.slug, '')
	FROM posts p
	JOIN users u ON u.id = p.author_id
	LEFT JOIN categories c ON c.id = p.category_id`

// publicOrder is the default listing order. Drafts have no published_at
// and fall back to creation time.
const publicOrder = ` ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC`

func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.CategoryID, &p.Content,
		&p.Excerpt, &p.FeaturedImage, &p.Status, &p.Views,
		&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt,
		&p.AuthorName, &p.CategoryName, &p.CategorySlug,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostStore) queryPosts(query string, args ...any) ([]models.Post, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, *p)
	}
	return items, rows.Err()
}

func (s *PostStore) findOne(query string, args ...any) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// Featured returns the n most recently published posts for the hero area
// of the home page.
func (s *PostStore) Featured(n int) ([]models.Post, error) {
	items, err := s.queryPosts(postSelect+` WHERE p.status = 'published'`+publicOrder+` LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("list featured posts: %w", err)
	}
	return items, nil
}

// Latest returns the n most recently published posts. It shares Featured's
// ordering; the home page shows both lists with different sizes.
func (s *PostStore) Latest(n int) ([]models.Post, error) {
	items, err := s.queryPosts(postSelect+` WHERE p.status = 'published'`+publicOrder+` LIMIT $1`, n)
	if err != nil {
		return nil, fmt.Errorf("list latest posts: %w", err)
	}
	return items, nil
}

// ByCategory returns one page of published posts in a category. The page
// number is clamped into the valid range.
func (s *PostStore) ByCategory(categoryID uuid.UUID, req pagination.Paginate) (*pagination.Page[models.Post], error) {
	if req.Limit <= 0 {
		req.Limit = CategoryPageSize
	}

	var total int64
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM posts WHERE category_id = $1 AND status = 'published'
	`, categoryID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("count category posts: %w", err)
	}

	req = req.Resolve(total)
	items, err := s.queryPosts(
		postSelect+` WHERE p.category_id = $1 AND p.status = 'published'`+publicOrder+` LIMIT $2 OFFSET $3`,
		categoryID, req.Limit, req.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list category posts: %w", err)
	}

	return pagination.MakePage(items, req, total), nil
}

// ByAuthor returns one page of all posts owned by an author, drafts
// included, newest first. It is the only listing that exposes drafts.
func (s *PostStore) ByAuthor(authorID uuid.UUID, req pagination.Paginate) (*pagination.Page[models.Post], error) {
	if req.Limit <= 0 {
		req.Limit = AuthorPageSize
	}

	var total int64
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts WHERE author_id = $1`, authorID).Scan(&total); err != nil {
		return nil, fmt.Errorf("count author posts: %w", err)
	}

	req = req.Resolve(total)
	items, err := s.queryPosts(
		postSelect+` WHERE p.author_id = $1 ORDER BY p.created_at DESC LIMIT $2 OFFSET $3`,
		authorID, req.Limit, req.Offset(),
	)
	if err != nil {
		return nil, fmt.Errorf("list author posts: %w", err)
	}

	return pagination.MakePage(items, req, total), nil
}

// HomeSections returns, for each category in name order, up to perCategory
// of its latest published posts. Categories without published posts are
// left out.
func (s *PostStore) HomeSections(perCategory int) ([]models.CategorySection, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       r.id, r.title, r.slug, r.author_id, r.category_id, r.content,
		       r.excerpt, r.featured_image, r.status, r.views,
		       r.created_at, r.updated_at, r.published_at, r.author_name
		FROM categories c
		JOIN (
			SELECT p.*, u.display_name AS author_name,
			       ROW_NUMBER() OVER (
			           PARTITION BY p.category_id
			           ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC
			       ) AS rn
			FROM posts p
			JOIN users u ON u.id = p.author_id
			WHERE p.status = 'published' AND p.category_id IS NOT NULL
		) r ON r.category_id = c.id
		WHERE r.rn <= $1
		ORDER BY c.name, r.rn
	`, perCategory)
	if err != nil {
		return nil, fmt.Errorf("list home sections: %w", err)
	}
	defer rows.Close()

	var sections []models.CategorySection
	for rows.Next() {
		var c models.Category
		var p models.Post
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
			&p.ID, &p.Title, &p.Slug, &p.AuthorID, &p.CategoryID, &p.Content,
			&p.Excerpt, &p.FeaturedImage, &p.Status, &p.Views,
			&p.CreatedAt, &p.UpdatedAt, &p.PublishedAt, &p.AuthorName,
		); err != nil {
			return nil, fmt.Errorf("scan home section: %w", err)
		}
		p.CategoryName = c.Name
		p.CategorySlug = c.Slug

		if n := len(sections); n == 0 || sections[n-1].Category.ID != c.ID {
			sections = append(sections, models.CategorySection{Category: c})
		}
		last := &sections[len(sections)-1]
		last.Posts = append(last.Posts, p)
	}
	return sections, rows.Err()
}

// Related returns up to n other published posts from the same category.
// Uncategorized posts have no related posts.
func (s *PostStore) Related(post *models.Post, n int) ([]models.Post, error) {
	if post.CategoryID == nil {
		return []models.Post{}, nil
	}
	items, err := s.queryPosts(
		postSelect+` WHERE p.category_id = $1 AND p.status = 'published' AND p.id <> $2`+publicOrder+` LIMIT $3`,
		*post.CategoryID, post.ID, n,
	)
	if err != nil {
		return nil, fmt.Errorf("list related posts: %w", err)
	}
	return items, nil
}

// FindPublishedBySlug retrieves a published post for the public detail
// view. Drafts and unknown slugs both return nil.
func (s *PostStore) FindPublishedBySlug(slug string) (*models.Post, error) {
	p, err := s.findOne(postSelect+` WHERE p.slug = $1 AND p.status = 'published'`, slug)
	if err != nil {
		return nil, fmt.Errorf("find published post by slug: %w", err)
	}
	return p, nil
}

// FindOwnedBySlug retrieves a post only if authorID owns it. A post that
// exists but belongs to someone else returns nil, same as a missing one.
func (s *PostStore) FindOwnedBySlug(slug string, authorID uuid.UUID) (*models.Post, error) {
	p, err := s.findOne(postSelect+` WHERE p.slug = $1 AND p.author_id = $2`, slug, authorID)
	if err != nil {
		return nil, fmt.Errorf("find owned post by slug: %w", err)
	}
	return p, nil
}

// Create inserts a new post. Timestamps are assigned here and a post
// created as published receives its published_at.
func (s *PostStore) Create(p *models.Post) (*models.Post, error) {
	if p.Status == "" {
		p.Status = models.PostStatusDraft
	}
	now := s.now()
	p.CreatedAt = now
	p.Touch(now)

	var id uuid.UUID
	err := s.db.QueryRow(`
		INSERT INTO posts (title, slug, author_id, category_id, content, excerpt,
		                   featured_image, status, created_at, updated_at, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`, p.Title, p.Slug, p.AuthorID, p.CategoryID, p.Content, p.Excerpt,
		p.FeaturedImage, p.Status, p.CreatedAt, p.UpdatedAt, p.PublishedAt,
	).Scan(&id)
	if err != nil {
		return nil, mapPostWriteError("create post", err)
	}

	created, err := s.findOne(postSelect+` WHERE p.id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("reload post: %w", err)
	}
	return created, nil
}

// Update saves the editable fields of an owned post. The author never
// changes and published_at, once set, is kept by COALESCE even if the
// caller's copy is stale.
func (s *PostStore) Update(p *models.Post) error {
	p.Touch(s.now())

	res, err := s.db.Exec(`
		UPDATE posts SET
			title = $1, slug = $2, category_id = $3, content = $4, excerpt = $5,
			featured_image = $6, status = $7, updated_at = $8,
			published_at = COALESCE(published_at, $9)
		WHERE id = $10 AND author_id = $11
	`, p.Title, p.Slug, p.CategoryID, p.Content, p.Excerpt,
		p.FeaturedImage, p.Status, p.UpdatedAt, p.PublishedAt,
		p.ID, p.AuthorID,
	)
	if err != nil {
		return mapPostWriteError("update post", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("update post: %w", sql.ErrNoRows)
	}
	return nil
}

// Delete removes a post owned by authorID. Hard delete, no tombstone.
func (s *PostStore) Delete(id, authorID uuid.UUID) error {
	_, err := s.db.Exec(`DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter of a published post in a single
// statement and returns the new value. Concurrent readers are serialized
// by the row lock, so no increment is lost.
func (s *PostStore) IncrementViews(id uuid.UUID) (int64, error) {
	var views int64
	err := s.db.QueryRow(`
		UPDATE posts SET views = views + 1
		WHERE id = $1 AND status = 'published'
		RETURNING views
	`, id).Scan(&views)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("increment post views: %w", err)
	}
	return views, nil
}

// AuthorStats returns post totals and summed views for the dashboard.
func (s *PostStore) AuthorStats(authorID uuid.UUID) (*models.AuthorStats, error) {
	var st models.AuthorStats
	err := s.db.QueryRow(`
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'published'),
		       COUNT(*) FILTER (WHERE status = 'draft'),
		       COALESCE(SUM(views), 0)
		FROM posts WHERE author_id = $1
	`, authorID).Scan(&st.Total, &st.Published, &st.Drafts, &st.TotalViews)
	if err != nil {
		return nil, fmt.Errorf("author stats: %w", err)
	}
	return &st, nil
}

// CategoryStats returns, for every category in name order, how many of the
// author's posts it holds and how many of those are published.
func (s *PostStore) CategoryStats(authorID uuid.UUID) ([]models.CategoryStat, error) {
	rows, err := s.db.Query(`
		SELECT c.id, c.name, c.slug, c.description, c.created_at, c.updated_at,
		       COUNT(p.id),
		       COUNT(p.id) FILTER (WHERE p.status = 'published')
		FROM categories c
		LEFT JOIN posts p ON p.category_id = c.id AND p.author_id = $1
		GROUP BY c.id
		ORDER BY c.name
	`, authorID)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var stats []models.CategoryStat
	for rows.Next() {
		var st models.CategoryStat
		c := &st.Category
		if err := rows.Scan(
			&c.ID, &c.Name, &c.Slug, &c.Description, &c.CreatedAt, &c.UpdatedAt,
			&st.Total, &st.Published,
		); err != nil {
			return nil, fmt.Errorf("scan category stat: %w", err)
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// CountAll returns the number of posts across all authors.
func (s *PostStore) CountAll() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM posts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return n, nil
}

// SlugExists reports whether any post, other than exclude, already uses
// slug. Pass uuid.Nil to check against all posts.
func (s *PostStore) SlugExists(slug string, exclude uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM posts WHERE slug = $1 AND id <> $2)
	`, slug, exclude).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check post slug: %w", err)
	}
	return exists, nil
}

func mapPostWriteError(op string, err error) error {
	if name, ok := constraintError(err, pgUniqueViolation); ok && name == "posts_slug_key" {
		return ErrSlugTaken
	}
	if name, ok := constraintError(err, pgForeignKeyViolation); ok && name == "posts_category_id_fkey" {
		return ErrInvalidCategory
	}
	return fmt.Errorf("%s: %w", op, err)
}
