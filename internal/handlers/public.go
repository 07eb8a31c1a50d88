// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/pagination"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

// Home page listing sizes.
const (
	featuredCount   = 3
	latestCount     = 6
	perCategoryHome = 3
	relatedCount    = 3
)

// Public groups the handlers visitors can reach without logging in.
type Public struct {
	site
	posts      *store.PostStore
	categories *store.CategoryStore
}

// NewPublic creates a new Public handler group.
func NewPublic(renderer *render.Renderer, sessions *session.Store, nav NavCategories, posts *store.PostStore, categories *store.CategoryStore) *Public {
	return &Public{
		site:       site{renderer: renderer, sessions: sessions, nav: nav},
		posts:      posts,
		categories: categories,
	}
}

// Home renders the landing page: featured posts, the latest posts and a
// short listing for every category that has published posts.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	featured, err := p.posts.Featured(featuredCount)
	if err != nil {
		serverError(w, r, "list featured posts failed", err)
		return
	}

	latest, err := p.posts.Latest(latestCount)
	if err != nil {
		serverError(w, r, "list latest posts failed", err)
		return
	}

	sections, err := p.posts.HomeSections(perCategoryHome)
	if err != nil {
		serverError(w, r, "list home sections failed", err)
		return
	}

	p.page(w, r, http.StatusOK, "home", &render.PageData{
		Data: map[string]any{
			"Featured": featured,
			"Latest":   latest,
			"Sections": sections,
		},
	})
}

// PostDetail renders a published post and counts the view. Drafts and
// unknown slugs are both 404.
func (p *Public) PostDetail(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	post, err := p.posts.FindPublishedBySlug(slugParam)
	if err != nil {
		serverError(w, r, "find post failed", err, "slug", slugParam)
		return
	}
	if post == nil {
		http.NotFound(w, r)
		return
	}

	// A failed increment costs one view, not the page.
	views, err := p.posts.IncrementViews(post.ID)
	if err != nil {
		slog.Warn("increment views failed", "error", err, "post_id", post.ID)
	} else if views > 0 {
		post.Views = views
	}

	related, err := p.posts.Related(post, relatedCount)
	if err != nil {
		slog.Warn("list related posts failed", "error", err, "post_id", post.ID)
		related = nil
	}

	p.page(w, r, http.StatusOK, "detail", &render.PageData{
		Title: post.Title,
		Data: map[string]any{
			"Post":    post,
			"Related": related,
		},
	})
}

// Category renders one page of a category's published posts. Page numbers
// outside the valid range are clamped.
func (p *Public) Category(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	cat, err := p.categories.FindBySlug(slugParam)
	if err != nil {
		serverError(w, r, "find category failed", err, "slug", slugParam)
		return
	}
	if cat == nil {
		http.NotFound(w, r)
		return
	}

	req := pagination.New(r.URL.Query().Get("page"), 0, store.CategoryPageSize)
	page, err := p.posts.ByCategory(cat.ID, req)
	if err != nil {
		serverError(w, r, "list category posts failed", err, "category", cat.Slug)
		return
	}

	p.page(w, r, http.StatusOK, "category", &render.PageData{
		Title: cat.Name,
		Data: map[string]any{
			"Category": cat,
			"Page":     page,
		},
	})
}
