// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/pagination"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

// Notices shown on the dashboard after a successful write.
const (
	msgPostCreated = "Blog post created successfully!"
	msgPostUpdated = "Blog post updated successfully!"
	msgPostDeleted = "Blog post deleted successfully!"
)

// Blog groups the author-only handlers: the dashboard and the post
// create, update and delete flows. Every route is behind RequireAuth.
type Blog struct {
	site
	posts      *store.PostStore
	categories *store.CategoryStore
	images     ImageStore
	now        func() time.Time
}

// NewBlog creates a new Blog handler group. images may be nil when object
// storage is not configured; the upload field is then hidden.
func NewBlog(renderer *render.Renderer, sessions *session.Store, nav NavCategories, posts *store.PostStore, categories *store.CategoryStore, images ImageStore) *Blog {
	return &Blog{
		site:       site{renderer: renderer, sessions: sessions, nav: nav},
		posts:      posts,
		categories: categories,
		images:     images,
		now:        time.Now,
	}
}

// Dashboard lists the author's own posts, drafts included, with totals.
func (b *Blog) Dashboard(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())

	req := pagination.New(r.URL.Query().Get("page"), 0, store.AuthorPageSize)
	page, err := b.posts.ByAuthor(sess.UserID, req)
	if err != nil {
		serverError(w, r, "list author posts failed", err)
		return
	}

	stats, err := b.posts.AuthorStats(sess.UserID)
	if err != nil {
		serverError(w, r, "author stats failed", err)
		return
	}

	catStats, err := b.posts.CategoryStats(sess.UserID)
	if err != nil {
		serverError(w, r, "category stats failed", err)
		return
	}

	catCount, err := b.categories.Count()
	if err != nil {
		serverError(w, r, "count categories failed", err)
		return
	}

	// The site-wide total is only shown to admins.
	allPosts := 0
	if sess.IsAdmin() {
		if allPosts, err = b.posts.CountAll(); err != nil {
			serverError(w, r, "count posts failed", err)
			return
		}
	}

	b.page(w, r, http.StatusOK, "dashboard", &render.PageData{
		Title: "Dashboard",
		Data: map[string]any{
			"Page":          page,
			"Stats":         stats,
			"CategoryStats": catStats,
			"CategoryCount": catCount,
			"IsStaff":       sess.IsAdmin(),
			"AllPostsCount": allPosts,
		},
	})
}

// CreatePage renders the blank post form.
func (b *Blog) CreatePage(w http.ResponseWriter, r *http.Request) {
	b.renderForm(w, r, nil, newPostForm(), FormErrors{})
}

// CreateSubmit validates and stores a new post owned by the current user.
func (b *Blog) CreateSubmit(w http.ResponseWriter, r *http.Request) {
	sess := middleware.SessionFromCtx(r.Context())
	if err := parseMultipart(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := parsePostForm(r)
	img, errs, err := b.validatePost(r, form, uuid.Nil)
	if err != nil {
		serverError(w, r, "validate post failed", err)
		return
	}
	if errs.Any() {
		b.renderForm(w, r, nil, form, errs)
		return
	}

	post := &models.Post{AuthorID: sess.UserID}
	form.Apply(post)

	if img != nil {
		key, err := img.save(r.Context(), b.images, b.now())
		if err != nil {
			serverError(w, r, "store featured image failed", err)
			return
		}
		post.FeaturedImage = key
	}

	created, err := b.posts.Create(post)
	if err != nil {
		b.discardImage(r.Context(), post.FeaturedImage)
		if b.writeConflict(err, errs) {
			b.renderForm(w, r, nil, form, errs)
			return
		}
		serverError(w, r, "create post failed", err)
		return
	}

	slog.Info("post created", "post_id", created.ID, "slug", created.Slug, "status", created.Status)
	b.flash(r, flashSuccess, msgPostCreated)
	http.Redirect(w, r, "/dashboard/", http.StatusSeeOther)
}

// UpdatePage renders the edit form for a post the current user owns.
func (b *Blog) UpdatePage(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	b.renderForm(w, r, post, postFormFrom(post), FormErrors{})
}

// UpdateSubmit validates and saves changes to an owned post. A new image
// replaces the old one, which is then removed from storage.
func (b *Blog) UpdateSubmit(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	if err := parseMultipart(r); err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}

	form := parsePostForm(r)
	img, errs, err := b.validatePost(r, form, post.ID)
	if err != nil {
		serverError(w, r, "validate post failed", err)
		return
	}
	if errs.Any() {
		b.renderForm(w, r, post, form, errs)
		return
	}

	original := *post
	oldImage := post.FeaturedImage
	form.Apply(post)

	if img != nil {
		key, err := img.save(r.Context(), b.images, b.now())
		if err != nil {
			serverError(w, r, "store featured image failed", err)
			return
		}
		post.FeaturedImage = key
	}

	if err := b.posts.Update(post); err != nil {
		if post.FeaturedImage != oldImage {
			b.discardImage(r.Context(), post.FeaturedImage)
		}
		if errors.Is(err, sql.ErrNoRows) {
			http.NotFound(w, r)
			return
		}
		if b.writeConflict(err, errs) {
			b.renderForm(w, r, &original, form, errs)
			return
		}
		serverError(w, r, "update post failed", err, "post_id", post.ID)
		return
	}

	if post.FeaturedImage != oldImage {
		b.discardImage(r.Context(), oldImage)
	}

	slog.Info("post updated", "post_id", post.ID, "slug", post.Slug, "status", post.Status)
	b.flash(r, flashSuccess, msgPostUpdated)
	http.Redirect(w, r, "/dashboard/", http.StatusSeeOther)
}

// DeletePage asks for confirmation before deleting an owned post.
func (b *Blog) DeletePage(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}
	b.page(w, r, http.StatusOK, "post_confirm_delete", &render.PageData{
		Title: "Delete " + post.Title,
		Data:  map[string]any{"Post": post},
	})
}

// DeleteSubmit removes an owned post and its featured image.
func (b *Blog) DeleteSubmit(w http.ResponseWriter, r *http.Request) {
	post, ok := b.ownedPost(w, r)
	if !ok {
		return
	}

	if err := b.posts.Delete(post.ID, post.AuthorID); err != nil {
		serverError(w, r, "delete post failed", err, "post_id", post.ID)
		return
	}
	b.discardImage(r.Context(), post.FeaturedImage)

	slog.Info("post deleted", "post_id", post.ID, "slug", post.Slug)
	b.flash(r, flashSuccess, msgPostDeleted)
	http.Redirect(w, r, "/dashboard/", http.StatusSeeOther)
}

// ownedPost loads the {slug} post if the current user owns it. Posts owned
// by someone else get the same 404 as missing ones.
func (b *Blog) ownedPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	sess := middleware.SessionFromCtx(r.Context())
	slugParam := chi.URLParam(r, "slug")

	post, err := b.posts.FindOwnedBySlug(slugParam, sess.UserID)
	if err != nil {
		serverError(w, r, "find owned post failed", err, "slug", slugParam)
		return nil, false
	}
	if post == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return post, true
}

// validatePost checks the form fields, the category reference, slug
// uniqueness and the optional image. exclude is the post being edited.
func (b *Blog) validatePost(r *http.Request, form PostForm, exclude uuid.UUID) (*uploadedImage, FormErrors, error) {
	errs := validateStruct(&form)

	if id := form.CategoryID(); id != nil && errs["category"] == "" {
		cat, err := b.categories.FindByID(*id)
		if err != nil {
			return nil, nil, err
		}
		if cat == nil {
			errs.Add("category", msgInvalidChoice)
		}
	}

	if form.Slug != "" && errs["slug"] == "" {
		taken, err := b.posts.SlugExists(form.Slug, exclude)
		if err != nil {
			return nil, nil, err
		}
		if taken {
			errs.Add("slug", msgSlugTaken)
		}
	}

	if b.images == nil || errs.Any() {
		return nil, errs, nil
	}

	img, msg, err := readFeaturedImage(r)
	if err != nil {
		return nil, nil, err
	}
	if msg != "" {
		errs.Add("featured_image", msg)
	}
	return img, errs, nil
}

// writeConflict maps store conflicts that slipped past validation (a
// concurrent insert, a category deleted meanwhile) onto form errors.
func (b *Blog) writeConflict(err error, errs FormErrors) bool {
	switch {
	case errors.Is(err, store.ErrSlugTaken):
		errs.Add("slug", msgSlugTaken)
		return true
	case errors.Is(err, store.ErrInvalidCategory):
		errs.Add("category", msgInvalidChoice)
		return true
	}
	return false
}

// discardImage removes an image from storage, logging failures.
func (b *Blog) discardImage(ctx context.Context, key string) {
	if key == "" || b.images == nil {
		return
	}
	if err := b.images.Delete(ctx, key); err != nil {
		slog.Warn("delete featured image failed", "error", err, "key", key)
	}
}

// renderForm shows the post form. Validation failures keep status 200 and
// the submitted values.
func (b *Blog) renderForm(w http.ResponseWriter, r *http.Request, post *models.Post, form PostForm, errs FormErrors) {
	heading, action := "Create New Blog Post", "/create/"
	if post != nil {
		heading, action = "Update Blog Post", "/update/"+post.Slug+"/"
	}

	b.page(w, r, http.StatusOK, "post_form", &render.PageData{
		Title: heading,
		Data: map[string]any{
			"Heading":        heading,
			"Action":         action,
			"Form":           form,
			"Errors":         errs,
			"Post":           post,
			"StorageEnabled": b.images != nil,
		},
	})
}
