// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers implements the HTTP handlers for the public blog, the
// author dashboard, authentication and category administration.
package handlers

import (
	"context"
	"log/slog"
	"net/http"

	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
)

// flashSuccess is the flash type the templates style as a confirmation.
const flashSuccess = "success"

// NavCategories supplies the category list shown in the site navigation.
// *cache.CategoryCache satisfies it.
type NavCategories interface {
	List(ctx context.Context) ([]models.Category, error)
	Invalidate(ctx context.Context)
}

// site holds what every handler group needs to render a page.
type site struct {
	renderer *render.Renderer
	sessions *session.Store
	nav      NavCategories
}

// page renders a template after filling the navigation categories and the
// pending flash notices.
func (s *site) page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData) {
	ctx := r.Context()
	if data == nil {
		data = &render.PageData{}
	}

	if data.Categories == nil && s.nav != nil {
		cats, err := s.nav.List(ctx)
		if err != nil {
			slog.Warn("load nav categories failed", "error", err)
		}
		data.Categories = cats
	}

	if sess := middleware.SessionFromCtx(ctx); sess != nil && s.sessions != nil {
		flashes, err := s.sessions.PopFlashes(ctx, r, sess)
		if err != nil {
			slog.Warn("pop flashes failed", "error", err)
		}
		data.Flashes = append(data.Flashes, flashes...)
	}

	s.renderer.PageStatus(w, r, status, name, data)
}

// flash queues a notice for the next page the user sees.
func (s *site) flash(r *http.Request, typ, msg string) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil || s.sessions == nil {
		return
	}
	if err := s.sessions.AddFlash(r.Context(), r, sess, typ, msg); err != nil {
		slog.Warn("add flash failed", "error", err)
	}
}

// serverError logs err and answers 500.
func serverError(w http.ResponseWriter, r *http.Request, msg string, err error, args ...any) {
	attrs := append([]any{"error", err, "request_id", middleware.RequestIDFromCtx(r.Context())}, args...)
	slog.Error(msg, attrs...)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
