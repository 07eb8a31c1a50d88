// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package router sets up all HTTP routes and middleware chains for
// Blogpress. Routes are split into public pages, the login flow, the author
// area and category administration, each with its own middleware stack.
package router

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/handlers"
	"blogpress/internal/middleware"
	"blogpress/internal/session"
	"blogpress/web"
)

// maxBodyBytes bounds every request body. The post form with a featured
// image is the largest legitimate request.
const maxBodyBytes = 12 << 20

// Config carries the dependencies New wires into the route tree.
type Config struct {
	Sessions     *session.Store
	LoginLimiter *middleware.RateLimiter
	SecureCookie bool

	Public *handlers.Public
	Blog   *handlers.Blog
	Auth   *handlers.Auth
	Admin  *handlers.Admin
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up.
func New(cfg Config) chi.Router {
	r := chi.NewRouter()

	// Global middleware, applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.MaxBodySize(maxBodyBytes))

	// Health check and static assets: no session, no CSRF.
	r.Get("/health", healthHandler)
	r.Handle("/static/*", staticHandler())

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewCSRF(cfg.SecureCookie))
		r.Use(middleware.LoadSession(cfg.Sessions))

		// Public blog.
		r.Get("/", cfg.Public.Home)
		r.Get("/post/{slug}/", cfg.Public.PostDetail)
		r.Get("/category/{slug}/", cfg.Public.Category)

		// Login, rate limited on POST.
		r.Group(func(r chi.Router) {
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Middleware)
			}
			r.Get(middleware.LoginPath, cfg.Auth.LoginPage)
			r.Post(middleware.LoginPath, cfg.Auth.LoginSubmit)
		})
		r.Post("/logout/", cfg.Auth.Logout)

		// Second login step: needs the password step, not a completed 2FA.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			if cfg.LoginLimiter != nil {
				r.Use(cfg.LoginLimiter.Middleware)
			}
			r.Get(middleware.TwoFAPath, cfg.Auth.TwoFAVerifyPage)
			r.Post(middleware.TwoFAPath, cfg.Auth.TwoFAVerifySubmit)
		})

		// Author area.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/dashboard/", cfg.Blog.Dashboard)

			r.Get("/create/", cfg.Blog.CreatePage)
			r.Post("/create/", cfg.Blog.CreateSubmit)
			r.Get("/update/{slug}/", cfg.Blog.UpdatePage)
			r.Post("/update/{slug}/", cfg.Blog.UpdateSubmit)
			r.Get("/delete/{slug}/", cfg.Blog.DeletePage)
			r.Post("/delete/{slug}/", cfg.Blog.DeleteSubmit)

			r.Get("/account/2fa/", cfg.Auth.TwoFASetupPage)
			r.Post("/account/2fa/", cfg.Auth.TwoFASetupSubmit)

			// Category administration, admins only.
			r.Route("/admin/categories", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)
				r.Get("/", cfg.Admin.Categories)
				r.Post("/", cfg.Admin.CategoryCreate)
				r.Post("/{slug}/delete/", cfg.Admin.CategoryDelete)
			})
		})
	})

	return r
}

// staticHandler serves the embedded web/static tree under /static/.
func staticHandler() http.Handler {
	sub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("router: static assets missing: " + err.Error())
	}
	return http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
