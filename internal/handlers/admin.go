// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

const msgCategoryExists = "Category with this Name or Slug already exists."

// Admin groups the category administration handlers. Routes are behind
// RequireAdmin.
type Admin struct {
	site
	categories *store.CategoryStore
}

// NewAdmin creates a new Admin handler group.
func NewAdmin(renderer *render.Renderer, sessions *session.Store, nav NavCategories, categories *store.CategoryStore) *Admin {
	return &Admin{
		site:       site{renderer: renderer, sessions: sessions, nav: nav},
		categories: categories,
	}
}

// Categories lists every category with the add form.
func (a *Admin) Categories(w http.ResponseWriter, r *http.Request) {
	a.renderCategories(w, r, CategoryForm{}, FormErrors{})
}

// CategoryCreate validates and stores a new category.
func (a *Admin) CategoryCreate(w http.ResponseWriter, r *http.Request) {
	form := parseCategoryForm(r)
	errs := validateStruct(&form)
	if errs.Any() {
		a.renderCategories(w, r, form, errs)
		return
	}

	created, err := a.categories.Create(&models.Category{
		Name:        form.Name,
		Slug:        form.Slug,
		Description: form.Description,
	})
	if errors.Is(err, store.ErrCategoryExists) {
		errs.Add("name", msgCategoryExists)
		a.renderCategories(w, r, form, errs)
		return
	}
	if err != nil {
		serverError(w, r, "create category failed", err)
		return
	}

	a.nav.Invalidate(r.Context())
	slog.Info("category created", "category_id", created.ID, "slug", created.Slug)
	a.flash(r, flashSuccess, "Category \""+created.Name+"\" created.")
	http.Redirect(w, r, "/admin/categories/", http.StatusSeeOther)
}

// CategoryDelete removes a category. Its posts stay, uncategorized.
func (a *Admin) CategoryDelete(w http.ResponseWriter, r *http.Request) {
	slugParam := chi.URLParam(r, "slug")

	cat, err := a.categories.FindBySlug(slugParam)
	if err != nil {
		serverError(w, r, "find category failed", err, "slug", slugParam)
		return
	}
	if cat == nil {
		http.NotFound(w, r)
		return
	}

	if err := a.categories.Delete(cat.ID); err != nil {
		serverError(w, r, "delete category failed", err, "category_id", cat.ID)
		return
	}

	a.nav.Invalidate(r.Context())
	slog.Info("category deleted", "category_id", cat.ID, "slug", cat.Slug)
	a.flash(r, flashSuccess, "Category \""+cat.Name+"\" deleted.")
	http.Redirect(w, r, "/admin/categories/", http.StatusSeeOther)
}

// renderCategories reads the list straight from the store so the page is
// never stale, whatever the nav cache holds.
func (a *Admin) renderCategories(w http.ResponseWriter, r *http.Request, form CategoryForm, errs FormErrors) {
	cats, err := a.categories.List()
	if err != nil {
		serverError(w, r, "list categories failed", err)
		return
	}

	a.page(w, r, http.StatusOK, "categories_admin", &render.PageData{
		Title:      "Categories",
		Categories: cats,
		Data: map[string]any{
			"Form":   form,
			"Errors": errs,
		},
	})
}
