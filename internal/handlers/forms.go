// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"blogpress/internal/imaging"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/slug"
)

const (
	// maxImageBytes caps a featured image upload.
	maxImageBytes = 10 << 20

	// maxFormBytes is the request body limit for the post form, upload included.
	maxFormBytes = maxImageBytes + 1<<20

	// maxFormMemory is how much of a multipart body is kept in memory. It
	// matches the CSRF middleware, which parses the body first.
	maxFormMemory = middleware.MultipartMemory
)

// ImageStore is the object storage used for featured images.
// *storage.Client satisfies it.
type ImageStore interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) error
	Delete(ctx context.Context, key string) error
}

// PostForm holds the client-settable post fields exactly as submitted.
// Author, timestamps and views are never read from the request.
type PostForm struct {
	Title    string `form:"title" validate:"required,max=200"`
	Slug     string `form:"slug" validate:"required,max=200,slug"`
	Category string `form:"category" validate:"omitempty,uuid"`
	Content  string `form:"content" validate:"required"`
	Excerpt  string `form:"excerpt" validate:"max=300"`
	Status   string `form:"status" validate:"required,oneof=draft published"`
}

// newPostForm returns the blank form shown on create.
func newPostForm() PostForm {
	return PostForm{Status: string(models.PostStatusDraft)}
}

// postFormFrom pre-fills the form from an existing post.
func postFormFrom(p *models.Post) PostForm {
	f := PostForm{
		Title:   p.Title,
		Slug:    p.Slug,
		Content: p.Content,
		Excerpt: p.Excerpt,
		Status:  string(p.Status),
	}
	if p.CategoryID != nil {
		f.Category = p.CategoryID.String()
	}
	return f
}

// parsePostForm reads the submitted fields, trimming surrounding
// whitespace. An empty slug is derived from the title; a title with no
// usable characters leaves it empty and validation reports it.
func parsePostForm(r *http.Request) PostForm {
	f := PostForm{
		Title:    strings.TrimSpace(r.PostFormValue("title")),
		Slug:     strings.TrimSpace(r.PostFormValue("slug")),
		Category: strings.TrimSpace(r.PostFormValue("category")),
		Content:  strings.TrimSpace(r.PostFormValue("content")),
		Excerpt:  strings.TrimSpace(r.PostFormValue("excerpt")),
		Status:   strings.TrimSpace(r.PostFormValue("status")),
	}
	if f.Slug == "" {
		f.Slug = slug.Generate(f.Title)
	}
	return f
}

// CategoryID returns the selected category, or nil for none. Call only
// after validation has accepted the value.
func (f PostForm) CategoryID() *uuid.UUID {
	if f.Category == "" {
		return nil
	}
	id, err := uuid.Parse(f.Category)
	if err != nil {
		return nil
	}
	return &id
}

// Apply copies the validated fields onto p. Lifecycle timestamps are left
// to the store.
func (f PostForm) Apply(p *models.Post) {
	p.Title = f.Title
	p.Slug = f.Slug
	p.CategoryID = f.CategoryID()
	p.Content = f.Content
	p.Excerpt = f.Excerpt
	p.Status = models.PostStatus(f.Status)
}

// CategoryForm is the admin form for a new category.
type CategoryForm struct {
	Name        string `form:"name" validate:"required,max=100"`
	Slug        string `form:"slug" validate:"required,max=100,slug"`
	Description string `form:"description"`
}

func parseCategoryForm(r *http.Request) CategoryForm {
	f := CategoryForm{
		Name:        strings.TrimSpace(r.PostFormValue("name")),
		Slug:        strings.TrimSpace(r.PostFormValue("slug")),
		Description: strings.TrimSpace(r.PostFormValue("description")),
	}
	if f.Slug == "" {
		f.Slug = slug.Generate(f.Name)
	}
	return f
}

// parseMultipart parses a post form body. Plain urlencoded submissions are
// accepted too; they simply carry no file.
func parseMultipart(r *http.Request) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxFormBytes)
	err := r.ParseMultipartForm(maxFormMemory)
	if err != nil && !errors.Is(err, http.ErrNotMultipart) {
		return err
	}
	return nil
}

// uploadedImage is a featured image that passed decoding and is ready to
// be stored.
type uploadedImage struct {
	*imaging.Processed
}

// readFeaturedImage returns the processed upload from the featured_image
// field, nil when no file was sent, or a field message when the file is
// unusable.
func readFeaturedImage(r *http.Request) (*uploadedImage, string, error) {
	file, header, err := r.FormFile("featured_image")
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, "", nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("read featured image: %w", err)
	}
	defer file.Close()

	if header.Size > maxImageBytes {
		return nil, msgImageTooLarge, nil
	}

	data, err := readLimited(file, maxImageBytes)
	if err != nil {
		return nil, "", fmt.Errorf("read featured image: %w", err)
	}
	if data == nil {
		return nil, msgImageTooLarge, nil
	}
	if len(data) == 0 {
		return nil, "", nil
	}

	processed, err := imaging.Process(data, imaging.MaxWidth)
	if errors.Is(err, imaging.ErrNotImage) {
		return nil, msgInvalidImage, nil
	}
	if err != nil {
		return nil, "", fmt.Errorf("process featured image: %w", err)
	}
	return &uploadedImage{processed}, "", nil
}

// readLimited reads at most limit bytes. It returns nil data when the
// source holds more than limit.
func readLimited(f multipart.File, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(f, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, nil
	}
	if data == nil {
		data = []byte{}
	}
	return data, nil
}

// imageKey builds the storage key for a new featured image.
func imageKey(now time.Time, ext string) string {
	return fmt.Sprintf("posts/%d/%02d/%s%s", now.Year(), now.Month(), uuid.NewString(), ext)
}

// save uploads img under a fresh key and returns it.
func (img *uploadedImage) save(ctx context.Context, images ImageStore, now time.Time) (string, error) {
	key := imageKey(now, img.Ext)
	if err := images.Upload(ctx, key, img.ContentType, bytes.NewReader(img.Data), int64(len(img.Data))); err != nil {
		return "", fmt.Errorf("upload featured image: %w", err)
	}
	return key, nil
}
