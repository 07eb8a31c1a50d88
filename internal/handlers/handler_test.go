// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// handler_test.go provides shared test infrastructure for handler integration
// tests. Tests are skipped when PostgreSQL or Valkey are unavailable.
package handlers

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"

	"blogpress/internal/cache"
	"blogpress/internal/database"
	"blogpress/internal/middleware"
	"blogpress/internal/models"
	"blogpress/internal/render"
	"blogpress/internal/session"
	"blogpress/internal/store"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDB opens a connection to the test PostgreSQL and runs migrations.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "blogpress")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "blogpress")
	dsn := "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping: cannot open DB: %v", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrate: %v", err)
	}
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// testValkeyClient returns a Redis client for handler tests on DB 15.
func testValkeyClient(t *testing.T) *redis.Client {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:     envOr("VALKEY_HOST", "localhost") + ":" + envOr("VALKEY_PORT", "6379"),
		Password: os.Getenv("VALKEY_PASSWORD"),
		DB:       15,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		t.Skipf("skipping: Valkey not reachable: %v", err)
	}

	t.Cleanup(func() {
		for _, pattern := range []string{"session:*", "nav:*"} {
			keys, _ := client.Keys(ctx, pattern).Result()
			if len(keys) > 0 {
				client.Del(ctx, keys...)
			}
		}
		client.Close()
	})

	return client
}

// memImages is an in-memory ImageStore.
type memImages struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}}
}

func (m *memImages) Upload(_ context.Context, key, _ string, body io.Reader, _ int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = data
	return nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memImages) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

// testEnv holds all dependencies for handler integration tests.
type testEnv struct {
	DB         *sql.DB
	Valkey     *redis.Client
	Renderer   *render.Renderer
	Sessions   *session.Store
	Posts      *store.PostStore
	Categories *store.CategoryStore
	Users      *store.UserStore
	Nav        *cache.CategoryCache
	Images     *memImages
	Public     *Public
	Blog       *Blog
	Auth       *Auth
	Admin      *Admin
}

// newTestEnv creates a complete test environment with all handler dependencies.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := testDB(t)
	vk := testValkeyClient(t)

	renderer, err := render.New(true, nil)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}

	sessions := session.NewStore(vk, false)
	posts := store.NewPostStore(db)
	categories := store.NewCategoryStore(db)
	users := store.NewUserStore(db)
	nav := cache.NewCategoryCache(vk, time.Minute, categories.List)
	nav.Invalidate(context.Background())
	images := newMemImages()

	return &testEnv{
		DB:         db,
		Valkey:     vk,
		Renderer:   renderer,
		Sessions:   sessions,
		Posts:      posts,
		Categories: categories,
		Users:      users,
		Nav:        nav,
		Images:     images,
		Public:     NewPublic(renderer, sessions, nav, posts, categories),
		Blog:       NewBlog(renderer, sessions, nav, posts, categories, images),
		Auth:       NewAuth(renderer, sessions, nav, users),
		Admin:      NewAdmin(renderer, sessions, nav, categories),
	}
}

// uniq returns a short random suffix so parallel test runs don't collide.
func uniq(prefix string) string {
	return prefix + "-" + uuid.NewString()[:8]
}

// createUser adds a throwaway user removed when the test ends.
func (env *testEnv) createUser(t *testing.T, password string, role models.Role) *models.User {
	t.Helper()
	email := uniq("user") + "@handler-test.local"
	u, err := env.Users.Create(email, password, "Handler "+string(role), role)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM users WHERE email = $1", email) })
	return u
}

// createCategory adds a throwaway category removed when the test ends.
func (env *testEnv) createCategory(t *testing.T) *models.Category {
	t.Helper()
	slug := uniq("hcat")
	c, err := env.Categories.Create(&models.Category{Name: "Cat " + slug, Slug: slug})
	if err != nil {
		t.Fatalf("create category: %v", err)
	}
	t.Cleanup(func() { env.DB.Exec("DELETE FROM categories WHERE slug = $1", slug) })
	return c
}

// createPost inserts a post for author, optionally in a category.
func (env *testEnv) createPost(t *testing.T, author *models.User, cat *models.Category, status models.PostStatus) *models.Post {
	t.Helper()
	p := &models.Post{
		Title:    "Post " + uuid.NewString()[:8],
		Slug:     uniq("hpost"),
		AuthorID: author.ID,
		Content:  "Some **markdown** body",
		Status:   status,
	}
	if cat != nil {
		p.CategoryID = &cat.ID
	}
	created, err := env.Posts.Create(p)
	if err != nil {
		t.Fatalf("create post: %v", err)
	}
	return created
}

// login opens a real session for u and returns its data and cookie.
func (env *testEnv) login(t *testing.T, u *models.User) (*session.Data, *http.Cookie) {
	t.Helper()
	data := &session.Data{
		UserID:      u.ID,
		Email:       u.Email,
		DisplayName: u.DisplayName,
		Role:        string(u.Role),
		TwoFADone:   true,
	}
	rec := httptest.NewRecorder()
	if _, err := env.Sessions.Create(context.Background(), rec, data); err != nil {
		t.Fatalf("session create: %v", err)
	}
	for _, c := range rec.Result().Cookies() {
		if c.Name == session.CookieName {
			return data, c
		}
	}
	t.Fatal("session cookie not set")
	return nil, nil
}

// ctxWithSession adds session data to a context using the middleware key.
func ctxWithSession(ctx context.Context, data *session.Data) context.Context {
	return context.WithValue(ctx, middleware.SessionKey, data)
}

// withChiURLParam adds a chi URL parameter to a request.
func withChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// authed attaches the session and its cookie to r.
func authed(r *http.Request, sess *session.Data, cookie *http.Cookie) *http.Request {
	if cookie != nil {
		r.AddCookie(cookie)
	}
	return r.WithContext(ctxWithSession(r.Context(), sess))
}

// formRequest builds an urlencoded POST.
func formRequest(target string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// multipartRequest builds a multipart POST with an optional featured image.
func multipartRequest(t *testing.T, target string, form url.Values, filename string, file []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for key, vals := range form {
		for _, v := range vals {
			if err := mw.WriteField(key, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	if file != nil {
		fw, err := mw.CreateFormFile("featured_image", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		fw.Write(file)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// testPNG encodes a small solid image.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: 200, G: 60, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}
