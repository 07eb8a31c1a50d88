package store

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blogpress/internal/models"
	"blogpress/internal/pagination"
)

// steppingClock returns a clock that advances by one second per call, so
// posts created in sequence get distinct, ordered timestamps.
func steppingClock(start time.Time) func() time.Time {
	cur := start
	return func() time.Time {
		cur = cur.Add(time.Second)
		return cur
	}
}

func TestPostStoreCreateDraft(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	p := testPost(t, s, author, nil, models.PostStatusDraft)

	assert.NotEqual(t, uuid.Nil, p.ID)
	assert.Equal(t, models.PostStatusDraft, p.Status)
	assert.Nil(t, p.PublishedAt)
	assert.Equal(t, int64(0), p.Views)
	assert.Equal(t, "Store Author", p.AuthorName)
}

func TestPostStoreDefaultsToDraft(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	created, err := s.Create(&models.Post{Title: "No status", Slug: uniq("test-post"), AuthorID: author.ID, Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, models.PostStatusDraft, created.Status)
}

func TestPostStorePublishedAtSetOnce(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	s.now = steppingClock(time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC))
	author := testAuthor(t, db)

	p := testPost(t, s, author, nil, models.PostStatusDraft)
	require.Nil(t, p.PublishedAt)

	// First transition to published sets the timestamp.
	p.Status = models.PostStatusPublished
	require.NoError(t, s.Update(p))

	first, err := s.FindOwnedBySlug(p.Slug, author.ID)
	require.NoError(t, err)
	require.NotNil(t, first.PublishedAt)
	publishedAt := *first.PublishedAt

	// Further edits keep it.
	first.Title = "Edited title"
	require.NoError(t, s.Update(first))

	// A stale copy that never saw published_at cannot move it either.
	stale := *p
	stale.PublishedAt = nil
	stale.Title = "Stale edit"
	require.NoError(t, s.Update(&stale))

	// Unpublish and publish again.
	first.Status = models.PostStatusDraft
	require.NoError(t, s.Update(first))
	first.Status = models.PostStatusPublished
	require.NoError(t, s.Update(first))

	final, err := s.FindOwnedBySlug(p.Slug, author.ID)
	require.NoError(t, err)
	require.NotNil(t, final.PublishedAt)
	assert.True(t, publishedAt.Equal(*final.PublishedAt), "published_at moved from %v to %v", publishedAt, *final.PublishedAt)
	assert.True(t, final.UpdatedAt.After(publishedAt))
}

func TestPostStoreCreatePublished(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	p := testPost(t, s, author, nil, models.PostStatusPublished)
	require.NotNil(t, p.PublishedAt)
	assert.True(t, p.PublishedAt.Equal(p.CreatedAt))
}

func TestPostStoreDuplicateSlug(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	p := testPost(t, s, author, nil, models.PostStatusDraft)

	_, err := s.Create(&models.Post{Title: "Again", Slug: p.Slug, AuthorID: author.ID, Content: "x"})
	assert.True(t, errors.Is(err, ErrSlugTaken), "got %v", err)

	other := testPost(t, s, author, nil, models.PostStatusDraft)
	other.Slug = p.Slug
	assert.True(t, errors.Is(s.Update(other), ErrSlugTaken))

	exists, err := s.SlugExists(p.Slug, uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = s.SlugExists(p.Slug, p.ID)
	require.NoError(t, err)
	assert.False(t, exists, "a post's own slug is not a conflict")
}

func TestPostStoreInvalidCategory(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	missing := uuid.New()
	_, err := s.Create(&models.Post{Title: "T", Slug: uniq("test-post"), AuthorID: author.ID, Content: "x", CategoryID: &missing})
	assert.True(t, errors.Is(err, ErrInvalidCategory), "got %v", err)
}

func TestPostStoreOwnership(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	owner := testAuthor(t, db)
	intruder := testAuthor(t, db)

	p := testPost(t, s, owner, nil, models.PostStatusPublished)

	found, err := s.FindOwnedBySlug(p.Slug, intruder.ID)
	require.NoError(t, err)
	assert.Nil(t, found, "another author's post must not be returned")

	found, err = s.FindOwnedBySlug(p.Slug, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, found)

	// Writes scoped to the wrong author touch nothing.
	hijack := *found
	hijack.AuthorID = intruder.ID
	hijack.Title = "Hijacked"
	assert.Error(t, s.Update(&hijack))
	require.NoError(t, s.Delete(found.ID, intruder.ID))

	still, err := s.FindOwnedBySlug(p.Slug, owner.ID)
	require.NoError(t, err)
	require.NotNil(t, still)
	assert.Equal(t, p.Title, still.Title)

	require.NoError(t, s.Delete(found.ID, owner.ID))
	gone, err := s.FindOwnedBySlug(p.Slug, owner.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestPostStoreFindPublishedBySlug(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	draft := testPost(t, s, author, nil, models.PostStatusDraft)
	pub := testPost(t, s, author, nil, models.PostStatusPublished)

	got, err := s.FindPublishedBySlug(draft.Slug)
	require.NoError(t, err)
	assert.Nil(t, got, "drafts are not public")

	got, err = s.FindPublishedBySlug("no-such-post-" + uuid.NewString())
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = s.FindPublishedBySlug(pub.Slug)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, pub.ID, got.ID)
}

func TestPostStoreIncrementViews(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	p := testPost(t, s, author, nil, models.PostStatusPublished)

	for i := 1; i <= 5; i++ {
		views, err := s.IncrementViews(p.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(i), views)
	}

	draft := testPost(t, s, author, nil, models.PostStatusDraft)
	views, err := s.IncrementViews(draft.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), views, "drafts are never counted")
}

func TestPostStoreByCategoryPagination(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	s.now = steppingClock(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC))
	author := testAuthor(t, db)
	cat := testCategory(t, db)

	for i := 0; i < 6; i++ {
		testPost(t, s, author, cat, models.PostStatusPublished)
	}
	testPost(t, s, author, cat, models.PostStatusDraft)

	page, err := s.ByCategory(cat.ID, pagination.Paginate{Page: 1, Limit: 6})
	require.NoError(t, err)
	assert.Len(t, page.Items, 6)
	assert.Equal(t, int64(6), page.Total)
	assert.Equal(t, 1, page.TotalPages)
	assert.False(t, page.HasNext)

	for i := 1; i < len(page.Items); i++ {
		assert.False(t, page.Items[i-1].PublishedAt.Before(*page.Items[i].PublishedAt), "newest first")
	}

	clamped, err := s.ByCategory(cat.ID, pagination.Paginate{Page: 999, Limit: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, clamped.Number)
	assert.Len(t, clamped.Items, 6)

	// Default page size kicks in for a zero limit.
	def, err := s.ByCategory(cat.ID, pagination.Paginate{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, CategoryPageSize, def.PageSize)

	testPost(t, s, author, cat, models.PostStatusPublished)
	second, err := s.ByCategory(cat.ID, pagination.Paginate{Page: 2, Limit: 6})
	require.NoError(t, err)
	assert.Len(t, second.Items, 1)
	assert.True(t, second.HasPrevious)
}

func TestPostStoreByCategoryEmpty(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	cat := testCategory(t, db)

	page, err := s.ByCategory(cat.ID, pagination.Paginate{Page: 3, Limit: 6})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Number)
	assert.Empty(t, page.Items)
}

func TestPostStoreByAuthor(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	s.now = steppingClock(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	author := testAuthor(t, db)
	other := testAuthor(t, db)

	draft := testPost(t, s, author, nil, models.PostStatusDraft)
	pub := testPost(t, s, author, nil, models.PostStatusPublished)
	testPost(t, s, other, nil, models.PostStatusPublished)

	page, err := s.ByAuthor(author.ID, pagination.Paginate{Page: 1})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, AuthorPageSize, page.PageSize)
	assert.Equal(t, pub.ID, page.Items[0].ID, "newest created first")
	assert.Equal(t, draft.ID, page.Items[1].ID, "drafts are listed for the owner")
}

func TestPostStoreStats(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)
	cat := testCategory(t, db)

	pub := testPost(t, s, author, cat, models.PostStatusPublished)
	testPost(t, s, author, cat, models.PostStatusDraft)
	testPost(t, s, author, nil, models.PostStatusDraft)

	for i := 0; i < 3; i++ {
		_, err := s.IncrementViews(pub.ID)
		require.NoError(t, err)
	}

	st, err := s.AuthorStats(author.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AuthorStats{Total: 3, Published: 1, Drafts: 2, TotalViews: 3}, *st)

	stats, err := s.CategoryStats(author.ID)
	require.NoError(t, err)

	var found bool
	for _, cs := range stats {
		if cs.Category.ID == cat.ID {
			found = true
			assert.Equal(t, 2, cs.Total)
			assert.Equal(t, 1, cs.Published)
		}
	}
	assert.True(t, found, "every category appears in the stats")

	total, err := s.CountAll()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, total, 3)
}

func TestPostStoreRelated(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)
	cat := testCategory(t, db)

	anchor := testPost(t, s, author, cat, models.PostStatusPublished)
	for i := 0; i < 4; i++ {
		testPost(t, s, author, cat, models.PostStatusPublished)
	}
	testPost(t, s, author, cat, models.PostStatusDraft)

	related, err := s.Related(anchor, 3)
	require.NoError(t, err)
	assert.Len(t, related, 3)
	for _, r := range related {
		assert.NotEqual(t, anchor.ID, r.ID)
		assert.Equal(t, models.PostStatusPublished, r.Status)
	}

	loose := testPost(t, s, author, nil, models.PostStatusPublished)
	related, err = s.Related(loose, 3)
	require.NoError(t, err)
	assert.Empty(t, related)
}

func TestPostStoreHomeSections(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)
	busy := testCategory(t, db)
	empty := testCategory(t, db)

	for i := 0; i < 5; i++ {
		testPost(t, s, author, busy, models.PostStatusPublished)
	}
	testPost(t, s, author, empty, models.PostStatusDraft)

	sections, err := s.HomeSections(3)
	require.NoError(t, err)

	var busySection *models.CategorySection
	for i := range sections {
		assert.NotEqual(t, empty.ID, sections[i].Category.ID, "categories without published posts are omitted")
		assert.LessOrEqual(t, len(sections[i].Posts), 3)
		if sections[i].Category.ID == busy.ID {
			busySection = &sections[i]
		}
	}
	require.NotNil(t, busySection)
	assert.Len(t, busySection.Posts, 3)
	assert.Equal(t, busy.Slug, busySection.Posts[0].CategorySlug)
}

func TestPostStoreFeaturedAndLatest(t *testing.T) {
	db := testDB(t)
	s := NewPostStore(db)
	author := testAuthor(t, db)

	for i := 0; i < 7; i++ {
		testPost(t, s, author, nil, models.PostStatusPublished)
	}

	featured, err := s.Featured(3)
	require.NoError(t, err)
	latest, err := s.Latest(6)
	require.NoError(t, err)

	assert.Len(t, featured, 3)
	assert.Len(t, latest, 6)

	for _, list := range [][]models.Post{featured, latest} {
		for i := 1; i < len(list); i++ {
			assert.Equal(t, models.PostStatusPublished, list[i].Status)
			assert.False(t, list[i-1].PublishedAt.Before(*list[i].PublishedAt))
		}
	}
}
