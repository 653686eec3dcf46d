package scan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/domain/entity"
)

func TestFetcher_DedupFirstWins(t *testing.T) {
	live := &fakeRetriever{name: "newsapi", docs: []entity.Document{
		newDoc("https://reuters.com/a", "Live A", "", "reuters.com"),
		newDoc("https://reuters.com/b", "Live B", "", "reuters.com"),
	}}
	archive := &fakeRetriever{name: "archive", docs: []entity.Document{
		newDoc("https://reuters.com/a", "Archived A", "", "reuters.com"),
		newDoc("https://ftc.gov/c", "Archived C", "", "ftc.gov"),
	}}
	f := &Fetcher{Providers: []Retriever{live, archive}}

	docs := f.Fetch(context.Background(), "Acme")

	require.Len(t, docs, 3)
	assert.Equal(t, "Live A", docs[0].Title)
	assert.Equal(t, "Live B", docs[1].Title)
	assert.Equal(t, "Archived C", docs[2].Title)
}

func TestFetcher_FixtureOnlyWhenNoLiveProviderAnswered(t *testing.T) {
	fixtureDocs := []entity.Document{newDoc("https://nhtsa.gov/w", "NHTSA opens investigation into Waymo", "", "nhtsa.gov")}

	t.Run("all live failed", func(t *testing.T) {
		fixture := &fakeRetriever{name: "fixture", docs: fixtureDocs}
		f := &Fetcher{
			Providers: []Retriever{&fakeRetriever{name: "newsapi", err: errors.New("HTTP 401")}},
			Fixture:   fixture,
		}
		docs := f.Fetch(context.Background(), "Waymo")
		assert.Len(t, docs, 1)
		assert.EqualValues(t, 1, fixture.calls.Load())
	})

	t.Run("none configured", func(t *testing.T) {
		f := &Fetcher{Fixture: &fakeRetriever{name: "fixture", docs: fixtureDocs}}
		assert.Len(t, f.Fetch(context.Background(), "Waymo"), 1)
	})

	t.Run("live answered with nothing", func(t *testing.T) {
		fixture := &fakeRetriever{name: "fixture", docs: fixtureDocs}
		f := &Fetcher{
			Providers: []Retriever{&fakeRetriever{name: "newsapi"}},
			Fixture:   fixture,
		}
		assert.Empty(t, f.Fetch(context.Background(), "Waymo"))
		assert.Zero(t, fixture.calls.Load())
	})
}

func TestFetcher_TimeoutIsProviderFailure(t *testing.T) {
	slow := &fakeRetriever{name: "newsapi", delay: 5 * time.Second, docs: []entity.Document{newDoc("https://a.com/1", "x", "", "a.com")}}
	fast := &fakeRetriever{name: "archive", docs: []entity.Document{newDoc("https://b.com/1", "y", "", "b.com")}}
	f := &Fetcher{Providers: []Retriever{slow, fast}, Timeout: 50 * time.Millisecond}

	start := time.Now()
	docs := f.Fetch(context.Background(), "Acme")

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, docs, 1)
	assert.Equal(t, "https://b.com/1", docs[0].ID)
}

func TestFetcher_NothingConfigured(t *testing.T) {
	docs := (&Fetcher{}).Fetch(context.Background(), "Acme")
	assert.NotNil(t, docs)
	assert.Empty(t, docs)
}

func TestDedupByURL(t *testing.T) {
	docs := []entity.Document{
		{ID: "https://a.com/1", Title: "first"},
		{ID: "", Title: "no id"},
		{ID: "https://a.com/1", Title: "second"},
		{ID: "https://a.com/2", Title: "third"},
	}

	out := DedupByURL(docs)

	require.Len(t, out, 2)
	assert.Equal(t, "first", out[0].Title)
	assert.Equal(t, out, DedupByURL(out))
}

func TestPrioritize(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC) }
	docs := []entity.Document{
		{ID: "1", SourceDomain: "blog.example.com", PublishedAt: day(20)},
		{ID: "2", SourceDomain: "reuters.com", PublishedAt: day(1)},
		{ID: "3", SourceDomain: "sec.gov", PublishedAt: day(5)},
		{ID: "4", SourceDomain: "reuters.com", PublishedAt: day(9)},
		{ID: "5", SourceDomain: "reuters.com", PublishedAt: day(9)},
	}
	cat := fakeCatalogue{tiers: map[string]int{"sec.gov": 1, "reuters.com": 2}}

	out := Prioritize(docs, cat.Tier)

	ids := make([]string, 0, len(out))
	for _, d := range out {
		ids = append(ids, d.ID)
	}
	assert.Equal(t, []string{"3", "4", "5", "2", "1"}, ids)
	assert.Equal(t, "1", docs[0].ID, "input must not be reordered")
}
