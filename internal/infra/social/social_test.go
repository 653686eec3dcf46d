package social

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"riskscan/internal/domain/entity"
	"riskscan/internal/resilience/retry"
)

const tagFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>#waymo</title>
  <link>https://mastodon.example/tags/waymo</link>
  <item>
    <guid>https://mastodon.example/@alice/111</guid>
    <link>https://mastodon.example/@alice/111</link>
    <pubDate>Wed, 14 May 2025 10:00:00 +0000</pubDate>
    <description>&lt;p&gt;Another &lt;a href="https://mastodon.example/tags/waymo"&gt;#Waymo&lt;/a&gt; car blocked the road. Unsafe and dangerous.&lt;/p&gt;</description>
  </item>
  <item>
    <guid>https://mastodon.example/@bob@other.example/222</guid>
    <link>https://mastodon.example/@bob@other.example/222</link>
    <pubDate>Tue, 13 May 2025 08:00:00 +0000</pubDate>
    <description>&lt;p&gt;Took my first #Waymo ride, amazing and great!&lt;/p&gt;</description>
  </item>
  <item>
    <guid>https://mastodon.example/@carol/333</guid>
    <link>https://mastodon.example/@carol/333</link>
    <description></description>
  </item>
</channel>
</rss>`

func TestMastodon_Signals(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/tags/waymo.rss", r.URL.Path)
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(tagFeed))
	}))
	defer srv.Close()

	signals, err := NewMastodon(srv.URL+"/", time.Second).Signals(context.Background(), "Waymo")

	require.NoError(t, err)
	require.Len(t, signals, 2, "posts without text are skipped")

	assert.Equal(t, "@alice@mastodon.example", signals[0].Handle)
	assert.Equal(t, "alice", signals[0].Name)
	assert.Equal(t, "Another #Waymo car blocked the road. Unsafe and dangerous.", signals[0].Content)
	assert.Equal(t, entity.SentimentNegative, signals[0].Sentiment)
	assert.Equal(t, time.Date(2025, 5, 14, 10, 0, 0, 0, time.UTC), signals[0].PostedAt)

	assert.Equal(t, "@bob@other.example", signals[1].Handle)
	assert.Equal(t, entity.SentimentPositive, signals[1].Sentiment)
}

func TestMastodon_ErrorStatusIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewMastodon(srv.URL, time.Second).Signals(context.Background(), "Waymo")

	var httpErr *retry.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
	assert.EqualValues(t, retry.RetrievalConfig().MaxAttempts, hits.Load())
}

func TestMastodon_EmptyHashtag(t *testing.T) {
	signals, err := NewMastodon("http://unused.invalid", time.Second).Signals(context.Background(), "!!!")
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestHashtag(t *testing.T) {
	assert.Equal(t, "openai", Hashtag("OpenAI"))
	assert.Equal(t, "elonmusk", Hashtag("Elon Musk"))
	assert.Equal(t, "att", Hashtag("AT&T"))
	assert.Equal(t, "société", Hashtag("Société"))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want entity.Sentiment
	}{
		{"This is a scam and a fraud", entity.SentimentNegative},
		{"Love the new release, great work", entity.SentimentPositive},
		{"Great product but the recall was awful and unsafe", entity.SentimentNegative},
		{"Shipping update for Q3", entity.SentimentNeutral},
		{"", entity.SentimentNeutral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.text), tt.text)
	}
}

func TestFixture_Signals(t *testing.T) {
	f, err := ParseFixture([]byte(`
- match: [waymo]
  documents:
    - url: https://example.com/ignored
  social:
    - name: Alice
      handle: "@alice@mastodon.example"
      content: Robotaxi blocked an ambulance, dangerous
      url: https://mastodon.example/@alice/1
      posted: 2025-05-14T10:00:00Z
`))
	require.NoError(t, err)

	signals, err := f.Signals(context.Background(), "Waymo One")
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SentimentNegative, signals[0].Sentiment)
	assert.Equal(t, 2025, signals[0].PostedAt.Year())

	signals, err = f.Signals(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Empty(t, signals)
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 300)
	assert.Len(t, []rune(truncate(long, maxPostLength)), maxPostLength)
	assert.Equal(t, "short", truncate("short", maxPostLength))
}
