package polymarket

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/predictrisk/engine/internal/domain"
)

func TestNormalizeProbability(t *testing.T) {
	cases := []struct {
		in   float64
		want float64
	}{
		{0.42, 0.42},
		{42, 0.42},
		{-5, 0},
		{1.0, 1.0},
		{1.01, 1.01},
		{0, 0},
		{100, 1.0},
	}
	for _, tc := range cases {
		assert.InDelta(t, tc.want, NormalizeProbability(tc.in), 1e-9, "input %v", tc.in)
	}
}

func TestParseMarketURL(t *testing.T) {
	cases := []struct {
		in   string
		want domain.MarketRef
	}{
		{
			"https://polymarket.com/event/us-election-2024/will-x-win",
			domain.MarketRef{EventSlug: "us-election-2024", MarketSlug: "will-x-win"},
		},
		{
			"https://polymarket.com/event/us-election-2024",
			domain.MarketRef{EventSlug: "us-election-2024"},
		},
		{
			"https://polymarket.com/market/will-x-win",
			domain.MarketRef{MarketSlug: "will-x-win"},
		},
		{
			"https://example.com/foo/bar",
			domain.MarketRef{EventSlug: "foo", MarketSlug: "bar"},
		},
		{
			"https://polymarket.com/",
			domain.MarketRef{},
		},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, ParseMarketURL(tc.in), "input %s", tc.in)
	}
}

func TestNormalizeEventSlug(t *testing.T) {
	assert.Equal(t, "us-election", NormalizeEventSlug("us-election-2024"))
	assert.Equal(t, "no-suffix", NormalizeEventSlug("no-suffix"))
}

func TestQuoteMapping(t *testing.T) {
	raw := `{
		"question": "Will it rain?",
		"slug": "will-it-rain",
		"event_slug": "weather-week",
		"category": "science",
		"outcomes": "[\"Yes\", \"No\"]",
		"outcomePrices": "[\"0.42\", \"0.58\"]",
		"volume_usd": "123456.78"
	}`
	var m apiMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	q := m.quote()
	assert.Equal(t, "Will it rain?", q.Title)
	assert.Equal(t, "Science", q.Category)
	assert.Equal(t, "https://polymarket.com/event/weather-week/will-it-rain", q.MarketURL)
	assert.Equal(t, "USD", q.VolumeUnit)
	assert.InDelta(t, 123457, q.Volume, 0.5)

	require.Len(t, q.Outcomes, 2)
	assert.Equal(t, "Yes", q.Outcomes[0].Label)
	assert.InDelta(t, 0.42, q.Outcomes[0].Probability, 1e-9)
	assert.Equal(t, 42, q.Outcomes[0].PriceCents)
	assert.Equal(t, 58, q.Outcomes[1].PriceCents)
}

func TestQuoteMappingPercentPrices(t *testing.T) {
	raw := `{
		"question": "Q",
		"slug": "q",
		"outcomes": ["Yes", "No"],
		"outcome_prices": [42, 58],
		"volume": 10
	}`
	var m apiMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	q := m.quote()
	require.Len(t, q.Outcomes, 2)
	assert.InDelta(t, 0.42, q.Outcomes[0].Probability, 1e-9)
	assert.Equal(t, "volume", q.VolumeUnit)
	assert.Equal(t, "Other", q.Category)
}

func TestQuoteMappingObjectPrices(t *testing.T) {
	raw := `{
		"question": "Q",
		"slug": "q",
		"outcomes": ["Yes", "No"],
		"outcomePrices": {"Yes": "0.7", "No": "0.3"}
	}`
	var m apiMarket
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	q := m.quote()
	require.Len(t, q.Outcomes, 2)
	assert.Equal(t, 70, q.Outcomes[0].PriceCents)
	assert.Equal(t, 30, q.Outcomes[1].PriceCents)
}

func newTestClient(handler http.Handler) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, slog.New(slog.DiscardHandler)), srv
}

func TestResolveDirectSlug(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "will-x-win", r.URL.Query().Get("slug"))
		w.Write([]byte(`[{"question":"X?","slug":"will-x-win","event_slug":"ev","outcomes":["Yes","No"],"outcomePrices":["0.5","0.5"]}]`))
	}))
	defer srv.Close()

	q, err := c.Resolve(context.Background(), "https://polymarket.com/event/ev/will-x-win")
	require.NoError(t, err)
	assert.Equal(t, "will-x-win", q.MarketSlug)
}

func TestResolveEventFallbackPicksHighestVolume(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Query().Get("slug") != "" && r.URL.Path == "/markets":
			w.Write([]byte(`[]`))
		case r.URL.Query().Get("event_slug") != "":
			w.Write([]byte(`[
				{"question":"small","slug":"small","event_slug":"big-event","volume_usd":"10"},
				{"question":"big","slug":"big","event_slug":"big-event","volume_usd":"9000"},
				{"question":"other","slug":"other","event_slug":"unrelated","volume_usd":"99999"}
			]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	q, err := c.Resolve(context.Background(), "https://polymarket.com/event/big-event/missing-market")
	require.NoError(t, err)
	assert.Equal(t, "big", q.MarketSlug, "highest volume within the event wins")
}

func TestResolveEventByID(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/markets" && r.URL.Query().Get("event_slug") != "":
			w.Write([]byte(`[]`))
		case r.URL.Path == "/events":
			w.Write([]byte(`[{"id":"77","slug":"ev-2024"}]`))
		case r.URL.Path == "/markets" && r.URL.Query().Get("event_id") == "77":
			w.Write([]byte(`[{"question":"found","slug":"found","event_slug":"ev-2024","volume":"5"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	q, err := c.Resolve(context.Background(), "https://polymarket.com/event/ev-2024")
	require.NoError(t, err)
	assert.Equal(t, "found", q.MarketSlug)
}

func TestResolveRejectsGarbage(t *testing.T) {
	c := NewClient("http://unused", slog.New(slog.DiscardHandler))
	_, err := c.Resolve(context.Background(), "://")
	assert.Error(t, err)
}

func TestSnapshot(t *testing.T) {
	c, srv := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"question":"X?","slug":"x","event_slug":"ev","outcomes":["Yes","No"],"outcomePrices":["0.61","0.39"]}]`))
	}))
	defer srv.Close()

	cents, err := c.Snapshot(context.Background(), "https://polymarket.com/event/ev/x", 1)
	require.NoError(t, err)
	assert.Equal(t, 39, cents)

	_, err = c.Snapshot(context.Background(), "https://polymarket.com/event/ev/x", 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
