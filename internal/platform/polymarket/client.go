// Package polymarket is the REST client for the prediction-market data
// proxy. It resolves pasted market URLs into quotes and serves price
// snapshots for the bet ledger.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/predictrisk/engine/internal/domain"
)

// Client queries the Gamma-compatible market data API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        *slog.Logger
}

var _ domain.MarketData = (*Client)(nil)

// NewClient creates a market data client. baseURL is the API root, e.g.
// "https://gamma-api.polymarket.com".
func NewClient(baseURL string, log *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		log: log.With("component", "polymarket"),
	}
}

// Resolve looks up the market behind a pasted URL. A direct market slug is
// tried first; when it misses and the URL names an event, the event's
// highest-volume market is returned instead.
func (c *Client) Resolve(ctx context.Context, marketURL string) (domain.MarketQuote, error) {
	ref := ParseMarketURL(marketURL)
	if ref.IsZero() {
		return domain.MarketQuote{}, fmt.Errorf("polymarket: not a market url: %q", marketURL)
	}

	if ref.MarketSlug != "" {
		params := url.Values{}
		params.Set("slug", ref.MarketSlug)
		if ref.EventSlug != "" {
			params.Set("event_slug", ref.EventSlug)
		}

		markets, err := c.getMarkets(ctx, params)
		if err == nil && len(markets) > 0 {
			return markets[0].quote(), nil
		}
		if err != nil {
			c.log.Debug("direct slug lookup failed", "slug", ref.MarketSlug, "error", err)
		}
		if ref.EventSlug == "" {
			if err != nil {
				return domain.MarketQuote{}, fmt.Errorf("polymarket: resolve %s: %w", ref.MarketSlug, err)
			}
			return domain.MarketQuote{}, fmt.Errorf("polymarket: %w: market %s", domain.ErrNotFound, ref.MarketSlug)
		}
	}

	return c.resolveFromEvent(ctx, ref.EventSlug)
}

// Snapshot returns the current price in cents for one outcome of the market
// behind marketURL.
func (c *Client) Snapshot(ctx context.Context, marketURL string, outcomeIndex int) (int, error) {
	quote, err := c.Resolve(ctx, marketURL)
	if err != nil {
		return 0, err
	}
	if outcomeIndex < 0 || outcomeIndex >= len(quote.Outcomes) {
		return 0, fmt.Errorf("polymarket: %w: outcome %d of %s", domain.ErrNotFound, outcomeIndex, quote.MarketSlug)
	}
	return quote.Outcomes[outcomeIndex].PriceCents, nil
}

// resolveFromEvent picks the best market of an event: first by event_slug
// listing, then by resolving the event id and listing its markets. Best
// means highest volume among markets whose event slug matches; when nothing
// matches, the whole listing competes.
func (c *Client) resolveFromEvent(ctx context.Context, eventSlug string) (domain.MarketQuote, error) {
	params := url.Values{}
	params.Set("event_slug", eventSlug)
	params.Set("limit", "200")
	params.Set("offset", "0")

	markets, err := c.getMarkets(ctx, params)
	if err == nil {
		if best := pickBestMarket(filterEventMarkets(markets, eventSlug)); best != nil {
			return best.quote(), nil
		}
	} else {
		c.log.Debug("event_slug listing failed", "event", eventSlug, "error", err)
	}

	event, err := c.getEvent(ctx, eventSlug)
	if err != nil {
		return domain.MarketQuote{}, fmt.Errorf("polymarket: resolve event %s: %w", eventSlug, err)
	}

	params = url.Values{}
	params.Set("event_id", event.ID.String())
	params.Set("limit", "200")
	params.Set("offset", "0")

	markets, err = c.getMarkets(ctx, params)
	if err != nil {
		return domain.MarketQuote{}, fmt.Errorf("polymarket: event %s markets: %w", eventSlug, err)
	}
	best := pickBestMarket(filterEventMarkets(markets, eventSlug))
	if best == nil {
		return domain.MarketQuote{}, fmt.Errorf("polymarket: %w: no markets for event %s", domain.ErrNotFound, eventSlug)
	}
	return best.quote(), nil
}

func (c *Client) getMarkets(ctx context.Context, params url.Values) ([]apiMarket, error) {
	body, err := c.doGet(ctx, "/markets?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var markets []apiMarket
	if err := json.Unmarshal(body, &markets); err != nil {
		// a single object is also accepted
		var one apiMarket
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			return nil, fmt.Errorf("decode markets: %w", err)
		}
		markets = []apiMarket{one}
	}
	return markets, nil
}

func (c *Client) getEvent(ctx context.Context, slug string) (*apiEvent, error) {
	params := url.Values{}
	params.Set("slug", slug)

	body, err := c.doGet(ctx, "/events?"+params.Encode())
	if err != nil {
		return nil, err
	}

	var events []apiEvent
	if err := json.Unmarshal(body, &events); err != nil {
		var one apiEvent
		if err2 := json.Unmarshal(body, &one); err2 != nil {
			return nil, fmt.Errorf("decode events: %w", err)
		}
		events = []apiEvent{one}
	}

	for _, e := range events {
		if eventSlugMatches(e.Slug, slug) && e.ID.String() != "" {
			return &e, nil
		}
	}
	for _, e := range events {
		if eventSlugMatches(e.Slug, NormalizeEventSlug(slug)) && e.ID.String() != "" {
			return &e, nil
		}
	}
	if len(events) > 0 && events[0].ID.String() != "" {
		return &events[0], nil
	}
	return nil, fmt.Errorf("%w: event %s", domain.ErrNotFound, slug)
}

// filterEventMarkets keeps the markets belonging to eventSlug, or the whole
// list when no market carries a matching slug.
func filterEventMarkets(markets []apiMarket, eventSlug string) []apiMarket {
	var matched []apiMarket
	for _, m := range markets {
		if eventSlugMatches(m.eventSlug(), eventSlug) {
			matched = append(matched, m)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return markets
}

// pickBestMarket returns the highest-volume market, or nil for an empty list.
func pickBestMarket(markets []apiMarket) *apiMarket {
	var best *apiMarket
	bestVolume := -1.0
	for i := range markets {
		v, _ := markets[i].volume()
		if v > bestVolume {
			best = &markets[i]
			bestVolume = v
		}
	}
	return best
}

func (c *Client) doGet(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: status %d", path, resp.StatusCode)
	}
	return body, nil
}
