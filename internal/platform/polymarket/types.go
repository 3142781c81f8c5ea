package polymarket

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/predictrisk/engine/internal/domain"
)

// apiMarket mirrors the proxy's market payload. The upstream schema is
// loose: outcomes and prices arrive as arrays, JSON-encoded strings, or
// label-keyed objects, and volume may be a string or a number, so the raw
// fields stay undecoded until mapping.
type apiMarket struct {
	ID               json.Number     `json:"id"`
	Question         string          `json:"question"`
	Slug             string          `json:"slug"`
	EventSlug        string          `json:"event_slug"`
	Category         string          `json:"category"`
	EndDate          string          `json:"end_date"`
	EndDateAlt       string          `json:"endDate"`
	Event            *apiEvent       `json:"event"`
	Events           []apiEvent      `json:"events"`
	Outcomes         json.RawMessage `json:"outcomes"`
	OutcomePrices    json.RawMessage `json:"outcomePrices"`
	OutcomePricesAlt json.RawMessage `json:"outcome_prices"`
	Volume           json.RawMessage `json:"volume"`
	VolumeUSD        json.RawMessage `json:"volume_usd"`
	Tags             []apiTag        `json:"tags"`
}

type apiEvent struct {
	ID           json.Number `json:"id"`
	Slug         string      `json:"slug"`
	Category     string      `json:"category"`
	CategorySlug string      `json:"category_slug"`
}

type apiTag struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// categoryLabels maps upstream category slugs to display labels. Anything
// unknown renders as "Other".
var categoryLabels = map[string]string{
	"crypto":        "Crypto",
	"politics":      "Politics",
	"sports":        "Sports",
	"entertainment": "Entertainment",
	"finance":       "Finance",
	"technology":    "Tech",
	"tech":          "Tech",
	"world":         "World",
	"science":       "Science",
}

var categoryTagSlugs = map[string]bool{
	"politics": true, "sports": true, "crypto": true, "entertainment": true,
	"technology": true, "science": true, "world": true, "finance": true,
}

// NormalizeProbability maps a raw upstream price to a 0..1 probability.
// Values above 1.01 are percentages and divide by 100; negatives clamp to
// zero; everything in [0, 1.01] passes through. The same heuristic applies
// everywhere the feed is consumed.
func NormalizeProbability(raw float64) float64 {
	if math.IsNaN(raw) || math.IsInf(raw, 0) {
		return 0
	}
	if raw > 1.01 {
		return raw / 100
	}
	if raw < 0 {
		return 0
	}
	return raw
}

// quote maps the loose API payload into the display-ready domain shape.
func (m *apiMarket) quote() domain.MarketQuote {
	outcomes := parseStringList(m.Outcomes)
	rawPrices := m.OutcomePrices
	if len(rawPrices) == 0 || string(rawPrices) == "null" {
		rawPrices = m.OutcomePricesAlt
	}
	prices := parsePriceList(rawPrices, outcomes)

	mapped := make([]domain.MarketOutcome, 0, len(outcomes))
	for i, label := range outcomes {
		var p float64
		if i < len(prices) {
			p = NormalizeProbability(prices[i])
		}
		if label == "" {
			label = "Outcome " + strconv.Itoa(i+1)
		}
		mapped = append(mapped, domain.MarketOutcome{
			Label:       label,
			Index:       i,
			Probability: p,
			PriceCents:  priceCents(p),
		})
	}

	volume, volumeUnit := m.volume()
	eventSlug := m.eventSlug()
	marketSlug := m.Slug
	if marketSlug == "" {
		marketSlug = m.ID.String()
	}

	marketURL := "https://polymarket.com/market/" + marketSlug
	if eventSlug != "" {
		marketURL = "https://polymarket.com/event/" + eventSlug + "/" + marketSlug
	}

	title := m.Question
	if title == "" {
		title = "Untitled Market"
	}

	return domain.MarketQuote{
		Title:      title,
		Category:   m.category(),
		EventSlug:  eventSlug,
		MarketSlug: marketSlug,
		MarketURL:  marketURL,
		Volume:     math.Round(volume),
		VolumeUnit: volumeUnit,
		EndDate:    m.endDate(),
		Outcomes:   mapped,
	}
}

func priceCents(p float64) int {
	c := int(math.Round(p * 100))
	if c < 0 {
		return 0
	}
	return c
}

func (m *apiMarket) eventSlug() string {
	if m.EventSlug != "" {
		return m.EventSlug
	}
	if m.Event != nil && m.Event.Slug != "" {
		return m.Event.Slug
	}
	if len(m.Events) > 0 {
		return m.Events[0].Slug
	}
	return ""
}

func (m *apiMarket) category() string {
	raw := m.Category
	if raw == "" && m.Event != nil {
		raw = m.Event.Category
		if raw == "" {
			raw = m.Event.CategorySlug
		}
	}
	if raw == "" && len(m.Events) > 0 {
		raw = m.Events[0].Category
		if raw == "" {
			raw = m.Events[0].CategorySlug
		}
	}
	raw = strings.ToLower(raw)

	if raw == "" {
		for _, tag := range m.Tags {
			slug := strings.ToLower(tag.Slug)
			if slug == "" {
				slug = strings.ToLower(tag.Name)
			}
			if categoryTagSlugs[slug] {
				raw = slug
				break
			}
		}
	}

	if label, ok := categoryLabels[raw]; ok {
		return label
	}
	return "Other"
}

// volume prefers the USD figure when present.
func (m *apiMarket) volume() (float64, string) {
	if v, ok := parseFlexFloat(m.VolumeUSD); ok {
		return v, "USD"
	}
	if v, ok := parseFlexFloat(m.Volume); ok {
		return v, "volume"
	}
	return 0, "volume"
}

func (m *apiMarket) endDate() time.Time {
	raw := m.EndDate
	if raw == "" {
		raw = m.EndDateAlt
	}
	if raw == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t
	}
	return time.Time{}
}

// parseStringList decodes a JSON array of strings, a string holding a JSON
// array, or a comma-separated string.
func parseStringList(raw json.RawMessage) []string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return list
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil
	}
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		if err := json.Unmarshal([]byte(s), &list); err == nil {
			return list
		}
		return nil
	}
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// parsePriceList decodes outcome prices from an array, an encoded string, or
// a label-keyed object aligned against outcomes.
func parsePriceList(raw json.RawMessage, outcomes []string) []float64 {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}

	if nums, ok := decodeFloatSlice(raw); ok {
		return nums
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		s = strings.TrimSpace(s)
		if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
			if nums, ok := decodeFloatSlice([]byte(s)); ok {
				return nums
			}
			return nil
		}
		parts := strings.Split(s, ",")
		nums := make([]float64, 0, len(parts))
		for _, p := range parts {
			f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
			if err != nil {
				f = 0
			}
			nums = append(nums, f)
		}
		return nums
	}

	var byLabel map[string]json.RawMessage
	if err := json.Unmarshal(raw, &byLabel); err == nil {
		nums := make([]float64, len(outcomes))
		for i, label := range outcomes {
			v, ok := byLabel[label]
			if !ok {
				v = byLabel[strings.ToLower(label)]
			}
			if f, fok := parseFlexFloat(v); fok {
				nums[i] = f
			}
		}
		return nums
	}

	return nil
}

func decodeFloatSlice(raw []byte) ([]float64, bool) {
	var mixed []json.RawMessage
	if err := json.Unmarshal(raw, &mixed); err != nil {
		return nil, false
	}
	nums := make([]float64, 0, len(mixed))
	for _, item := range mixed {
		f, _ := parseFlexFloat(item)
		nums = append(nums, f)
	}
	return nums, true
}

// parseFlexFloat accepts a JSON number or a numeric string.
func parseFlexFloat(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
