package polymarket

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/predictrisk/engine/internal/domain"
)

var trailingNumber = regexp.MustCompile(`-\d+$`)

// NormalizeEventSlug strips the trailing numeric disambiguator some event
// slugs carry ("...-2024" variants point at the same event).
func NormalizeEventSlug(slug string) string {
	return trailingNumber.ReplaceAllString(slug, "")
}

func eventSlugMatches(candidate, target string) bool {
	if candidate == "" {
		return false
	}
	return NormalizeEventSlug(strings.ToLower(candidate)) == NormalizeEventSlug(strings.ToLower(target))
}

// ParseMarketURL extracts event and market slugs from a pasted polymarket
// URL. Recognized shapes, tried in order:
//
//	.../event/<event>/<market>
//	.../event/<event>
//	.../market/<market>
//	any path whose last two segments are <event>/<market>
//
// Unparseable input returns the zero ref.
func ParseMarketURL(raw string) domain.MarketRef {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return domain.MarketRef{}
	}

	var parts []string
	for _, p := range strings.Split(u.Path, "/") {
		if p != "" {
			parts = append(parts, p)
		}
	}

	for i, p := range parts {
		if p != "event" {
			continue
		}
		if len(parts) >= i+3 {
			return domain.MarketRef{EventSlug: parts[i+1], MarketSlug: parts[i+2]}
		}
		if len(parts) >= i+2 {
			return domain.MarketRef{EventSlug: parts[i+1]}
		}
		break
	}
	for i, p := range parts {
		if p == "market" && len(parts) >= i+2 {
			return domain.MarketRef{MarketSlug: parts[i+1]}
		}
	}
	if len(parts) >= 2 {
		return domain.MarketRef{EventSlug: parts[len(parts)-2], MarketSlug: parts[len(parts)-1]}
	}
	return domain.MarketRef{}
}
