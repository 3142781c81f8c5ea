package domain

import (
	"fmt"
	"math/big"
	"strings"
)

// tokenDecimals is the army token's fixed-point precision.
const tokenDecimals = 18

// baseUnit is 10^18, the raw value of one whole token.
var baseUnit = new(big.Int).Exp(big.NewInt(10), big.NewInt(tokenDecimals), nil)

// BaseUnit returns a copy of 10^18.
func BaseUnit() *big.Int {
	return new(big.Int).Set(baseUnit)
}

// Tokens returns n whole tokens in raw base units.
func Tokens(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), baseUnit)
}

// ParseAmount converts a user-entered decimal token string ("15", "1.5") to
// raw base units. It rejects empty, negative, malformed, and over-precise
// input so a doomed transaction is never built from it.
func ParseAmount(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty", ErrInvalidAmount)
	}
	if strings.HasPrefix(s, "-") {
		return nil, fmt.Errorf("%w: negative", ErrInvalidAmount)
	}

	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if whole == "" {
		whole = "0"
	}
	if len(frac) > tokenDecimals {
		return nil, fmt.Errorf("%w: more than %d decimal places", ErrInvalidAmount, tokenDecimals)
	}

	w, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
	}
	raw := new(big.Int).Mul(w, baseUnit)

	if frac != "" {
		f, ok := new(big.Int).SetString(frac, 10)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, s)
		}
		scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(tokenDecimals-len(frac))), nil)
		raw.Add(raw, f.Mul(f, scale))
	}

	return raw, nil
}

// FormatAmount converts raw base units to a decimal token string with
// trailing zeros trimmed ("1.5", "10"). A nil value formats as "0".
func FormatAmount(raw *big.Int) string {
	if raw == nil || raw.Sign() == 0 {
		return "0"
	}

	neg := raw.Sign() < 0
	abs := new(big.Int).Abs(raw)

	q, r := new(big.Int).QuoRem(abs, baseUnit, new(big.Int))
	out := q.String()
	if r.Sign() != 0 {
		frac := fmt.Sprintf("%018s", r.String())
		frac = strings.TrimRight(frac, "0")
		out += "." + frac
	}
	if neg {
		out = "-" + out
	}
	return out
}
