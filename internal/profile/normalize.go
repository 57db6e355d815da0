package profile

import (
	"encoding/json"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	defaultServiceName = "Service"
	defaultDurationMin = 60
)

var (
	displayNameKeys = []string{"displayName", "name"}
	bioKeys         = []string{"bio", "description"}
	serviceNameKeys = []string{"name", "title"}
	durationKeys    = []string{"durationMin", "duration", "duration_minutes"}
	minorPriceKeys  = []string{"priceCents", "price_cents", "priceMinor"}
	majorPriceKeys  = []string{"price"}

	currencyPattern = regexp.MustCompile(`^[A-Za-z]{3}$`)
	slugSeparators  = strings.NewReplacer("-", " ", "_", " ")
)

// serviceNamespace seeds deterministic service IDs for entries without one.
var serviceNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://sfero.app/services"))

// Normalize maps a loosely-typed profile object onto the canonical Profile.
// It never fails: every missing or malformed field falls back to a default.
// The slug is always the caller's, whatever the payload claims.
//
// Price input contract: priceCents/price_cents/priceMinor carry minor units
// and win when numeric; otherwise price is read as a decimal amount in major
// units and converted here. No other code performs currency conversion.
func Normalize(slug string, raw map[string]any) Profile {
	p := Profile{
		Slug:        slug,
		DisplayName: firstString(raw, displayNameKeys...),
		Bio:         firstString(raw, bioKeys...),
		Currency:    currency(raw["currency"], defaultCurrency),
	}
	if p.DisplayName == "" {
		p.DisplayName = strings.TrimSpace(slugSeparators.Replace(slug))
	}

	items, _ := raw["services"].([]any)
	p.Services = make([]Service, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			continue
		}
		p.Services = append(p.Services, normalizeService(slug, i, obj, p.Currency))
	}
	return p
}

func normalizeService(slug string, index int, raw map[string]any, profileCurrency string) Service {
	s := Service{
		ID:          serviceID(slug, index, raw["id"]),
		Name:        firstString(raw, serviceNameKeys...),
		DurationMin: defaultDurationMin,
		Currency:    currency(raw["currency"], profileCurrency),
	}
	if s.Name == "" {
		s.Name = defaultServiceName
	}

	if d, ok := firstNumber(raw, durationKeys...); ok {
		if m := math.Round(d); m >= 1 && m <= math.MaxInt32 {
			s.DurationMin = int(m)
		}
	}

	if minor, ok := firstDecimal(raw, minorPriceKeys...); ok {
		s.PriceMinor = scaleMinor(minor, 0)
	} else if major, ok := firstDecimal(raw, majorPriceKeys...); ok {
		s.PriceMinor = scaleMinor(major, MinorExponent(s.Currency))
	}
	return s
}

func serviceID(slug string, index int, v any) string {
	switch id := v.(type) {
	case string:
		if t := strings.TrimSpace(id); t != "" {
			return t
		}
	case float64, int, int64, json.Number:
		if n, ok := number(id); ok {
			return strconv.FormatFloat(n, 'f', -1, 64)
		}
	}
	return uuid.NewSHA1(serviceNamespace, []byte(slug+"/"+strconv.Itoa(index))).String()
}

func currency(v any, fallback string) string {
	s, ok := v.(string)
	if !ok {
		return fallback
	}
	s = strings.TrimSpace(s)
	if !currencyPattern.MatchString(s) {
		return fallback
	}
	return strings.ToUpper(s)
}

func firstString(raw map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := raw[k].(string); ok {
			if t := strings.TrimSpace(s); t != "" {
				return t
			}
		}
	}
	return ""
}

func firstNumber(raw map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if n, ok := number(raw[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func firstDecimal(raw map[string]any, keys ...string) (*big.Rat, bool) {
	for _, k := range keys {
		if d, ok := decimal(raw[k]); ok {
			return d, true
		}
	}
	return nil, false
}

// number coerces JSON and YAML scalar numbers, and numeric strings, to float64.
func number(v any) (float64, bool) {
	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int64:
		f = float64(n)
	case uint64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}
