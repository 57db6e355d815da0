package profile

// Profile is the public booking profile served under /public/{slug}.
// Values are built fresh per request and never mutated afterwards.
type Profile struct {
	Slug        string    `json:"slug"`
	DisplayName string    `json:"displayName"`
	Bio         string    `json:"bio,omitempty"`
	Currency    string    `json:"currency"`
	Services    []Service `json:"services"` // presentation order
}

// Service is a bookable offer. PriceMinor is in minor currency units
// (e.g. grosze for PLN); DurationMin is always >= 1.
type Service struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DurationMin int    `json:"durationMin"`
	PriceMinor  int64  `json:"priceMinor"`
	Currency    string `json:"currency"`
}

// Source records which data source satisfied a lookup.
type Source string

const (
	SourceAPI  Source = "api"
	SourceDemo Source = "demo"
	SourceNone Source = "none"
)

// Result is the outcome of resolving a slug. Profile is nil when Source is
// SourceNone.
type Result struct {
	Profile *Profile `json:"profile"`
	Source  Source   `json:"source"`
}

// Found reports whether the result carries a profile.
func (r Result) Found() bool { return r.Profile != nil }

func (p Profile) clone() Profile {
	c := p
	c.Services = make([]Service, len(p.Services))
	copy(c.Services, p.Services)
	return c
}
