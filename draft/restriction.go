package draft

import (
	"strings"
)

// NoRestriction is the selector value meaning "explicitly unrestricted".
const NoRestriction = "none"

// Restriction is a set of course or graduation-date identifiers. A set
// holding NoRestriction, or holding nothing at all, restricts nothing.
type Restriction []string

// NewRestriction trims and de-duplicates ids. Any selection containing the
// sentinel, or no identifier at all, collapses to the sentinel alone.
func NewRestriction(ids ...string) Restriction {
	seen := make(map[string]bool, len(ids))
	r := make(Restriction, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		if id == NoRestriction {
			return Restriction{NoRestriction}
		}
		seen[id] = true
		r = append(r, id)
	}
	if len(r) == 0 {
		return Restriction{NoRestriction}
	}
	return r
}

// ParseRestriction reads the comma-joined form used on submission.
func ParseRestriction(joined string) Restriction {
	return NewRestriction(strings.Split(joined, ",")...)
}

func (r Restriction) Active() bool {
	for _, id := range r {
		if id == NoRestriction {
			return false
		}
	}
	return len(r) > 0
}

// Join returns the comma-joined identifiers, or "" when inactive.
func (r Restriction) Join() string {
	if !r.Active() {
		return ""
	}
	return strings.Join(r, ",")
}

// IDs returns a copy of the identifiers, without the sentinel.
func (r Restriction) IDs() []string {
	if !r.Active() {
		return []string{}
	}
	return append([]string(nil), r...)
}
