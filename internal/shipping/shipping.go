package shipping

import (
	"errors"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrUnknownZone is returned when no zone with the given name is configured.
	ErrUnknownZone = errors.New("unknown shipping zone")

	// ErrWeightExceedsBrackets is returned when the shipment weight is above
	// every configured bracket for the zone. No shipping cost can be
	// determined; callers must not treat this as zero.
	ErrWeightExceedsBrackets = errors.New("weight exceeds all shipping brackets")
)

// Bracket is one pricing tier of a zone: any shipment weighing up to and
// including CeilingGrams ships for Cost.
type Bracket struct {
	CeilingGrams int
	Cost         decimal.Decimal
}

// Zone is a named destination with an ascending list of weight brackets.
type Zone struct {
	Name     string
	Brackets []Bracket
}

// Table resolves shipping costs by zone name and shipment weight.
// Zone names are matched case-insensitively.
type Table struct {
	zones map[string]Zone
}

// NewTable builds a lookup table. Brackets are sorted ascending by weight
// ceiling so lookups always pick the cheapest qualifying tier.
func NewTable(zones map[string]Zone) *Table {
	normalized := make(map[string]Zone, len(zones))
	for key, zone := range zones {
		brackets := make([]Bracket, len(zone.Brackets))
		copy(brackets, zone.Brackets)
		sort.Slice(brackets, func(i, j int) bool {
			return brackets[i].CeilingGrams < brackets[j].CeilingGrams
		})
		zone.Brackets = brackets
		normalized[strings.ToLower(key)] = zone
	}
	return &Table{zones: normalized}
}

// Cost returns the shipping cost for the zone and total shipment weight.
// The bracket ceiling is inclusive: a shipment at exactly the ceiling takes
// that bracket. Zero or negative weight takes the lightest bracket.
func (t *Table) Cost(zone string, totalWeightGrams int) (decimal.Decimal, error) {
	z, ok := t.zones[strings.ToLower(zone)]
	if !ok {
		return decimal.Zero, ErrUnknownZone
	}

	for _, b := range z.Brackets {
		if b.CeilingGrams >= totalWeightGrams {
			return b.Cost, nil
		}
	}
	return decimal.Zero, ErrWeightExceedsBrackets
}

// HasZone reports whether a zone is configured.
func (t *Table) HasZone(zone string) bool {
	_, ok := t.zones[strings.ToLower(zone)]
	return ok
}

// Zones returns the configured zone keys and display names.
func (t *Table) Zones() map[string]string {
	out := make(map[string]string, len(t.zones))
	for key, zone := range t.zones {
		out[key] = zone.Name
	}
	return out
}

// ZoneBrackets returns the sorted brackets for a zone, or ErrUnknownZone.
func (t *Table) ZoneBrackets(zone string) ([]Bracket, error) {
	z, ok := t.zones[strings.ToLower(zone)]
	if !ok {
		return nil, ErrUnknownZone
	}
	brackets := make([]Bracket, len(z.Brackets))
	copy(brackets, z.Brackets)
	return brackets, nil
}
