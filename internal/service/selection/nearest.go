package selection

import (
	"sort"

	"service-dispatch/internal/domain"
	"service-dispatch/internal/geo"
)

// Candidate is a courier with its distance to the pickup origin.
type Candidate struct {
	Courier  domain.Courier
	Distance float64
}

// Rank orders couriers by distance to origin, nearest first.
// Equal distances keep the enumeration order of couriers.
func Rank(origin domain.Location, couriers []domain.Courier) []Candidate {
	out := make([]Candidate, 0, len(couriers))
	for _, c := range couriers {
		out = append(out, Candidate{Courier: c, Distance: geo.Distance(&origin, c.Location)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// SelectNearest returns the courier closest to origin, or false when there are no candidates.
func SelectNearest(origin domain.Location, couriers []domain.Courier) (domain.Courier, bool) {
	ranked := Rank(origin, couriers)
	if len(ranked) == 0 {
		return domain.Courier{}, false
	}
	return ranked[0].Courier, true
}
