package domain

import (
	"github.com/google/uuid"
)

// Placement is a part and the position it holds.
type Placement struct {
	PartID   uuid.UUID `json:"part_id"`
	Position int64     `json:"position"`
}

// Listing is the ordered view of an episode's parts. Its order is the order
// that was requested from the store and callers may rely on it for display.
type Listing []Placement

// NewListing builds a listing from parts that are already sorted.
func NewListing(parts []*Part) Listing {
	listing := make(Listing, 0, len(parts))
	for _, p := range parts {
		listing = append(listing, Placement{PartID: p.ID, Position: p.Position})
	}
	return listing
}

// IDs returns the part ids in listing order.
func (l Listing) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, len(l))
	for i, p := range l {
		ids[i] = p.PartID
	}
	return ids
}

// Positions returns the listing as an unordered id to position map.
func (l Listing) Positions() map[uuid.UUID]int64 {
	positions := make(map[uuid.UUID]int64, len(l))
	for _, p := range l {
		positions[p.PartID] = p.Position
	}
	return positions
}

// Position returns the position of a part and whether it is listed.
func (l Listing) Position(partID uuid.UUID) (int64, bool) {
	for _, p := range l {
		if p.PartID == partID {
			return p.Position, true
		}
	}
	return 0, false
}

// Reversed returns a copy of the listing in the opposite order.
func (l Listing) Reversed() Listing {
	reversed := make(Listing, len(l))
	for i, p := range l {
		reversed[len(l)-1-i] = p
	}
	return reversed
}
