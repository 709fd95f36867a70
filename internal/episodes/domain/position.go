package domain

import (
	"fmt"
	"math"
	"strings"
)

// SortOrder is the direction parts are listed in.
type SortOrder string

const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// ParseSortOrder accepts asc/ascending and desc/descending, case-insensitively.
// An empty string means ascending.
func ParseSortOrder(s string) (SortOrder, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "asc", "ascending":
		return Ascending, nil
	case "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: unknown sort order %q", ErrInvalidInput, s)
	}
}

func (o SortOrder) String() string {
	return string(o)
}

// IsValid reports whether o is one of the known orders.
func (o SortOrder) IsValid() bool {
	return o == Ascending || o == Descending
}

// PositionRange is a closed interval of positions.
type PositionRange struct {
	From int64
	To   int64
}

// Contains reports whether p lies within the range.
func (r PositionRange) Contains(p int64) bool {
	return p >= r.From && p <= r.To
}

func (r PositionRange) String() string {
	if r.To == math.MaxInt64 {
		return fmt.Sprintf("[%d, +inf)", r.From)
	}
	return fmt.Sprintf("[%d, %d]", r.From, r.To)
}

// Shift describes a bulk position update: every part of the episode whose
// position lies in Range moves by Delta.
type Shift struct {
	Range PositionRange
	Delta int64
}

// InsertShift makes room at dest by pushing dest and everything after it one
// slot later.
func InsertShift(dest int64) Shift {
	return Shift{
		Range: PositionRange{From: dest, To: math.MaxInt64},
		Delta: 1,
	}
}

// MoveShift returns the minimal shift that vacates dest for a part currently
// at current. Only parts strictly between the two slots, plus the one at dest,
// move. ok is false when the part is already at dest.
func MoveShift(current, dest int64) (shift Shift, ok bool) {
	switch {
	case dest > current:
		return Shift{Range: PositionRange{From: current + 1, To: dest}, Delta: -1}, true
	case dest < current:
		return Shift{Range: PositionRange{From: dest, To: current - 1}, Delta: 1}, true
	default:
		return Shift{}, false
	}
}
