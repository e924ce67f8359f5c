package xmr

import "fmt"

// SpecialCauseType identifies one of the four out-of-control rules.
// The numeric value is the rule's rank; lower ranks sort first.
type SpecialCauseType int

const (
	LargeChange SpecialCauseType = iota + 1
	ModerateChange
	ModerateShift
	SmallShift
)

// AllCauses lists every SpecialCauseType in rank order.
var AllCauses = []SpecialCauseType{LargeChange, ModerateChange, ModerateShift, SmallShift}

var causeNames = map[SpecialCauseType]string{
	LargeChange:    "LargeChange",
	ModerateChange: "ModerateChange",
	ModerateShift:  "ModerateShift",
	SmallShift:     "SmallShift",
}

// String returns the cause name, e.g. "LargeChange".
func (c SpecialCauseType) String() string {
	if name, ok := causeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("SpecialCauseType(%d)", int(c))
}

// Valid reports whether c is one of the four defined causes.
func (c SpecialCauseType) Valid() bool {
	_, ok := causeNames[c]
	return ok
}

// MarshalText encodes the cause by name so JSON output stays readable.
func (c SpecialCauseType) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("xmr: unknown special cause %d", int(c))
	}
	return []byte(c.String()), nil
}

// UnmarshalText parses a cause name produced by MarshalText.
func (c *SpecialCauseType) UnmarshalText(text []byte) error {
	for k, name := range causeNames {
		if name == string(text) {
			*c = k
			return nil
		}
	}
	return fmt.Errorf("xmr: unknown special cause %q", string(text))
}

// Classification is the set of causes triggered for one display point,
// always in ascending rank order with no duplicates.
type Classification []SpecialCauseType

// Has reports whether the classification contains c.
func (cl Classification) Has(c SpecialCauseType) bool {
	for _, x := range cl {
		if x == c {
			return true
		}
	}
	return false
}

// causeSet accumulates causes for one point as a bitmask.
type causeSet uint8

func (s *causeSet) add(c SpecialCauseType) {
	*s |= 1 << uint(c)
}

// sorted expands the set into a Classification ordered by rank.
func (s causeSet) sorted() Classification {
	out := make(Classification, 0, len(AllCauses))
	for _, c := range AllCauses {
		if s&(1<<uint(c)) != 0 {
			out = append(out, c)
		}
	}
	return out
}
