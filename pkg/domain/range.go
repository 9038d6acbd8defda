package domain

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Range is a numeric interval with independently inclusive bounds. Infinite
// bounds are represented by apd's Infinite form and are always exclusive.
type Range struct {
	Lower          apd.Decimal
	Upper          apd.Decimal
	LowerInclusive bool
	UpperInclusive bool
}

var boundSeparator = regexp.MustCompile(`\.{2,3}`)

// ParseBound translates a textual range ("lower..upper" or "lower...upper")
// into a Range. Blank input yields nil. Finite bounds produce [lower, upper);
// when both sides are infinite the explicit open range (-Infinity, Infinity)
// is returned.
func ParseBound(value string) (*Range, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}
	parts := boundSeparator.Split(value, -1)
	if len(parts) != 2 {
		return nil, ValidationError{Field: "bound", Message: fmt.Sprintf("%q is not a lower..upper range", value)}
	}
	lower, err := parseBoundValue(parts[0])
	if err != nil {
		return nil, err
	}
	upper, err := parseBoundValue(parts[1])
	if err != nil {
		return nil, err
	}
	r := &Range{Lower: *lower, Upper: *upper}
	if lower.Form == apd.Infinite && lower.Negative && upper.Form == apd.Infinite && !upper.Negative {
		return r, nil
	}
	r.LowerInclusive = lower.Form == apd.Finite
	return r, nil
}

func parseBoundValue(raw string) (*apd.Decimal, error) {
	d, _, err := apd.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return nil, ValidationError{Field: "bound", Message: fmt.Sprintf("invalid bound %q: %v", raw, err)}
	}
	if d.Form == apd.NaN || d.Form == apd.NaNSignaling {
		return nil, ValidationError{Field: "bound", Message: fmt.Sprintf("invalid bound %q", raw)}
	}
	return d, nil
}

// Unbounded reports whether both sides are infinite.
func (r Range) Unbounded() bool {
	return r.Lower.Form == apd.Infinite && r.Upper.Form == apd.Infinite
}

// Contains reports whether v lies within the range.
func (r Range) Contains(v *apd.Decimal) bool {
	lc := v.Cmp(&r.Lower)
	if lc < 0 || (lc == 0 && !r.LowerInclusive) {
		return false
	}
	uc := v.Cmp(&r.Upper)
	return uc < 0 || (uc == 0 && r.UpperInclusive)
}

// String renders the range in interval notation, e.g. "[10,20)".
func (r Range) String() string {
	open, closing := "(", ")"
	if r.LowerInclusive {
		open = "["
	}
	if r.UpperInclusive {
		closing = "]"
	}
	return open + r.Lower.String() + "," + r.Upper.String() + closing
}

// MarshalJSON encodes the range in interval notation.
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.String())
}

// UnmarshalJSON decodes interval notation produced by MarshalJSON.
func (r *Range) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if len(s) < 5 {
		return fmt.Errorf("range %q too short", s)
	}
	lowerInc := s[0] == '['
	upperInc := s[len(s)-1] == ']'
	parts := strings.SplitN(s[1:len(s)-1], ",", 2)
	if len(parts) != 2 {
		return fmt.Errorf("range %q missing separator", s)
	}
	lower, err := parseBoundValue(parts[0])
	if err != nil {
		return err
	}
	upper, err := parseBoundValue(parts[1])
	if err != nil {
		return err
	}
	*r = Range{Lower: *lower, Upper: *upper, LowerInclusive: lowerInc, UpperInclusive: upperInc}
	return nil
}

// Clone returns a deep copy of r; nil stays nil.
func (r *Range) Clone() *Range {
	if r == nil {
		return nil
	}
	out := &Range{LowerInclusive: r.LowerInclusive, UpperInclusive: r.UpperInclusive}
	out.Lower.Set(&r.Lower)
	out.Upper.Set(&r.Upper)
	return out
}
