package ao3

import "strconv"

// Constraint is a numeric range filter. The zero value is unconstrained.
type Constraint struct {
	Min    int
	Max    int
	HasMax bool
}

func AtLeast(lo int) Constraint {
	return Constraint{Min: lo}
}

func AtMost(hi int) Constraint {
	return Constraint{Max: hi, HasMax: true}
}

func Between(lo, hi int) Constraint {
	return Constraint{Min: lo, Max: hi, HasMax: true}
}

func Exactly(n int) Constraint {
	return Between(n, n)
}

// String renders the range the way the archive's search forms expect.
func (c Constraint) String() string {
	switch {
	case c.Min == 0 && !c.HasMax:
		return ""
	case c.Min == 0:
		return "<" + strconv.Itoa(c.Max)
	case !c.HasMax:
		return ">" + strconv.Itoa(c.Min)
	case c.Min == c.Max:
		return strconv.Itoa(c.Min)
	}
	return strconv.Itoa(c.Min) + "-" + strconv.Itoa(c.Max)
}
