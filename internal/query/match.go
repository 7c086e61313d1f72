package query

// MatchMode selects the comparison of a search filter.
type MatchMode int

const (
	MatchContains MatchMode = iota
	MatchExact
	MatchStartsWith
	MatchEndsWith
)

func (m MatchMode) String() string {
	switch m {
	case MatchExact:
		return "exact"
	case MatchStartsWith:
		return "starts_with"
	case MatchEndsWith:
		return "ends_with"
	default:
		return "contains"
	}
}

// MatchType is the decoded form of a wire search_type code.
type MatchType struct {
	Mode   MatchMode
	Negate bool
}

// DecodeMatchType splits code into (negate, mode) = divmod(code, 10).
// Unknown modes fall back to contains.
func DecodeMatchType(code int) MatchType {
	q, r := code/10, code%10
	if r < 0 {
		r += 10
		q--
	}
	mode := MatchMode(r)
	if mode < MatchContains || mode > MatchEndsWith {
		mode = MatchContains
	}
	return MatchType{Mode: mode, Negate: q != 0}
}
