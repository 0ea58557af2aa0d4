package match

import "fmt"

// PointReason explains how a rally was won.
// The zero value is ReasonUnspecified: the point counts but feeds no bucket.
type PointReason string

const (
	ReasonUnspecified   PointReason = ""
	ReasonAce           PointReason = "ace"
	ReasonAttack        PointReason = "attack"
	ReasonBlock         PointReason = "block"
	ReasonServiceError  PointReason = "service_error"
	ReasonOpponentError PointReason = "opponent_error"
)

// PointReasons lists every non-zero reason in display order.
var PointReasons = []PointReason{
	ReasonAce,
	ReasonAttack,
	ReasonBlock,
	ReasonServiceError,
	ReasonOpponentError,
}

// Bucket is the statistics category a point is attributed to.
type Bucket int

const (
	BucketNone Bucket = iota
	BucketServe
	BucketAttack
	BucketBlock
	BucketOpponentError
)

// Bucket returns the statistics bucket for the reason.
func (r PointReason) Bucket() Bucket {
	switch r {
	case ReasonAce:
		return BucketServe
	case ReasonAttack:
		return BucketAttack
	case ReasonBlock:
		return BucketBlock
	case ReasonServiceError, ReasonOpponentError:
		return BucketOpponentError
	case ReasonUnspecified:
		return BucketNone
	}
	return BucketNone
}

// Valid reports whether r is a known reason (including unspecified).
func (r PointReason) Valid() bool {
	if r == ReasonUnspecified {
		return true
	}
	for _, known := range PointReasons {
		if r == known {
			return true
		}
	}
	return false
}

// ParsePointReason parses a reason name. An empty string is unspecified.
func ParsePointReason(v string) (PointReason, error) {
	r := PointReason(v)
	if !r.Valid() {
		return "", fmt.Errorf("unknown point reason %q", v)
	}
	return r, nil
}

// UnmarshalText rejects unknown reasons so a typo in a stored log is caught
// at load time instead of silently dropping the point from the statistics.
func (r *PointReason) UnmarshalText(text []byte) error {
	parsed, err := ParsePointReason(string(text))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
