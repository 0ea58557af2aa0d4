package roster

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"github.com/marceldopr/volleyball-stats-pro-v3-sub001/internal/match"
)

var (
	// ErrNoPlayer is returned when nothing on the roster matches.
	ErrNoPlayer = errors.New("no matching player")
	// ErrAmbiguous is returned when several players match equally well.
	ErrAmbiguous = errors.New("ambiguous player")
)

// minSimilarity is the Levenshtein similarity a misspelled name needs to
// be accepted.
const minSimilarity = 0.7

// Lookup resolves what an operator typed to a player. In order it tries a
// shirt number ("7" or "#7"), an exact id, an exact name, a fuzzy
// subsequence match on names ("hana" finds "Hana Libero") and finally
// the closest name by edit distance.
func Lookup(r match.Roster, query string) (match.Player, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return match.Player{}, fmt.Errorf("lookup %q: %w", query, ErrNoPlayer)
	}

	if n, err := strconv.Atoi(strings.TrimPrefix(q, "#")); err == nil {
		if p, ok := r.ByNumber(n); ok {
			return p, nil
		}
		return match.Player{}, fmt.Errorf("lookup %q: %w", query, ErrNoPlayer)
	}
	if p, ok := r.ByID(q); ok {
		return p, nil
	}
	for _, p := range r {
		if strings.EqualFold(p.Name, q) {
			return p, nil
		}
	}

	names := make([]string, len(r))
	for i, p := range r {
		names[i] = p.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(q, names)
	if len(ranks) > 0 {
		sort.Sort(ranks)
		if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
			return match.Player{}, fmt.Errorf("lookup %q: %w: %s or %s", query, ErrAmbiguous, ranks[0].Target, ranks[1].Target)
		}
		return r[ranks[0].OriginalIndex], nil
	}

	best, bestScore, tie := -1, 0.0, false
	lq := strings.ToLower(q)
	for i, name := range names {
		ln := strings.ToLower(name)
		distance := fuzzy.LevenshteinDistance(lq, ln)
		similarity := 1 - float64(distance)/float64(max(len(lq), len(ln)))
		switch {
		case similarity < minSimilarity:
		case best == -1 || similarity > bestScore:
			best, bestScore, tie = i, similarity, false
		case similarity == bestScore:
			tie = true
		}
	}
	if best == -1 {
		return match.Player{}, fmt.Errorf("lookup %q: %w", query, ErrNoPlayer)
	}
	if tie {
		return match.Player{}, fmt.Errorf("lookup %q: %w", query, ErrAmbiguous)
	}
	return r[best], nil
}
