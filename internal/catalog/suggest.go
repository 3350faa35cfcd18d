package catalog

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/hbollon/go-edlib"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// suggestThreshold is the minimum Jaro-Winkler similarity for a suggestion.
const suggestThreshold = 0.75

// Suggestion is a catalog title that resembles a search query.
type Suggestion struct {
	ID    int64
	Title string
	Score float64
}

// normalizeTitle lowercases, strips accents and collapses punctuation to
// single spaces.
func normalizeTitle(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	s, _, _ = transform.String(t, strings.ToLower(s))

	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// similarity scores query against a title, taking the better of the whole
// title and its best-matching word so short queries can match long titles.
func similarity(query, title string) float64 {
	best := float64(edlib.JaroWinklerSimilarity(query, title))
	for _, word := range strings.Fields(title) {
		if s := float64(edlib.JaroWinklerSimilarity(query, word)); s > best {
			best = s
		}
	}
	return best
}

// Suggest returns up to limit titles that resemble query, best match first.
// It is meant for "did you mean" hints when a substring search is empty.
func (r *Reader) Suggest(ctx context.Context, query string, limit int) ([]Suggestion, error) {
	q := normalizeTitle(query)
	if q == "" {
		return nil, nil
	}

	rows, err := r.store.db.QueryContext(ctx, "SELECT id, title FROM media")
	if err != nil {
		return nil, fmt.Errorf("list titles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Suggestion
	for rows.Next() {
		var s Suggestion
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		s.Score = similarity(q, normalizeTitle(s.Title))
		if s.Score >= suggestThreshold {
			out = append(out, s)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate titles: %w", err)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID > out[j].ID
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
