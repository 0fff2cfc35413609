package query

import (
	"github.com/cinedex/cinedex/internal/domain/record"
)

// RegisterBuiltins installs the standard sort algorithms and filter
// predicates. The engine itself ships with empty registries — installing
// the catalog of built-ins is configuration, done by the composition root
// before the first query.
func RegisterBuiltins(s *Service) {
	s.RegisterSort("name", func(r record.Record) Key { return Key{r.Name()} })
	s.RegisterSort("year", func(r record.Record) Key { return Key{r.Year()} })
	s.RegisterSort("date", func(r record.Record) Key { return Key{r.Date()} })
	s.RegisterSort("rating", func(r record.Record) Key { return Key{r.Rating()} })
	s.RegisterSort("duration", func(r record.Record) Key { return Key{r.Duration()} })
	s.RegisterSort("country", func(r record.Record) Key { return Key{r.Country(), r.Name()} })
	// Composite key: genre list lexicographically, then year.
	s.RegisterSort("genres_year", func(r record.Record) Key { return Key{r.Genre(), r.Year()} })

	s.RegisterFilter("genre", filterGenre)
	s.RegisterFilter("year", filterYear)
	s.RegisterFilter("country", filterCountry)
	s.RegisterFilter("director", filterDirector)
	s.RegisterFilter("actor", filterActor)
	s.RegisterFilter("min_rating", filterMinRating)
}

// filterGenre matches records whose genre list contains every requested
// label (case-sensitive). The argument is a string or a list of strings.
func filterGenre(r record.Record, arg any) bool {
	wanted := argStrings(arg)
	if len(wanted) == 0 {
		return false
	}
	for _, g := range wanted {
		if !r.HasGenre(g) {
			return false
		}
	}
	return true
}

func filterYear(r record.Record, arg any) bool {
	year, ok := argInt(arg)
	return ok && r.Year() == year
}

func filterCountry(r record.Record, arg any) bool {
	c, ok := arg.(string)
	return ok && r.Country() == c
}

func filterDirector(r record.Record, arg any) bool {
	d, ok := arg.(string)
	return ok && d != "" && r.Director() == d
}

func filterActor(r record.Record, arg any) bool {
	wanted, ok := arg.(string)
	if !ok {
		return false
	}
	for _, a := range r.Actors() {
		if a == wanted {
			return true
		}
	}
	return false
}

func filterMinRating(r record.Record, arg any) bool {
	min, ok := argFloat(arg)
	return ok && r.Rating() >= min
}

func argStrings(arg any) []string {
	switch v := arg.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

func argInt(arg any) (int, bool) {
	switch v := arg.(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	default:
		return 0, false
	}
}

func argFloat(arg any) (float64, bool) {
	switch v := arg.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	default:
		return 0, false
	}
}
