package query

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cinedex/cinedex/internal/domain"
	"github.com/cinedex/cinedex/internal/domain/record"
)

// SortFunc extracts the sort key for one record.
type SortFunc func(record.Record) Key

// FilterFunc reports whether a record matches the given argument.
type FilterFunc func(record.Record, any) bool

// Criterion is one filter step: a registered predicate name plus its
// argument. Filter applies criteria in slice order, so the caller's
// insertion order is the application order.
type Criterion struct {
	Key string
	Arg any
}

// GroupCount is one entry of a grouped count, ordered by the operation
// that produced it.
type GroupCount struct {
	Name  string
	Count int
}

// MonthCount is the number of releases in one calendar month.
type MonthCount struct {
	Month time.Month
	Count int
}

// Service is the in-memory query engine over a loaded record collection.
// The collection is fixed at construction; the sort and filter registries
// start empty and are populated by the embedding application (see
// RegisterBuiltins). The engine does no locking: register everything
// before spawning readers.
type Service struct {
	movies  []record.Record
	sorts   map[string]SortFunc
	filters map[string]FilterFunc
	logger  *zap.Logger
}

// New creates a query engine over the given records.
func New(movies []record.Record, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	owned := make([]record.Record, len(movies))
	copy(owned, movies)
	return &Service{
		movies:  owned,
		sorts:   make(map[string]SortFunc),
		filters: make(map[string]FilterFunc),
		logger:  logger,
	}
}

// Size returns the collection size.
func (s *Service) Size() int { return len(s.movies) }

// Records returns a copy of the collection in load order.
func (s *Service) Records() []record.Record {
	out := make([]record.Record, len(s.movies))
	copy(out, s.movies)
	return out
}

// Find returns the first record whose name matches (case-insensitive,
// exact). Not finding anything is not an error; an empty name is.
func (s *Service) Find(name string) (record.Record, bool, error) {
	if strings.TrimSpace(name) == "" {
		return record.Record{}, false, fmt.Errorf("%w: movie name", domain.ErrEmptyQuery)
	}
	for _, m := range s.movies {
		if strings.EqualFold(m.Name(), name) {
			return m, true, nil
		}
	}
	return record.Record{}, false, nil
}

// RegisterSort stores a sort algorithm under name, silently replacing any
// previous registration.
func (s *Service) RegisterSort(name string, fn SortFunc) {
	s.sorts[name] = fn
}

// RegisterFilter stores a filter predicate under name, silently replacing
// any previous registration.
func (s *Service) RegisterFilter(name string, fn FilterFunc) {
	s.filters[name] = fn
}

// SortedBy returns the collection stably sorted by the algorithm
// registered under name. When the name is not registered the explicitly
// supplied fallback key function is used instead; with neither the call
// fails with domain.ErrUnknownAlgorithm. The two paths never mix silently.
func (s *Service) SortedBy(name string, fallback SortFunc) ([]record.Record, error) {
	fn, ok := s.sorts[name]
	if !ok {
		if fallback == nil {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownAlgorithm, name)
		}
		fn = fallback
	}
	return s.sortBy(fn), nil
}

// Filter narrows the collection by AND-composing the criteria left to
// right. An unregistered criterion key aborts the whole call with
// domain.ErrUnknownFilter.
func (s *Service) Filter(criteria []Criterion) ([]record.Record, error) {
	out := s.Records()
	for _, c := range criteria {
		fn, ok := s.filters[c.Key]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFilter, c.Key)
		}
		kept := out[:0]
		for _, m := range out {
			if fn(m, c.Arg) {
				kept = append(kept, m)
			}
		}
		out = kept
	}
	return out, nil
}

// Longest returns the n records with the greatest duration: the collection
// is stably sorted ascending by duration and the trailing n are kept, so
// ties near the cutoff preserve load order. n beyond the collection size
// returns everything.
func (s *Service) Longest(n int) []record.Record {
	if n <= 0 {
		return nil
	}
	sorted := s.sortBy(func(r record.Record) Key { return Key{r.Duration()} })
	if n >= len(sorted) {
		return sorted
	}
	return sorted[len(sorted)-n:]
}

// SelectByGenre returns records whose genre list contains genre
// (case-sensitive), ascending by release date.
func (s *Service) SelectByGenre(genre string) []record.Record {
	var out []record.Record
	for _, m := range s.movies {
		if m.HasGenre(genre) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date().Before(out[j].Date())
	})
	return out
}

// Directors returns the distinct director names sorted ascending by the
// last space-delimited token, case-sensitive. Records without a director
// are excluded.
func (s *Service) Directors() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, m := range s.movies {
		d := m.Director()
		if d == "" {
			continue
		}
		if _, ok := seen[d]; ok {
			continue
		}
		seen[d] = struct{}{}
		out = append(out, d)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return lastToken(out[i]) < lastToken(out[j])
	})
	return out
}

// SkipCountry counts the records whose country differs from country.
func (s *Service) SkipCountry(country string) int {
	n := 0
	for _, m := range s.movies {
		if m.Country() != country {
			n++
		}
	}
	return n
}

// CountByDirector returns movie counts per director, descending by count;
// equal counts keep first-seen director order. Records without a director
// are excluded, consistent with Directors.
func (s *Service) CountByDirector() []GroupCount {
	return s.countBy(func(m record.Record) []string {
		if m.Director() == "" {
			return nil
		}
		return []string{m.Director()}
	})
}

// ByDirector returns the names of this director's movies in load order.
func (s *Service) ByDirector(director string) []string {
	var out []string
	for _, m := range s.movies {
		if m.Director() == director {
			out = append(out, m.Name())
		}
	}
	return out
}

// CountByActor returns appearance counts per credited actor, descending by
// count; equal counts keep first-seen actor order.
func (s *Service) CountByActor() []GroupCount {
	return s.countBy(func(m record.Record) []string { return m.Actors() })
}

// MonthStats returns release counts per calendar month, ascending by month
// number. The result is sparse: months with no releases are omitted.
func (s *Service) MonthStats() []MonthCount {
	counts := make(map[time.Month]int)
	for _, m := range s.movies {
		counts[m.Date().Month()]++
	}
	var out []MonthCount
	for month := time.January; month <= time.December; month++ {
		if n, ok := counts[month]; ok {
			out = append(out, MonthCount{Month: month, Count: n})
		}
	}
	return out
}

func (s *Service) sortBy(fn SortFunc) []record.Record {
	out := s.Records()
	keys := make([]Key, len(out))
	for i, m := range out {
		keys[i] = fn(m)
	}
	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return Compare(keys[idx[i]], keys[idx[j]]) < 0
	})
	sorted := make([]record.Record, len(out))
	for i, from := range idx {
		sorted[i] = out[from]
	}
	return sorted
}

func (s *Service) countBy(names func(record.Record) []string) []GroupCount {
	counts := make(map[string]int)
	var order []string
	for _, m := range s.movies {
		for _, name := range names(m) {
			if _, ok := counts[name]; !ok {
				order = append(order, name)
			}
			counts[name]++
		}
	}
	out := make([]GroupCount, len(order))
	for i, name := range order {
		out[i] = GroupCount{Name: name, Count: counts[name]}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

func lastToken(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return name
	}
	return fields[len(fields)-1]
}
