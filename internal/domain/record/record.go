package record

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxActors is the credited-cast cap; longer lists are truncated on construction.
const MaxActors = 5

// dateLayout is the calendar date format used by both catalog serializations.
const dateLayout = "2006-01-02"

// Record is one normalized movie entry (immutable value object).
type Record struct {
	link     string
	name     string
	year     int
	country  string
	date     time.Time
	genre    []string
	duration int
	rating   float64
	director string
	actors   []string
}

// Params carries the normalized fields for constructing a Record.
type Params struct {
	Link     string
	Name     string
	Year     int
	Country  string
	Date     time.Time
	Genre    []string
	Duration int
	Rating   float64
	Director string // "" = no person held the role
	Actors   []string
}

// New validates and creates a Record.
// Name, Date and Genre are required. Year defaults to the release year.
// Actors are truncated to MaxActors.
func New(p Params) (Record, error) {
	if p.Name == "" {
		return Record{}, fmt.Errorf("name is required")
	}
	if p.Date.IsZero() {
		return Record{}, fmt.Errorf("date is required for %q", p.Name)
	}
	if len(p.Genre) == 0 {
		return Record{}, fmt.Errorf("genre is required for %q", p.Name)
	}
	if p.Duration < 0 {
		return Record{}, fmt.Errorf("duration must be >= 0 for %q, got %d", p.Name, p.Duration)
	}
	year := p.Year
	if year == 0 {
		year = p.Date.Year()
	}
	actors := p.Actors
	if len(actors) > MaxActors {
		actors = actors[:MaxActors]
	}
	return Record{
		link:     p.Link,
		name:     p.Name,
		year:     year,
		country:  p.Country,
		date:     p.Date,
		genre:    cloneStrings(p.Genre),
		duration: p.Duration,
		rating:   p.Rating,
		director: p.Director,
		actors:   cloneStrings(actors),
	}, nil
}

// FromRaw normalizes a raw field mapping into a Record.
// Values may come from the tabular loader (strings and string lists),
// the structured-text loader (YAML scalars) or the remote fetcher, so
// every field tolerates both string and native representations.
func FromRaw(raw map[string]any) (Record, error) {
	name, err := stringField(raw, "name")
	if err != nil {
		return Record{}, err
	}
	date, err := dateField(raw, "date")
	if err != nil {
		return Record{}, err
	}
	genre, err := listField(raw, "genre")
	if err != nil {
		return Record{}, err
	}
	year, err := intField(raw, "year")
	if err != nil {
		return Record{}, err
	}
	duration, err := intField(raw, "duration")
	if err != nil {
		return Record{}, err
	}
	rating, err := floatField(raw, "rating")
	if err != nil {
		return Record{}, err
	}
	country, err := firstField(raw, "country")
	if err != nil {
		return Record{}, err
	}
	director, err := optionalString(raw, "director")
	if err != nil {
		return Record{}, err
	}
	actors, err := optionalList(raw, "actors")
	if err != nil {
		return Record{}, err
	}
	link, err := optionalString(raw, "link")
	if err != nil {
		return Record{}, err
	}

	return New(Params{
		Link:     link,
		Name:     name,
		Year:     year,
		Country:  country,
		Date:     date,
		Genre:    genre,
		Duration: duration,
		Rating:   rating,
		Director: director,
		Actors:   actors,
	})
}

// Link returns the canonical detail-page URI.
func (r *Record) Link() string { return r.link }

// Name returns the movie title.
func (r *Record) Name() string { return r.name }

// Year returns the release year.
func (r *Record) Year() int { return r.year }

// Country returns the first listed production country code.
func (r *Record) Country() string { return r.country }

// Date returns the full release date.
func (r *Record) Date() time.Time { return r.date }

// Genre returns the genre labels in source order.
func (r *Record) Genre() []string { return r.genre }

// Duration returns the runtime in minutes.
func (r *Record) Duration() int { return r.duration }

// Rating returns the vote average.
func (r *Record) Rating() float64 { return r.rating }

// Director returns the director name, or "" when absent.
func (r *Record) Director() string { return r.director }

// Actors returns the top credited cast (at most MaxActors).
func (r *Record) Actors() []string { return r.actors }

// HasGenre reports whether the genre list contains g (case-sensitive).
func (r *Record) HasGenre(g string) bool {
	for _, have := range r.genre {
		if have == g {
			return true
		}
	}
	return false
}

// Raw returns the record as a field mapping in the symbolic vocabulary.
// Inverse of FromRaw, used by the catalog writers.
func (r *Record) Raw() map[string]any {
	return map[string]any{
		"link":     r.link,
		"name":     r.name,
		"year":     r.year,
		"country":  r.country,
		"date":     r.date.Format(dateLayout),
		"genre":    cloneStrings(r.genre),
		"duration": r.duration,
		"rating":   r.rating,
		"director": r.director,
		"actors":   cloneStrings(r.actors),
	}
}

// --- raw field coercion ---

func stringField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", fmt.Errorf("field %q is required", key)
	}
	s, err := asString(v)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	if s == "" {
		return "", fmt.Errorf("field %q is required", key)
	}
	return s, nil
}

func optionalString(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	s, err := asString(v)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	return s, nil
}

func dateField(raw map[string]any, key string) (time.Time, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return time.Time{}, fmt.Errorf("field %q is required", key)
	}
	switch d := v.(type) {
	case time.Time:
		return d, nil
	case string:
		t, err := time.Parse(dateLayout, d)
		if err != nil {
			return time.Time{}, fmt.Errorf("field %q: bad date %q", key, d)
		}
		return t, nil
	default:
		return time.Time{}, fmt.Errorf("field %q: bad date type %T", key, v)
	}
}

func intField(raw map[string]any, key string) (int, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return n, nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, fmt.Errorf("field %q: bad integer %q", key, n)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("field %q: bad integer type %T", key, v)
	}
}

func floatField(raw map[string]any, key string) (float64, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		if n == "" {
			return 0, nil
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, fmt.Errorf("field %q: bad number %q", key, n)
		}
		return f, nil
	default:
		return 0, fmt.Errorf("field %q: bad number type %T", key, v)
	}
}

func listField(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, fmt.Errorf("field %q is required", key)
	}
	list, err := asList(v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("field %q is required", key)
	}
	return list, nil
}

func optionalList(raw map[string]any, key string) ([]string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil, nil
	}
	list, err := asList(v)
	if err != nil {
		return nil, fmt.Errorf("field %q: %w", key, err)
	}
	return list, nil
}

// firstField returns the first element of a list-valued field, or the
// scalar itself. Used for country, where only the first listed code is kept.
func firstField(raw map[string]any, key string) (string, error) {
	v, ok := raw[key]
	if !ok || v == nil {
		return "", nil
	}
	list, err := asList(v)
	if err != nil {
		return "", fmt.Errorf("field %q: %w", key, err)
	}
	if len(list) == 0 {
		return "", nil
	}
	return list[0], nil
}

func asString(v any) (string, error) {
	switch s := v.(type) {
	case string:
		return s, nil
	case int:
		return strconv.Itoa(s), nil
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("bad string type %T", v)
	}
}

func asList(v any) ([]string, error) {
	switch l := v.(type) {
	case []string:
		return cloneStrings(l), nil
	case []any:
		out := make([]string, 0, len(l))
		for _, item := range l {
			s, err := asString(item)
			if err != nil {
				return nil, err
			}
			out = append(out, s)
		}
		return out, nil
	case string:
		return []string{l}, nil
	default:
		return nil, fmt.Errorf("bad list type %T", v)
	}
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	c := make([]string, len(s))
	copy(c, s)
	return c
}
