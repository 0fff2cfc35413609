package cinedex

import (
	"fmt"

	"github.com/cinedex/cinedex/internal/domain/record"
	"github.com/cinedex/cinedex/internal/repository/catalog"
	"github.com/cinedex/cinedex/internal/usecase/query"
)

// Public aliases for the engine vocabulary.
type (
	// Movie is one immutable catalog entry.
	Movie = record.Record
	// MovieParams carries the fields for constructing a Movie.
	MovieParams = record.Params
	// Key is a composite sort key, compared element-wise.
	Key = query.Key
	// SortFunc extracts the sort key for one movie.
	SortFunc = query.SortFunc
	// FilterFunc reports whether a movie matches the given argument.
	FilterFunc = query.FilterFunc
	// Criterion is one filter step, applied in slice order.
	Criterion = query.Criterion
	// GroupCount is one entry of a grouped count.
	GroupCount = query.GroupCount
	// MonthCount is the number of releases in one calendar month.
	MonthCount = query.MonthCount
)

// NewMovie validates and creates a Movie.
func NewMovie(p MovieParams) (Movie, error) {
	return record.New(p)
}

// Client is the cinedex library entry point.
type Client struct {
	store   *catalog.Store
	queries *query.Service
}

// Open loads a catalog file and builds the query engine over it. The file
// extension selects the serialization. The standard sort algorithms and
// filter predicates are installed unless WithoutBuiltins is given.
func Open(path string, opts ...Option) (*Client, error) {
	store := catalog.NewStore()
	records, err := store.Load(path)
	if err != nil {
		return nil, fmt.Errorf("cinedex: open catalog: %w", err)
	}
	c := fromRecords(store, records, opts...)
	return c, nil
}

// FromMovies builds the query engine over an already constructed
// collection, bypassing file loading.
func FromMovies(movies []Movie, opts ...Option) *Client {
	return fromRecords(catalog.NewStore(), movies, opts...)
}

func fromRecords(store *catalog.Store, movies []Movie, opts ...Option) *Client {
	cfg := &clientConfig{builtins: true}
	for _, o := range opts {
		o.apply(cfg)
	}

	queries := query.New(movies, cfg.logger)
	if cfg.builtins {
		query.RegisterBuiltins(queries)
	}
	return &Client{store: store, queries: queries}
}

// Save writes the collection to a catalog file. The extension selects the
// serialization, so Save can also convert between the two formats.
func (c *Client) Save(path string) error {
	if err := c.store.Save(path, c.queries.Records()); err != nil {
		return fmt.Errorf("cinedex: save catalog: %w", err)
	}
	return nil
}

// Size returns the collection size.
func (c *Client) Size() int { return c.queries.Size() }

// Movies returns a copy of the collection in load order.
func (c *Client) Movies() []Movie { return c.queries.Records() }

// Find returns the first movie whose name matches, case-insensitively.
// Not finding anything is not an error; an empty name is.
func (c *Client) Find(name string) (Movie, bool, error) { return c.queries.Find(name) }

// RegisterSort stores a sort algorithm under name.
func (c *Client) RegisterSort(name string, fn SortFunc) { c.queries.RegisterSort(name, fn) }

// RegisterFilter stores a filter predicate under name.
func (c *Client) RegisterFilter(name string, fn FilterFunc) { c.queries.RegisterFilter(name, fn) }

// SortedBy returns the collection sorted by a registered algorithm, or by
// the fallback key function when the name is unregistered.
func (c *Client) SortedBy(name string, fallback SortFunc) ([]Movie, error) {
	return c.queries.SortedBy(name, fallback)
}

// Filter narrows the collection by AND-composing the criteria in order.
func (c *Client) Filter(criteria []Criterion) ([]Movie, error) {
	return c.queries.Filter(criteria)
}

// Longest returns the n movies with the greatest duration.
func (c *Client) Longest(n int) []Movie { return c.queries.Longest(n) }

// SelectByGenre returns movies of the genre, ascending by release date.
func (c *Client) SelectByGenre(genre string) []Movie { return c.queries.SelectByGenre(genre) }

// Directors returns the distinct directors sorted by last name.
func (c *Client) Directors() []string { return c.queries.Directors() }

// SkipCountry counts the movies made outside the given country.
func (c *Client) SkipCountry(country string) int { return c.queries.SkipCountry(country) }

// CountByDirector returns movie counts per director, most prolific first.
func (c *Client) CountByDirector() []GroupCount { return c.queries.CountByDirector() }

// ByDirector returns the names of this director's movies in load order.
func (c *Client) ByDirector(director string) []string { return c.queries.ByDirector(director) }

// CountByActor returns appearance counts per credited actor.
func (c *Client) CountByActor() []GroupCount { return c.queries.CountByActor() }

// MonthStats returns release counts per calendar month.
func (c *Client) MonthStats() []MonthCount { return c.queries.MonthStats() }
