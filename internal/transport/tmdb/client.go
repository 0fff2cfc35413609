// Package tmdb is the remote catalog API client. It produces raw field
// mappings in the symbolic vocabulary shared with the catalog loaders;
// record construction and the error policy for bad movies stay with the
// caller.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/cinedex/cinedex/internal/domain/record"
	"github.com/cinedex/cinedex/internal/metrics"
)

// PageSize is the fixed page size of TMDB list endpoints.
const PageSize = 20

const defaultBaseURL = "https://api.themoviedb.org/3"

var (
	// ErrTransport signals a failed request or a non-2xx status.
	ErrTransport = errors.New("tmdb: transport failure")
	// ErrDecode signals a response that did not match the expected shape.
	ErrDecode = errors.New("tmdb: malformed response")
)

// Config holds TMDB client settings.
type Config struct {
	APIToken       string
	BaseURL        string
	Language       string
	RequestsPerSec float64
	CacheSize      int
	CacheTTL       time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client fetches movie metadata from the TMDB API. Requests are
// rate-limited; detail lookups are deduplicated in flight and cached with
// a TTL.
type Client struct {
	token    string
	baseURL  string
	language string
	httpc    *http.Client
	limiter  *rate.Limiter
	group    singleflight.Group
	cache    *lru.Cache[int, cacheItem]
	cacheTTL time.Duration
	logger   *zap.Logger
}

type cacheItem struct {
	raw       map[string]any
	expiredAt time.Time
}

// NewClient creates a TMDB client.
func NewClient(cfg *Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpc := cfg.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 30 * time.Second}
	}
	rps := cfg.RequestsPerSec
	if rps <= 0 {
		rps = 4
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = 512
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = time.Hour
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	// lru.New only fails on size <= 0.
	cache, _ := lru.New[int, cacheItem](size)
	return &Client{
		token:    cfg.APIToken,
		baseURL:  baseURL,
		language: cfg.Language,
		httpc:    httpc,
		limiter:  rate.NewLimiter(rate.Limit(rps), 1),
		cache:    cache,
		cacheTTL: ttl,
		logger:   logger,
	}
}

type popularResponse struct {
	Page    int `json:"page"`
	Results []struct {
		ID int `json:"id"`
	} `json:"results"`
	TotalPages int `json:"total_pages"`
}

// Popular returns one page of movie ids ranked by popularity.
func (c *Client) Popular(ctx context.Context, page int) ([]int, error) {
	url := fmt.Sprintf("%s/movie/popular?language=%s&page=%d", c.baseURL, c.language, page)

	var resp popularResponse
	if err := c.getJSON(ctx, "popular", url, &resp); err != nil {
		return nil, err
	}

	ids := make([]int, 0, len(resp.Results))
	for _, r := range resp.Results {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

type detailsResponse struct {
	ID                  int     `json:"id"`
	Title               string  `json:"title"`
	ReleaseDate         string  `json:"release_date"`
	Runtime             int     `json:"runtime"`
	VoteAverage         float64 `json:"vote_average"`
	Genres              []struct {
		Name string `json:"name"`
	} `json:"genres"`
	ProductionCountries []struct {
		ISO string `json:"iso_3166_1"`
	} `json:"production_countries"`
	Credits struct {
		Cast []struct {
			Name  string `json:"name"`
			Order int    `json:"order"`
		} `json:"cast"`
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// Details returns the raw field mapping for one movie. Concurrent calls
// for the same id share one request; results are cached for the TTL.
func (c *Client) Details(ctx context.Context, id int) (map[string]any, error) {
	if item, ok := c.cache.Get(id); ok {
		if time.Now().Before(item.expiredAt) {
			return item.raw, nil
		}
		c.cache.Remove(id)
	}

	val, err, _ := c.group.Do(strconv.Itoa(id), func() (any, error) {
		return c.fetchDetails(ctx, id)
	})
	if err != nil {
		return nil, err
	}
	raw := val.(map[string]any)
	c.cache.Add(id, cacheItem{raw: raw, expiredAt: time.Now().Add(c.cacheTTL)})
	return raw, nil
}

func (c *Client) fetchDetails(ctx context.Context, id int) (map[string]any, error) {
	url := fmt.Sprintf("%s/movie/%d?language=%s&append_to_response=credits", c.baseURL, id, c.language)

	var resp detailsResponse
	if err := c.getJSON(ctx, "details", url, &resp); err != nil {
		return nil, err
	}
	return c.toRaw(&resp), nil
}

// toRaw maps a details response into the symbolic field vocabulary.
// Director is the first crew member credited with the Director job; actors
// are the top-billed cast up to the record cap.
func (c *Client) toRaw(d *detailsResponse) map[string]any {
	raw := map[string]any{
		"link":     fmt.Sprintf("https://www.themoviedb.org/movie/%d", d.ID),
		"name":     d.Title,
		"date":     d.ReleaseDate,
		"duration": d.Runtime,
		"rating":   d.VoteAverage,
	}

	if len(d.Genres) > 0 {
		genres := make([]string, 0, len(d.Genres))
		for _, g := range d.Genres {
			genres = append(genres, g.Name)
		}
		raw["genre"] = genres
	}

	if len(d.ProductionCountries) > 0 {
		countries := make([]string, 0, len(d.ProductionCountries))
		for _, pc := range d.ProductionCountries {
			countries = append(countries, pc.ISO)
		}
		raw["country"] = countries
	}

	for _, crew := range d.Credits.Crew {
		if crew.Job == "Director" {
			raw["director"] = crew.Name
			break
		}
	}

	cast := make([]struct {
		Name  string `json:"name"`
		Order int    `json:"order"`
	}, len(d.Credits.Cast))
	copy(cast, d.Credits.Cast)
	sort.SliceStable(cast, func(i, j int) bool { return cast[i].Order < cast[j].Order })
	if len(cast) > record.MaxActors {
		cast = cast[:record.MaxActors]
	}
	if len(cast) > 0 {
		actors := make([]string, 0, len(cast))
		for _, a := range cast {
			actors = append(actors, a.Name)
		}
		raw["actors"] = actors
	}

	return raw
}

func (c *Client) getJSON(ctx context.Context, endpoint, url string, target any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: rate wait: %v", ErrTransport, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return fmt.Errorf("%w: new request: %v", ErrTransport, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		c.countRequest(endpoint, "error")
		return fmt.Errorf("%w: %v", ErrTransport, err)
	}
	defer func() { _ = resp.Body.Close() }()

	c.countRequest(endpoint, strconv.Itoa(resp.StatusCode))
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s returned status %d", ErrTransport, endpoint, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrDecode, endpoint, err)
	}
	return nil
}

func (c *Client) countRequest(endpoint, status string) {
	if metrics.TMDBRequestsTotal != nil {
		metrics.TMDBRequestsTotal.WithLabelValues(endpoint, status).Inc()
	}
}
