package chi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/cinedex/cinedex/internal/domain"
	"github.com/cinedex/cinedex/internal/domain/record"
	"github.com/cinedex/cinedex/internal/usecase/query"
)

const defaultLongest = 10

// Error codes returned in the JSON error body.
const (
	codeBadRequest       = "bad_request"
	codeNotFound         = "not_found"
	codeUnknownAlgorithm = "unknown_algorithm"
	codeUnknownFilter    = "unknown_filter"
	codeInternalError    = "internal_error"
)

// Server is the read-side HTTP API over the query engine.
type Server struct {
	queries *query.Service
	logger  *zap.Logger
}

// NewServer creates an HTTP API server.
func NewServer(queries *query.Service, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{queries: queries, logger: logger}
}

// Routes mounts all API handlers on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Get("/movies", s.ListMovies)
	r.Get("/movies/longest", s.Longest)
	r.Get("/movies/genre/{genre}", s.ByGenre)
	r.Get("/movies/sorted/{key}", s.Sorted)
	r.Post("/movies/filter", s.Filter)
	r.Get("/movies/{name}", s.GetMovie)

	r.Get("/stats/directors", s.Directors)
	r.Get("/stats/directors/count", s.CountByDirector)
	r.Get("/stats/actors/count", s.CountByActor)
	r.Get("/stats/months", s.MonthStats)

	r.Get("/directors/{name}/movies", s.DirectorMovies)
}

// movieResponse is the wire shape of one record.
type movieResponse struct {
	Link     string   `json:"link,omitempty"`
	Name     string   `json:"name"`
	Year     int      `json:"year"`
	Country  string   `json:"country,omitempty"`
	Date     string   `json:"date"`
	Genre    []string `json:"genre"`
	Duration int      `json:"duration"`
	Rating   float64  `json:"rating"`
	Director string   `json:"director,omitempty"`
	Actors   []string `json:"actors,omitempty"`
}

type groupCountResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type monthCountResponse struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"movies": s.queries.Size(),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// ListMovies handles GET /movies.
func (s *Server) ListMovies(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, moviesToResponse(s.queries.Records()))
}

// GetMovie handles GET /movies/{name}. The lookup is exact but
// case-insensitive.
func (s *Server) GetMovie(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	movie, ok, err := s.queries.Find(name)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, codeNotFound, "movie not found")
		return
	}

	writeJSON(w, http.StatusOK, movieToResponse(movie))
}

// Longest handles GET /movies/longest?n=.
func (s *Server) Longest(w http.ResponseWriter, r *http.Request) {
	n := defaultLongest
	if raw := r.URL.Query().Get("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v <= 0 {
			writeError(w, http.StatusBadRequest, codeBadRequest, "n must be a positive integer")
			return
		}
		n = v
	}

	writeJSON(w, http.StatusOK, moviesToResponse(s.queries.Longest(n)))
}

// ByGenre handles GET /movies/genre/{genre}.
func (s *Server) ByGenre(w http.ResponseWriter, r *http.Request) {
	genre := chi.URLParam(r, "genre")
	writeJSON(w, http.StatusOK, moviesToResponse(s.queries.SelectByGenre(genre)))
}

// Sorted handles GET /movies/sorted/{key}.
func (s *Server) Sorted(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	movies, err := s.queries.SortedBy(key, nil)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, moviesToResponse(movies))
}

type filterRequest struct {
	Criteria []struct {
		Key string `json:"key"`
		Arg any    `json:"arg"`
	} `json:"criteria"`
}

// Filter handles POST /movies/filter. Criteria are applied in body order
// and AND-composed.
func (s *Server) Filter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(req.Criteria) == 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "at least one criterion is required")
		return
	}

	criteria := make([]query.Criterion, len(req.Criteria))
	for i, c := range req.Criteria {
		if c.Key == "" {
			writeError(w, http.StatusBadRequest, codeBadRequest, "criterion key is required")
			return
		}
		criteria[i] = query.Criterion{Key: c.Key, Arg: c.Arg}
	}

	movies, err := s.queries.Filter(criteria)
	if err != nil {
		s.handleQueryError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, moviesToResponse(movies))
}

// Directors handles GET /stats/directors.
func (s *Server) Directors(w http.ResponseWriter, r *http.Request) {
	directors := s.queries.Directors()
	if directors == nil {
		directors = []string{}
	}
	writeJSON(w, http.StatusOK, directors)
}

// CountByDirector handles GET /stats/directors/count.
func (s *Server) CountByDirector(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, groupsToResponse(s.queries.CountByDirector()))
}

// CountByActor handles GET /stats/actors/count.
func (s *Server) CountByActor(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, groupsToResponse(s.queries.CountByActor()))
}

// MonthStats handles GET /stats/months.
func (s *Server) MonthStats(w http.ResponseWriter, r *http.Request) {
	stats := s.queries.MonthStats()
	items := make([]monthCountResponse, len(stats))
	for i, m := range stats {
		items[i] = monthCountResponse{Month: m.Month.String(), Count: m.Count}
	}
	writeJSON(w, http.StatusOK, items)
}

// DirectorMovies handles GET /directors/{name}/movies.
func (s *Server) DirectorMovies(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	titles := s.queries.ByDirector(name)
	if titles == nil {
		titles = []string{}
	}
	writeJSON(w, http.StatusOK, titles)
}

func (s *Server) handleQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownAlgorithm):
		writeError(w, http.StatusBadRequest, codeUnknownAlgorithm, err.Error())
	case errors.Is(err, domain.ErrUnknownFilter):
		writeError(w, http.StatusBadRequest, codeUnknownFilter, err.Error())
	case errors.Is(err, domain.ErrEmptyQuery):
		writeError(w, http.StatusBadRequest, codeBadRequest, err.Error())
	default:
		s.logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func movieToResponse(m record.Record) movieResponse {
	return movieResponse{
		Link:     m.Link(),
		Name:     m.Name(),
		Year:     m.Year(),
		Country:  m.Country(),
		Date:     m.Date().Format("2006-01-02"),
		Genre:    m.Genre(),
		Duration: m.Duration(),
		Rating:   m.Rating(),
		Director: m.Director(),
		Actors:   m.Actors(),
	}
}

func moviesToResponse(movies []record.Record) []movieResponse {
	items := make([]movieResponse, len(movies))
	for i, m := range movies {
		items[i] = movieToResponse(m)
	}
	return items
}

func groupsToResponse(groups []query.GroupCount) []groupCountResponse {
	items := make([]groupCountResponse, len(groups))
	for i, g := range groups {
		items[i] = groupCountResponse{Name: g.Name, Count: g.Count}
	}
	return items
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}
