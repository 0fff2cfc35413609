package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cinedex/cinedex/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterFetchMetrics()
	os.Exit(m.Run())
}

const popularBody = `{
	"page": 1,
	"results": [{"id": 278}, {"id": 680}, {"id": 155}],
	"total_pages": 500
}`

const detailsBody = `{
	"id": 278,
	"title": "The Shawshank Redemption",
	"release_date": "1994-09-23",
	"runtime": 142,
	"vote_average": 8.7,
	"genres": [{"name": "Drama"}, {"name": "Crime"}],
	"production_countries": [{"iso_3166_1": "US"}],
	"credits": {
		"cast": [
			{"name": "Tim Robbins", "order": 0},
			{"name": "Morgan Freeman", "order": 1},
			{"name": "Bob Gunton", "order": 2},
			{"name": "William Sadler", "order": 3},
			{"name": "Clancy Brown", "order": 4},
			{"name": "Gil Bellows", "order": 5}
		],
		"crew": [
			{"name": "Niki Marvin", "job": "Producer"},
			{"name": "Frank Darabont", "job": "Director"}
		]
	}
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient(&Config{
		APIToken:       "test-token",
		BaseURL:        server.URL,
		Language:       "en-US",
		RequestsPerSec: 1000, // no throttling in tests
	})
	return client, server
}

func TestPopular(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/popular" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-token" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("page") != "2" {
			t.Errorf("page = %s", r.URL.Query().Get("page"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(popularBody))
	})

	ids, err := client.Popular(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(ids, []int{278, 680, 155}) {
		t.Errorf("ids = %v", ids)
	}
}

func TestDetails_MapsSymbolicVocabulary(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/movie/278" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("append_to_response") != "credits" {
			t.Error("credits not appended")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(detailsBody))
	})

	raw, err := client.Details(context.Background(), 278)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if raw["name"] != "The Shawshank Redemption" {
		t.Errorf("name = %v", raw["name"])
	}
	if raw["date"] != "1994-09-23" {
		t.Errorf("date = %v", raw["date"])
	}
	if raw["duration"] != 142 {
		t.Errorf("duration = %v", raw["duration"])
	}
	if raw["rating"] != 8.7 {
		t.Errorf("rating = %v", raw["rating"])
	}
	if raw["director"] != "Frank Darabont" {
		t.Errorf("director = %v, want the crew member with the Director job", raw["director"])
	}
	if !reflect.DeepEqual(raw["genre"], []string{"Drama", "Crime"}) {
		t.Errorf("genre = %v", raw["genre"])
	}
	if !reflect.DeepEqual(raw["country"], []string{"US"}) {
		t.Errorf("country = %v", raw["country"])
	}
	actors, ok := raw["actors"].([]string)
	if !ok || len(actors) != 5 {
		t.Fatalf("actors = %v, want top 5 billed", raw["actors"])
	}
	if actors[0] != "Tim Robbins" || actors[4] != "Clancy Brown" {
		t.Errorf("actors = %v", actors)
	}
	if raw["link"] != "https://www.themoviedb.org/movie/278" {
		t.Errorf("link = %v", raw["link"])
	}
}

func TestDetails_Cached(t *testing.T) {
	var hits atomic.Int32
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(detailsBody))
	})

	for i := 0; i < 3; i++ {
		if _, err := client.Details(context.Background(), 278); err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
	}
	if hits.Load() != 1 {
		t.Errorf("server hit %d times, want 1 (cached)", hits.Load())
	}
}

func TestDetails_CacheExpires(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(detailsBody))
	}))
	defer server.Close()

	client := NewClient(&Config{
		APIToken:       "test-token",
		BaseURL:        server.URL,
		RequestsPerSec: 1000,
		CacheTTL:       time.Nanosecond,
	})

	_, _ = client.Details(context.Background(), 278)
	time.Sleep(time.Millisecond)
	_, _ = client.Details(context.Background(), 278)
	if hits.Load() != 2 {
		t.Errorf("server hit %d times, want 2 (expired entry refetched)", hits.Load())
	}
}

func TestTransportErrorOnBadStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := client.Popular(context.Background(), 1)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport", err)
	}
}

func TestDecodeErrorOnMalformedBody(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	})

	_, err := client.Details(context.Background(), 278)
	if !errors.Is(err, ErrDecode) {
		t.Errorf("error = %v, want ErrDecode", err)
	}
	// Transport and decode failures stay distinguishable.
	if errors.Is(err, ErrTransport) {
		t.Error("decode error must not match ErrTransport")
	}
}

func TestContextCancellation(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(popularBody))
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Popular(ctx, 1)
	if !errors.Is(err, ErrTransport) {
		t.Errorf("error = %v, want ErrTransport wrapping the cancellation", err)
	}
}
