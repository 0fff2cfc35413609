package ingest

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/cinedex/cinedex/internal/domain/record"
)

type fakeFetcher struct {
	pages   map[int][]int
	details map[int]map[string]any
	errs    map[int]error
	pageErr map[int]error
}

func (f *fakeFetcher) Popular(_ context.Context, page int) ([]int, error) {
	if err := f.pageErr[page]; err != nil {
		return nil, err
	}
	return f.pages[page], nil
}

func (f *fakeFetcher) Details(_ context.Context, id int) (map[string]any, error) {
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	raw, ok := f.details[id]
	if !ok {
		return nil, fmt.Errorf("no detail stub for id %d", id)
	}
	return raw, nil
}

type fakeWriter struct {
	path    string
	records []record.Record
	calls   int
	err     error
}

func (w *fakeWriter) Save(path string, records []record.Record) error {
	w.calls++
	w.path = path
	w.records = records
	return w.err
}

func rawMovie(name string) map[string]any {
	return map[string]any{
		"name":     name,
		"date":     "1994-09-23",
		"genre":    []string{"Drama"},
		"duration": 142,
		"rating":   8.7,
	}
}

func TestRun_FetchesAcrossPages(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[int][]int{1: {1, 2}, 2: {3}},
		details: map[int]map[string]any{
			1: rawMovie("First"),
			2: rawMovie("Second"),
			3: rawMovie("Third"),
		},
	}
	writer := &fakeWriter{}

	summary, err := New(fetcher, writer, nil).Run(context.Background(), 3, "out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Fetched != 3 || summary.Skipped != 0 {
		t.Errorf("summary = %+v, want 3 fetched, 0 skipped", summary)
	}
	if writer.path != "out.txt" {
		t.Errorf("saved to %q", writer.path)
	}
	if len(writer.records) != 3 || writer.records[2].Name() != "Third" {
		t.Errorf("saved records = %v", writer.records)
	}
}

func TestRun_StopsAtCount(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[int][]int{1: {1, 2, 3}},
		details: map[int]map[string]any{
			1: rawMovie("First"),
			2: rawMovie("Second"),
			3: rawMovie("Third"),
		},
	}
	writer := &fakeWriter{}

	summary, err := New(fetcher, writer, nil).Run(context.Background(), 2, "out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Fetched != 2 {
		t.Errorf("fetched = %d, want 2", summary.Fetched)
	}
	if len(writer.records) != 2 {
		t.Errorf("saved %d records, want 2", len(writer.records))
	}
}

func TestRun_ListingExhausted(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:   map[int][]int{1: {1}},
		details: map[int]map[string]any{1: rawMovie("Only")},
	}
	writer := &fakeWriter{}

	summary, err := New(fetcher, writer, nil).Run(context.Background(), 10, "out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Fetched != 1 {
		t.Errorf("fetched = %d, want 1", summary.Fetched)
	}
}

func TestRun_AbortOnDetailsError(t *testing.T) {
	boom := errors.New("boom")
	fetcher := &fakeFetcher{
		pages:   map[int][]int{1: {1, 2}},
		details: map[int]map[string]any{1: rawMovie("First")},
		errs:    map[int]error{2: boom},
	}
	writer := &fakeWriter{}

	_, err := New(fetcher, writer, nil).Run(context.Background(), 2, "out.txt")
	if !errors.Is(err, boom) {
		t.Fatalf("error = %v, want the fetch failure", err)
	}
	if writer.calls != 0 {
		t.Error("nothing must be written on abort")
	}
}

func TestRun_AbortOnMalformedMovie(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[int][]int{1: {1}},
		details: map[int]map[string]any{
			1: {"date": "1994-09-23", "genre": []string{"Drama"}}, // no name
		},
	}
	writer := &fakeWriter{}

	_, err := New(fetcher, writer, nil).Run(context.Background(), 1, "out.txt")
	if err == nil || !strings.Contains(err.Error(), "normalize 1") {
		t.Fatalf("error = %v, want a normalize failure", err)
	}
	if writer.calls != 0 {
		t.Error("nothing must be written on abort")
	}
}

func TestRun_SkipPolicyKeepsGoing(t *testing.T) {
	fetcher := &fakeFetcher{
		pages: map[int][]int{1: {1, 2, 3}},
		details: map[int]map[string]any{
			1: rawMovie("First"),
			2: {"date": "1994-09-23"}, // malformed
			3: rawMovie("Third"),
		},
	}
	writer := &fakeWriter{}

	summary, err := New(fetcher, writer, nil).WithPolicy(Skip).Run(context.Background(), 3, "out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Fetched != 2 || summary.Skipped != 1 {
		t.Errorf("summary = %+v, want 2 fetched, 1 skipped", summary)
	}
	if len(writer.records) != 2 || writer.records[1].Name() != "Third" {
		t.Errorf("saved records = %v", writer.records)
	}
}

func TestRun_SkipPolicySurvivesPageError(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:   map[int][]int{1: {1}},
		details: map[int]map[string]any{1: rawMovie("First")},
		pageErr: map[int]error{2: errors.New("listing down")},
	}
	writer := &fakeWriter{}

	summary, err := New(fetcher, writer, nil).WithPolicy(Skip).Run(context.Background(), 3, "out.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Fetched != 1 || summary.Skipped != 2 {
		t.Errorf("summary = %+v, want 1 fetched, 2 skipped", summary)
	}
	if writer.calls != 1 {
		t.Error("partial result must still be written")
	}
}

func TestRun_SaveFailure(t *testing.T) {
	fetcher := &fakeFetcher{
		pages:   map[int][]int{1: {1}},
		details: map[int]map[string]any{1: rawMovie("Only")},
	}
	writer := &fakeWriter{err: errors.New("disk full")}

	_, err := New(fetcher, writer, nil).Run(context.Background(), 1, "out.txt")
	if err == nil || !strings.Contains(err.Error(), "save catalog") {
		t.Fatalf("error = %v, want a save failure", err)
	}
}

func TestPolicyFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    Policy
		wantErr bool
	}{
		{"abort", Abort, false},
		{"skip", Skip, false},
		{"", Abort, true},
		{"continue", Abort, true},
	}
	for _, tt := range tests {
		got, err := PolicyFromString(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("PolicyFromString(%q) error = %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("PolicyFromString(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
