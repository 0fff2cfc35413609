package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cinedex/cinedex/internal/domain"
	"github.com/cinedex/cinedex/internal/domain/record"
)

// Extensions recognized by the store. Tabular is pipe-delimited text with a
// header row; structured is a YAML array of field-mappings.
const (
	extTabular    = ".txt"
	extStructured = ".yml"
	extStructAlt  = ".yaml"
)

// listSeparator splits embedded lists inside a tabular cell.
const listSeparator = ","

// fieldOrder is the canonical column order for the tabular serialization.
var fieldOrder = []string{
	"link", "name", "year", "country", "date",
	"genre", "duration", "rating", "director", "actors",
}

// rawLoader reads one serialization into raw field mappings.
type rawLoader func(path string) ([]map[string]any, error)

// Store reads and writes catalog files in the two supported serializations.
type Store struct{}

// NewStore creates a catalog file store.
func NewStore() *Store {
	return &Store{}
}

// Load reads the catalog at path into records. The format is chosen by
// extension; a missing file or unrecognized extension fails with
// domain.ErrUnsupportedFormat before any content is read. Malformed content
// fails with domain.ErrMalformedSource — the load is all-or-nothing.
func (s *Store) Load(path string) ([]record.Record, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s does not exist", domain.ErrUnsupportedFormat, path)
	}
	load, err := loaderFor(path)
	if err != nil {
		return nil, err
	}

	raws, err := load(path)
	if err != nil {
		return nil, err
	}

	records := make([]record.Record, 0, len(raws))
	for i, raw := range raws {
		rec, err := record.FromRaw(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %s row %d: %w", domain.ErrMalformedSource, filepath.Base(path), i+1, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save writes records to path in the serialization chosen by extension.
// Only the ingest pipeline writes; the query side never does.
func (s *Store) Save(path string, records []record.Record) error {
	switch filepath.Ext(path) {
	case extTabular:
		return saveTabular(path, records)
	case extStructured, extStructAlt:
		return saveStructured(path, records)
	default:
		return fmt.Errorf("%w: cannot write %s", domain.ErrUnsupportedFormat, path)
	}
}

func loaderFor(path string) (rawLoader, error) {
	switch filepath.Ext(path) {
	case extTabular:
		return loadTabular, nil
	case extStructured, extStructAlt:
		return loadStructured, nil
	default:
		return nil, fmt.Errorf("%w: unrecognized extension %q", domain.ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// loadTabular reads the pipe-delimited form. The header row supplies field
// keys; cells containing the list separator become ordered sub-value lists.
func loadTabular(path string) ([]map[string]any, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	var header []string
	var raws []map[string]any
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(text) == "" {
			continue
		}
		cells := splitRow(text)
		if header == nil {
			header = normalizeHeader(cells)
			continue
		}
		if len(cells) != len(header) {
			return nil, fmt.Errorf("%w: line %d has %d cells, header has %d",
				domain.ErrMalformedSource, line, len(cells), len(header))
		}
		raw := make(map[string]any, len(header))
		for i, cell := range cells {
			if cell == "" {
				continue
			}
			if strings.Contains(cell, listSeparator) {
				raw[header[i]] = splitList(cell)
			} else {
				raw[header[i]] = cell
			}
		}
		raws = append(raws, raw)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", domain.ErrMalformedSource, path, err)
	}
	if header == nil {
		return nil, fmt.Errorf("%w: %s has no header row", domain.ErrMalformedSource, path)
	}
	return raws, nil
}

// loadStructured reads the YAML array-of-mappings form.
func loadStructured(path string) ([]map[string]any, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, path)
	}
	var raws []map[string]any
	if err := yaml.Unmarshal(data, &raws); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", domain.ErrMalformedSource, filepath.Base(path), err)
	}
	for _, raw := range raws {
		normalizeKeys(raw)
	}
	return raws, nil
}

func saveTabular(path string, records []record.Record) error {
	f, err := os.Create(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := bufio.NewWriter(f)
	_, _ = fmt.Fprintln(w, strings.Join(fieldOrder, "|"))
	for _, rec := range records {
		raw := rec.Raw()
		cells := make([]string, len(fieldOrder))
		for i, key := range fieldOrder {
			cells[i] = tabularCell(raw[key])
		}
		_, _ = fmt.Fprintln(w, strings.Join(cells, "|"))
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

func saveStructured(path string, records []record.Record) error {
	raws := make([]map[string]any, len(records))
	for i, rec := range records {
		raws[i] = rec.Raw()
	}
	data, err := yaml.Marshal(raws)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(filepath.Clean(path), data, 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func tabularCell(v any) string {
	switch c := v.(type) {
	case string:
		return c
	case []string:
		return strings.Join(c, listSeparator)
	default:
		return fmt.Sprint(c)
	}
}

func splitRow(line string) []string {
	cells := strings.Split(line, "|")
	for i, c := range cells {
		cells[i] = strings.TrimSpace(c)
	}
	return cells
}

func splitList(cell string) []string {
	parts := strings.Split(cell, listSeparator)
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// normalizeHeader maps header cells to the symbolic field vocabulary so
// downstream construction is format-agnostic.
func normalizeHeader(cells []string) []string {
	keys := make([]string, len(cells))
	for i, c := range cells {
		keys[i] = strings.ToLower(strings.TrimSpace(c))
	}
	return keys
}

func normalizeKeys(raw map[string]any) {
	for k, v := range raw {
		norm := strings.ToLower(strings.TrimSpace(k))
		if norm != k {
			delete(raw, k)
			raw[norm] = v
		}
	}
}
