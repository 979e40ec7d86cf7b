package reference

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"

	"github.com/raylirui-self/mech-drawing-analyzer/internal/model"
)

// DefaultLimit is the number of entries returned when a query sets none.
const DefaultLimit = 3

// Entry is one item of a reference library: a standard, a design guide, or
// the summary of a previously analyzed drawing.
type Entry struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Summary  string   `json:"summary"`
	Keywords []string `json:"keywords,omitempty"`
}

// Context converts e to the form used in prompts and results.
func (e Entry) Context(score float64) model.ReferenceContext {
	return model.ReferenceContext{Title: e.Title, Content: e.Content, Summary: e.Summary, Score: score}
}

func (e Entry) text() string {
	return strings.Join(append([]string{e.Title, e.Content, e.Summary}, e.Keywords...), " ")
}

// Query describes the drawing references are wanted for.
type Query struct {
	// Text is free text about the drawing: title-block OCR, file name.
	Text string

	// RegionTypes are the region types detected on the drawing.
	RegionTypes []model.RegionType

	// Limit caps the number of results. 0 means DefaultLimit.
	Limit int
}

// String flattens the query into a single search string.
func (q Query) String() string {
	parts := make([]string, 0, len(q.RegionTypes)+1)
	if t := strings.TrimSpace(q.Text); t != "" {
		parts = append(parts, t)
	}
	for _, rt := range q.RegionTypes {
		parts = append(parts, strings.ReplaceAll(string(rt), "_", " "))
	}
	return strings.Join(parts, " ")
}

func (q Query) limit() int {
	if q.Limit <= 0 {
		return DefaultLimit
	}
	return q.Limit
}

// Retriever returns reference entries relevant to a drawing, best first.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]model.ReferenceContext, error)
}

// LoadEntries reads a JSON array of entries.
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read references %s: %w", path, err)
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse references %s: %w", path, err)
	}
	return entries, nil
}

// StaticRetriever ranks an in-memory library by term overlap with the query.
type StaticRetriever struct {
	entries []Entry
	terms   []map[string]struct{}
}

// NewStaticRetriever indexes entries for retrieval.
func NewStaticRetriever(entries []Entry) *StaticRetriever {
	s := &StaticRetriever{entries: entries, terms: make([]map[string]struct{}, len(entries))}
	for i, e := range entries {
		s.terms[i] = termSet(e.text())
	}
	return s
}

// LoadStaticRetriever builds a StaticRetriever from a JSON file.
func LoadStaticRetriever(path string) (*StaticRetriever, error) {
	entries, err := LoadEntries(path)
	if err != nil {
		return nil, err
	}
	return NewStaticRetriever(entries), nil
}

// Retrieve scores each entry by the fraction of query terms it contains.
// Entries that share no term are skipped. Ties keep library order. An empty
// query returns the first entries of the library.
func (s *StaticRetriever) Retrieve(ctx context.Context, q Query) ([]model.ReferenceContext, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	limit := q.limit()
	query := termSet(q.String())

	type scored struct {
		idx   int
		score float64
	}
	var hits []scored
	for i, terms := range s.terms {
		if len(query) == 0 {
			hits = append(hits, scored{idx: i})
			continue
		}
		matched := 0
		for t := range query {
			if _, ok := terms[t]; ok {
				matched++
			}
		}
		if matched > 0 {
			hits = append(hits, scored{idx: i, score: float64(matched) / float64(len(query))})
		}
	}

	sort.SliceStable(hits, func(a, b int) bool { return hits[a].score > hits[b].score })

	out := make([]model.ReferenceContext, 0, min(limit, len(hits)))
	for _, h := range hits[:min(limit, len(hits))] {
		out = append(out, s.entries[h.idx].Context(h.score))
	}
	return out, nil
}

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "the": {}, "of": {}, "for": {}, "to": {}, "in": {}, "on": {}, "with": {},
}

func termSet(text string) map[string]struct{} {
	set := make(map[string]struct{})
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '.'
	})
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if len(f) < 2 {
			continue
		}
		if _, stop := stopWords[f]; stop {
			continue
		}
		set[f] = struct{}{}
	}
	return set
}
