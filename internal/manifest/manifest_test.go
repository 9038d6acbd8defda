package manifest

import (
	"errors"
	"testing"
	"time"
)

const sample = `{
  "Sample": {
    "s-2": {"name": "second", "decoupled": true},
    "s-1": {"name": "first", "position": 3, "melting_point": "10...20"}
  },
  "Collection": {
    "c-1": {"label": "Imported", "ancestry": null, "created_at": "2023-05-01T10:00:00.000Z"}
  }
}`

func TestParseKeepsDocumentOrder(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if got := m.Types(); len(got) != 2 || got[0] != "Sample" || got[1] != "Collection" {
		t.Fatalf("unexpected type order %v", got)
	}
	samples := m.Entities("Sample")
	if len(samples) != 2 || samples[0].UUID != "s-2" || samples[1].UUID != "s-1" {
		t.Fatalf("unexpected sample order %+v", samples)
	}
	if m.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", m.Len())
	}
	if len(m.Entities("Reaction")) != 0 {
		t.Fatalf("missing types must yield no entries")
	}
	e, ok := m.Get("Collection", "c-1")
	if !ok || e.Fields.String("label") != "Imported" {
		t.Fatalf("get collection: %+v %v", e, ok)
	}
	if !e.Fields.Has("ancestry") || e.Fields.String("ancestry") != "" {
		t.Fatalf("null ancestry should be present and blank")
	}
	want := time.Date(2023, 5, 1, 10, 0, 0, 0, time.UTC)
	if got := e.Fields.Time("created_at"); !got.Equal(want) {
		t.Fatalf("created_at = %v", got)
	}
}

func TestParseToleratesBOM(t *testing.T) {
	raw := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`{"Sample":{"a":{"name":"x"}}}`)...)
	m, err := Parse(raw)
	if err != nil {
		t.Fatalf("parse with bom: %v", err)
	}
	if _, ok := m.Get("Sample", "a"); !ok {
		t.Fatalf("sample missing")
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, raw := range []string{`[]`, `{"Sample": []}`, `{"Sample": {"a": 1}}`, `{"Sample":`} {
		if _, err := Parse([]byte(raw)); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Parse(%s) = %v, want ErrMalformed", raw, err)
		}
	}
}

func TestEntitiesShareFieldMaps(t *testing.T) {
	m, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	m.Entities("Sample")[0].Fields["name"] = "rewritten"
	e, _ := m.Get("Sample", "s-2")
	if e.Fields.String("name") != "rewritten" {
		t.Fatalf("rewrite not visible")
	}
}

func TestFieldAccessors(t *testing.T) {
	f := Fields{
		"n":      float64(4.7),
		"s":      "12",
		"b":      "true",
		"obj":    map[string]any{"k": "v"},
		"list":   []any{"a"},
		"null":   nil,
		"bad":    "abc",
		"number": float64(0.5),
	}
	if n, ok := f.Int("n"); !ok || n != 4 {
		t.Fatalf("Int(n) = %d %v", n, ok)
	}
	if n, ok := f.Int("s"); !ok || n != 12 {
		t.Fatalf("Int(s) = %d %v", n, ok)
	}
	if _, ok := f.Int("bad"); ok {
		t.Fatalf("Int(bad) should fail")
	}
	if !f.Bool("b") || f.Bool("null") {
		t.Fatalf("unexpected Bool results")
	}
	if f.Map("obj")["k"] != "v" || len(f.List("list")) != 1 || f.Map("s") != nil {
		t.Fatalf("unexpected nested accessors")
	}
	if f.String("number") != "0.5" || f.String("obj") != "" {
		t.Fatalf("unexpected String results")
	}
	got := f.Slice("s", "missing", "null")
	if len(got) != 2 || got["s"] != "12" {
		t.Fatalf("unexpected slice %v", got)
	}
	if f.Slice("missing") != nil {
		t.Fatalf("empty slice should be nil")
	}
	if !f.Time("bad").IsZero() {
		t.Fatalf("unparseable time should be zero")
	}
}
