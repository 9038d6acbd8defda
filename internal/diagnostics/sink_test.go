package diagnostics

import (
	"bufio"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func fixedClock() func() time.Time {
	at := time.Date(2024, 3, 5, 7, 8, 9, 0, time.UTC)
	return func() time.Time { return at }
}

func TestMemoryOnlySink(t *testing.T) {
	sink, err := New("")
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	sink.UnresolvedAttachment("Plan A", "scan.png")
	if sink.Path() != "" || sink.URL("https://example.org/logs") != "" {
		t.Fatalf("memory sink must not expose a path")
	}
	entries := sink.Entries()
	if len(entries) != 1 || entries[0].Reason != ReasonAttachmentNotFound {
		t.Fatalf("unexpected entries %+v", entries)
	}
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestFileSinkWritesJSONLines(t *testing.T) {
	dir := t.TempDir()
	sink, err := New(dir, WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	pattern := regexp.MustCompile(`^import_collections_20240305_070809_[0-9a-f]{8}\.log$`)
	if !pattern.MatchString(filepath.Base(sink.Path())) {
		t.Fatalf("unexpected log name %s", sink.Path())
	}
	sink.UnresolvedAttachment("Plan A", "scan.png")
	sink.StageError("elements", errors.New("klass missing"))
	sink.ImageError("samples", "s1.svg", errors.New("permission denied"))
	if err := sink.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	f, err := os.Open(sink.Path())
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer func() { _ = f.Close() }()
	var kinds []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var line map[string]any
		if err := json.Unmarshal(scanner.Bytes(), &line); err != nil {
			t.Fatalf("decode line %q: %v", scanner.Text(), err)
		}
		kinds = append(kinds, line["kind"].(string))
		if line["kind"] == string(KindStageError) && line["stage"] != "elements" {
			t.Fatalf("stage field missing: %v", line)
		}
	}
	if len(kinds) != 3 || kinds[0] != string(KindUnresolvedAttachment) || kinds[2] != string(KindImageError) {
		t.Fatalf("unexpected kinds %v", kinds)
	}
	if sink.Len() != 3 {
		t.Fatalf("expected 3 retained entries, got %d", sink.Len())
	}
}

func TestSinkURL(t *testing.T) {
	sink, err := New(t.TempDir(), WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	defer func() { _ = sink.Close() }()
	got := sink.URL("https://eln.example.org/logs/")
	want := "https://eln.example.org/logs/" + filepath.Base(sink.Path())
	if got != want {
		t.Fatalf("URL = %s, want %s", got, want)
	}
}

func TestEntriesAfterCloseStillRecorded(t *testing.T) {
	sink, err := New(t.TempDir())
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	_ = sink.Close()
	sink.StageError("segments", nil)
	if sink.Len() != 1 {
		t.Fatalf("expected entry retained after close")
	}
}
