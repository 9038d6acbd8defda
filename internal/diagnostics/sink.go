// Package diagnostics implements the per-run append-only log an import
// writes non-fatal findings to. Entries are kept in memory and, when a log
// directory is configured, appended as JSON lines to a uniquely named file.
package diagnostics

import (
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Kind classifies a diagnostic entry.
type Kind string

// Entry kinds.
const (
	KindUnresolvedAttachment Kind = "unresolved_attachment"
	KindStageError           Kind = "stage_error"
	KindImageError           Kind = "image_error"
)

// ReasonAttachmentNotFound is recorded when a body reference has no attachment.
const ReasonAttachmentNotFound = "Attachment not found"

// Entry is one recorded finding.
type Entry struct {
	Kind         Kind      `json:"kind"`
	Time         time.Time `json:"time"`
	Stage        string    `json:"stage,omitempty"`
	ResearchPlan string    `json:"research_plan,omitempty"`
	Category     string    `json:"category,omitempty"`
	Filename     string    `json:"filename,omitempty"`
	Reason       string    `json:"reason,omitempty"`
	Error        string    `json:"error,omitempty"`
}

// Sink collects diagnostics for one run.
type Sink struct {
	mu      sync.Mutex
	entries []Entry
	path    string
	file    *os.File
	logger  *zap.Logger
	now     func() time.Time
}

// Option configures a Sink.
type Option func(*Sink)

// WithClock overrides the time source used for entry and file naming.
func WithClock(now func() time.Time) Option {
	return func(s *Sink) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens a sink. With an empty dir the sink is memory-only.
func New(dir string, opts ...Option) (*Sink, error) {
	s := &Sink{now: func() time.Time { return time.Now().UTC() }, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	if dir == "" {
		return s, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	name := FileName(s.now(), strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	s.path = filepath.Join(dir, name)
	file, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open diagnostic log: %w", err)
	}
	s.file = file
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.MessageKey = "kind"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel)
	s.logger = zap.New(core)
	return s, nil
}

// FileName renders the log file name for a run started at t.
func FileName(t time.Time, suffix string) string {
	return fmt.Sprintf("import_collections_%s_%s.log", t.Format("20060102_150405"), suffix)
}

// UnresolvedAttachment records a research plan body reference with no matching attachment.
func (s *Sink) UnresolvedAttachment(researchPlan, filename string) {
	s.record(Entry{Kind: KindUnresolvedAttachment, ResearchPlan: researchPlan, Filename: filename, Reason: ReasonAttachmentNotFound},
		zap.String("research_plan", researchPlan), zap.String("filename", filename), zap.String("reason", ReasonAttachmentNotFound))
}

// StageError records a caught stage failure.
func (s *Sink) StageError(stage string, err error) {
	msg := errString(err)
	s.record(Entry{Kind: KindStageError, Stage: stage, Error: msg}, zap.String("stage", stage), zap.String("error", msg))
}

// ImageError records a staged image that could not be read.
func (s *Sink) ImageError(category, filename string, err error) {
	msg := errString(err)
	s.record(Entry{Kind: KindImageError, Category: category, Filename: filename, Error: msg},
		zap.String("category", category), zap.String("filename", filename), zap.String("error", msg))
}

func (s *Sink) record(e Entry, fields ...zap.Field) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.Time = s.now()
	s.entries = append(s.entries, e)
	level := zapcore.WarnLevel
	if e.Kind == KindStageError {
		level = zapcore.ErrorLevel
	}
	if ce := s.logger.Check(level, string(e.Kind)); ce != nil {
		ce.Write(fields...)
	}
}

// Entries returns a copy of every recorded entry.
func (s *Sink) Entries() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded entries.
func (s *Sink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Path returns the log file path, empty for memory-only sinks.
func (s *Sink) Path() string { return s.path }

// URL joins the log file name onto base. It is empty when either is unset.
func (s *Sink) URL(base string) string {
	if s.path == "" || base == "" {
		return ""
	}
	u, err := url.Parse(base)
	if err != nil {
		return ""
	}
	u.Path = path.Join(u.Path, filepath.Base(s.path))
	return u.String()
}

// Close flushes and closes the log file.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	_ = s.logger.Sync()
	err := s.file.Close()
	s.file = nil
	s.logger = zap.NewNop()
	return err
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
