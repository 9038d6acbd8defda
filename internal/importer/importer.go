// Package importer materializes export archives into the persistent store.
// An import runs in two phases: extraction stores attachments and stages
// images outside any transaction, materialization replays the manifest
// inside one transaction. A failed materialization destroys the attachments
// extraction created.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"elnimport/internal/archive"
	"elnimport/internal/chem"
	"elnimport/internal/diagnostics"
	"elnimport/internal/logging"
	"elnimport/internal/manifest"
	"elnimport/internal/observability"
	"elnimport/pkg/domain"
)

// Request describes one import.
type Request struct {
	// Actor owns everything the import creates.
	Actor string
	// GateCollectionID switches to gated mode: entities join this existing
	// collection instead of a recreated collection tree, and stages that
	// only matter for full imports are skipped.
	GateCollectionID string
	// Origin is recorded on samples imported in gated mode.
	Origin string
}

// Gated reports whether the import targets a gate collection.
func (r Request) Gated() bool { return r.GateCollectionID != "" }

// Importer runs archive imports against one store.
type Importer struct {
	store       domain.PersistentStore
	extractor   *archive.Extractor
	creator     archive.AttachmentCreator
	logger      logging.Logger
	metrics     observability.MetricsRecorder
	tracer      observability.Tracer
	molecules   MoleculeResolver
	solvents    *chem.SolventTable
	delegates   Delegates
	stagingRoot string
	logDir      string
	logBaseURL  string
	tolerate    bool
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets the importer logger.
func WithLogger(l logging.Logger) Option {
	return func(i *Importer) {
		if l != nil {
			i.logger = l
		}
	}
}

// WithMetrics records per-phase and per-stage durations.
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(i *Importer) {
		if m != nil {
			i.metrics = m
		}
	}
}

// WithTracer opens a span per phase and stage.
func WithTracer(t observability.Tracer) Option {
	return func(i *Importer) {
		if t != nil {
			i.tracer = t
		}
	}
}

// WithMoleculeResolver replaces fingerprint based molecule matching.
func WithMoleculeResolver(r MoleculeResolver) Option {
	return func(i *Importer) {
		if r != nil {
			i.molecules = r
		}
	}
}

// WithSolvents replaces the built-in solvent reference table.
func WithSolvents(t *chem.SolventTable) Option {
	return func(i *Importer) {
		if t != nil {
			i.solvents = t
		}
	}
}

// WithDelegates replaces delegated stages. Nil fields keep the built-in ones.
func WithDelegates(d Delegates) Option {
	return func(i *Importer) { i.delegates = d.withDefaults() }
}

// WithStagingRoot sets the directory job staging directories are created in.
func WithStagingRoot(dir string) Option {
	return func(i *Importer) { i.stagingRoot = dir }
}

// WithLogDir writes each job's diagnostics to a file in dir. baseURL, when
// set, is used to publish the file location in reports.
func WithLogDir(dir, baseURL string) Option {
	return func(i *Importer) {
		i.logDir = dir
		i.logBaseURL = baseURL
	}
}

// TolerateDelegateErrors lets imports continue past failing delegated stages.
func TolerateDelegateErrors(tolerate bool) Option {
	return func(i *Importer) { i.tolerate = tolerate }
}

// New constructs an Importer storing attachments through creator.
func New(store domain.PersistentStore, creator archive.AttachmentCreator, opts ...Option) (*Importer, error) {
	if store == nil {
		return nil, errors.New("importer: store is required")
	}
	if creator == nil {
		return nil, errors.New("importer: attachment creator is required")
	}
	i := &Importer{
		store:     store,
		creator:   creator,
		logger:    logging.Nop(),
		metrics:   observability.NopMetrics(),
		tracer:    observability.NopTracer(),
		molecules: FingerprintResolver{},
		delegates: DefaultDelegates(),
	}
	for _, opt := range opts {
		opt(i)
	}
	if i.solvents == nil {
		table, err := chem.DefaultSolvents()
		if err != nil {
			return nil, fmt.Errorf("load solvents: %w", err)
		}
		i.solvents = table
	}
	i.extractor = archive.NewExtractor(creator, archive.WithLogger(i.logger))
	return i, nil
}

// Run imports the archive read from src and returns the job report.
// Staging files are always removed.
func (i *Importer) Run(ctx context.Context, src io.Reader, req Request) (Report, error) {
	job, err := i.NewJob(req)
	if err != nil {
		return Report{}, err
	}
	defer func() { _ = job.Cleanup() }()
	if err := job.Extract(ctx, src); err != nil {
		return job.Report(), err
	}
	err = job.MaterializeOrDestroy(ctx)
	return job.Report(), err
}

// NewJob prepares a job with its own staging directory and diagnostics sink.
// Callers must call Cleanup.
func (i *Importer) NewJob(req Request) (*Job, error) {
	if req.Actor == "" {
		return nil, domain.ValidationError{Entity: "Import", Field: "actor", Message: "required"}
	}
	if i.stagingRoot != "" {
		if err := os.MkdirAll(i.stagingRoot, 0o755); err != nil {
			return nil, fmt.Errorf("create staging root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(i.stagingRoot, "elnimport-")
	if err != nil {
		return nil, fmt.Errorf("create staging dir: %w", err)
	}
	sink, err := diagnostics.New(i.logDir)
	if err != nil {
		_ = os.RemoveAll(dir)
		return nil, err
	}
	return &Job{importer: i, req: req, stagingDir: dir, sink: sink}, nil
}

// Report summarizes a job.
type Report struct {
	LogPath     string              `json:"log_path,omitempty"`
	LogURL      string              `json:"log_url,omitempty"`
	Diagnostics []diagnostics.Entry `json:"diagnostics,omitempty"`
	// Attachments is the number of attachments extracted from the archive.
	Attachments int `json:"attachments"`
	Images      int `json:"images"`
	// Counts holds the number of entities materialized per type.
	Counts map[domain.EntityType]int `json:"counts,omitempty"`
}

// Job is one import. Extract must run before Materialize.
type Job struct {
	importer    *Importer
	req         Request
	stagingDir  string
	sink        *diagnostics.Sink
	manifest    *manifest.Manifest
	attachments []domain.Attachment
	images      int
	counts      map[domain.EntityType]int
	cleanup     sync.Once
	cleanupErr  error
}

// StagingDir returns the directory holding the job's staged files.
func (j *Job) StagingDir() string { return j.stagingDir }

// Extract reads the archive, creating attachments and staging images, and
// rewrites research plan image references to the created attachments.
// On failure the job is cleaned up.
func (j *Job) Extract(ctx context.Context, src io.Reader) (err error) {
	ctx, done := observability.Track(ctx, j.importer.metrics, j.importer.tracer, "extract")
	defer func() { done(err) }()
	res, err := j.importer.extractor.Extract(ctx, src, j.stagingDir, j.req.Actor)
	if err != nil {
		j.importer.logger.Error("extraction failed", "actor", j.req.Actor, "error", err)
		err = &ExtractionError{Err: err}
		if cerr := j.Cleanup(); cerr != nil {
			return errors.Join(err, cerr)
		}
		return err
	}
	j.manifest = res.Manifest
	j.attachments = res.Attachments
	j.images = res.Images
	rewritten := rewriteBodies(j.manifest, j.attachments, j.sink)
	j.importer.logger.Info("archive extracted",
		"actor", j.req.Actor,
		"entities", j.manifest.Len(),
		"attachments", len(j.attachments),
		"images", j.images,
		"rewritten_blocks", rewritten,
	)
	return nil
}

// Materialize replays the manifest inside one transaction. Nothing is
// written when it fails.
func (j *Job) Materialize(ctx context.Context) (err error) {
	if j.manifest == nil {
		return errors.New("importer: materialize before extract")
	}
	i := j.importer
	ctx, done := observability.Track(ctx, i.metrics, i.tracer, "materialize")
	defer func() { done(err) }()
	ids := make([]string, len(j.attachments))
	for n, a := range j.attachments {
		ids[n] = a.ID
	}
	var counts map[domain.EntityType]int
	err = i.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		reg := NewRegistry(tx, actorCollections(tx, j.req.Actor))
		m := &materialization{
			tx:          tx,
			manifest:    j.manifest,
			reg:         reg,
			images:      imageResolver{stagingDir: j.stagingDir, sink: j.sink},
			sink:        j.sink,
			logger:      i.logger,
			metrics:     i.metrics,
			tracer:      i.tracer,
			molecules:   i.molecules,
			solvents:    i.solvents,
			delegates:   i.delegates,
			attachments: ids,
			req:         j.req,
			tolerate:    i.tolerate,
		}
		if err := m.execute(ctx, pipeline()); err != nil {
			return err
		}
		counts = reg.Counts()
		return nil
	})
	if err != nil {
		i.logger.Error("materialization failed", "actor", j.req.Actor, "error", err)
		return err
	}
	j.counts = counts
	i.logger.Info("archive materialized", "actor", j.req.Actor, "gated", j.req.Gated(), "diagnostics", j.sink.Len())
	return nil
}

// MaterializeOrDestroy runs Materialize, destroys the extracted attachments
// if it fails, and always cleans the job up.
func (j *Job) MaterializeOrDestroy(ctx context.Context) error {
	err := j.Materialize(ctx)
	if err != nil && len(j.attachments) > 0 {
		ids := make([]string, len(j.attachments))
		for n, a := range j.attachments {
			ids[n] = a.ID
		}
		if derr := j.importer.creator.Destroy(context.WithoutCancel(ctx), ids...); derr != nil {
			err = errors.Join(err, fmt.Errorf("destroy attachments: %w", derr))
		}
	}
	if cerr := j.Cleanup(); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}

// Cleanup removes the staging directory and closes the diagnostics sink.
// It is safe to call more than once.
func (j *Job) Cleanup() error {
	j.cleanup.Do(func() {
		j.cleanupErr = errors.Join(os.RemoveAll(j.stagingDir), j.sink.Close())
	})
	return j.cleanupErr
}

// Report returns the job summary so far.
func (j *Job) Report() Report {
	return Report{
		LogPath:     j.sink.Path(),
		LogURL:      j.sink.URL(j.importer.logBaseURL),
		Diagnostics: j.sink.Entries(),
		Attachments: len(j.attachments),
		Images:      j.images,
		Counts:      j.counts,
	}
}

func actorCollections(tx domain.Transaction, actor string) []string {
	var ids []string
	for _, c := range tx.Collections().List() {
		if c.UserID == actor {
			ids = append(ids, c.ID)
		}
	}
	return ids
}
