package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/spf13/cobra"

	"elnimport/internal/attachments"
	"elnimport/internal/blob"
	"elnimport/internal/config"
	"elnimport/internal/diagnostics"
	"elnimport/internal/importer"
	"elnimport/internal/infra/persistence/memory"
	"elnimport/internal/infra/persistence/postgres"
	"elnimport/internal/infra/persistence/sqlite"
	"elnimport/internal/observability"
	"elnimport/pkg/domain"
)

type runOptions struct {
	*rootOptions
	archive        string
	actor          string
	gateCollection string
	origin         string
	trace          bool
	metrics        bool
}

func newRunCommand(root *rootOptions) *cobra.Command {
	opts := &runOptions{rootOptions: root}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import one archive",
		Long: `Import one export archive into the configured store.

Attachments are uploaded first, then the manifest is replayed in a single
transaction. A failed import leaves neither entities nor attachments behind.

Example:
  elnimport run --archive export.zip --actor 42
  elnimport run --archive export.zip --actor 42 --gate-collection 7 --origin eln.example.org`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&opts.archive, "archive", "", "path to the export archive (required)")
	cmd.Flags().StringVar(&opts.actor, "actor", "", "id of the user owning the import (required)")
	cmd.Flags().StringVar(&opts.gateCollection, "gate-collection", "", "import into this existing collection")
	cmd.Flags().StringVar(&opts.origin, "origin", "", "origin recorded on samples imported into a gate collection")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "write JSON spans to stderr")
	cmd.Flags().BoolVar(&opts.metrics, "metrics", false, "write Prometheus metrics to stderr after the run")
	_ = cmd.MarkFlagRequired("archive")
	_ = cmd.MarkFlagRequired("actor")
	return cmd
}

func runImport(ctx context.Context, opts *runOptions, stdout, stderr io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, err := opts.load()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := closeStore(); cerr != nil {
			logger.Error("close store", "error", cerr)
		}
	}()
	blobs, err := blob.Open(ctx, cfg.BlobStoreConfig())
	if err != nil {
		return fmt.Errorf("open blob store: %w", err)
	}

	recorder, err := observability.NewPrometheusRecorder(prometheus.NewRegistry())
	if err != nil {
		return err
	}
	importerOpts := []importer.Option{
		importer.WithLogger(logger),
		importer.WithMetrics(recorder),
		importer.WithStagingRoot(cfg.Import.StagingRoot),
		importer.WithLogDir(cfg.Import.LogDir, cfg.Import.LogBaseURL),
		importer.TolerateDelegateErrors(cfg.Import.TolerateDelegateErrors),
	}
	if opts.trace {
		importerOpts = append(importerOpts, importer.WithTracer(observability.NewJSONTracer(stderr)))
	}
	imp, err := importer.New(store, attachments.New(store, blobs, attachments.WithLogger(logger)), importerOpts...)
	if err != nil {
		return err
	}

	f, err := os.Open(opts.archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer func() { _ = f.Close() }()

	logger.Info("import started", "archive", opts.archive, "actor", opts.actor, "gated", opts.gateCollection != "")
	report, runErr := imp.Run(ctx, f, importer.Request{
		Actor:            opts.actor,
		GateCollectionID: opts.gateCollection,
		Origin:           opts.origin,
	})
	if err := writeReport(stdout, opts.format, report); err != nil {
		return err
	}
	if opts.metrics {
		if err := writeMetrics(stderr, recorder.Registry()); err != nil {
			return err
		}
	}
	return runErr
}

// openStore returns the configured persistent store and its release func.
func openStore(ctx context.Context, cfg *config.Config) (domain.PersistentStore, func() error, error) {
	switch cfg.Storage.Driver {
	case config.StorageSQLite:
		s, err := sqlite.NewStore(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case config.StoragePostgres:
		s, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return memory.NewStore(), func() error { return nil }, nil
	}
}

func writeReport(w io.Writer, format string, r importer.Report) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	}
	types := make([]string, 0, len(r.Counts))
	for t := range r.Counts {
		types = append(types, string(t))
	}
	sort.Strings(types)
	fmt.Fprintf(w, "attachments: %d\nimages: %d\n", r.Attachments, r.Images)
	for _, t := range types {
		fmt.Fprintf(w, "%s: %d\n", t, r.Counts[domain.EntityType(t)])
	}
	for _, d := range r.Diagnostics {
		switch d.Kind {
		case diagnostics.KindStageError:
			fmt.Fprintf(w, "%s: stage %s: %s\n", d.Kind, d.Stage, d.Error)
		case diagnostics.KindImageError:
			fmt.Fprintf(w, "%s: %s/%s: %s\n", d.Kind, d.Category, d.Filename, d.Error)
		default:
			fmt.Fprintf(w, "%s: %s in %q: %s\n", d.Kind, d.Filename, d.ResearchPlan, d.Reason)
		}
	}
	if r.LogURL != "" {
		fmt.Fprintf(w, "log: %s\n", r.LogURL)
	} else if r.LogPath != "" {
		fmt.Fprintf(w, "log: %s\n", r.LogPath)
	}
	return nil
}

func writeMetrics(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
