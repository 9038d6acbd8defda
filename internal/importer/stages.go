package importer

import (
	"context"

	"elnimport/internal/chem"
	"elnimport/internal/diagnostics"
	"elnimport/internal/logging"
	"elnimport/internal/manifest"
	"elnimport/internal/observability"
	"elnimport/pkg/domain"
)

// stage is one step of the materialization pipeline. Stages only read
// registry entries written by earlier stages or, for ancestry, by
// themselves.
type stage struct {
	name string
	// gated reports whether the stage also runs for imports into a gate collection.
	gated bool
	// delegated stages hand the work to a replaceable Delegate.
	delegated bool
	// produces lists the entity types the stage materializes. When the stage
	// is skipped, references to them resolve to absent.
	produces []domain.EntityType
	run      func(m *materialization, ctx context.Context) error
}

// Stage names in execution order.
const (
	StageCollections     = "collections"
	StageSamples         = "samples"
	StageChemicals       = "chemicals"
	StageComponents      = "components"
	StageResidues        = "residues"
	StageReactions       = "reactions"
	StageReactionSamples = "reaction_samples"
	StageCellLines       = "cell_lines"
	StageElements        = "elements"
	StageWellplates      = "wellplates"
	StageWells           = "wells"
	StageResearchPlans   = "research_plans"
	StageScreens         = "screens"
	StageContainers      = "containers"
	StageSegments        = "segments"
	StageDatasets        = "datasets"
	StageAttachments     = "attachments"
	StageLiterals        = "literals"
)

func pipeline() []stage {
	return []stage{
		{name: StageCollections, gated: true, run: (*materialization).collections},
		{name: StageSamples, gated: true, run: (*materialization).samples},
		{name: StageChemicals, produces: []domain.EntityType{domain.EntityChemical}, run: (*materialization).chemicals},
		{name: StageComponents, produces: []domain.EntityType{domain.EntityComponent}, run: (*materialization).components},
		{name: StageResidues, gated: true, run: (*materialization).residues},
		{name: StageReactions, gated: true, run: (*materialization).reactions},
		{name: StageReactionSamples, gated: true, run: (*materialization).reactionSamples},
		{name: StageCellLines, delegated: true, produces: []domain.EntityType{domain.EntityCellLineMaterial, domain.EntityCellLineSample}, run: func(m *materialization, ctx context.Context) error {
			return m.delegate(ctx, m.delegates.CellLines)
		}},
		{name: StageElements, gated: true, delegated: true, run: func(m *materialization, ctx context.Context) error {
			return m.delegate(ctx, m.delegates.Elements)
		}},
		{name: StageWellplates, produces: []domain.EntityType{domain.EntityWellplate}, run: (*materialization).wellplates},
		{name: StageWells, produces: []domain.EntityType{domain.EntityWell}, run: (*materialization).wells},
		{name: StageResearchPlans, produces: []domain.EntityType{domain.EntityResearchPlan}, run: (*materialization).researchPlans},
		{name: StageScreens, produces: []domain.EntityType{domain.EntityScreen}, run: (*materialization).screens},
		{name: StageContainers, gated: true, run: (*materialization).containers},
		{name: StageSegments, gated: true, delegated: true, run: func(m *materialization, ctx context.Context) error {
			return m.delegate(ctx, m.delegates.Segments)
		}},
		{name: StageDatasets, gated: true, delegated: true, run: func(m *materialization, ctx context.Context) error {
			return m.delegate(ctx, m.delegates.Datasets)
		}},
		{name: StageAttachments, gated: true, run: (*materialization).bindAttachments},
		{name: StageLiterals, gated: true, run: (*materialization).literals},
	}
}

// materialization carries the state of one transactional pass over the manifest.
type materialization struct {
	tx          domain.Transaction
	manifest    *manifest.Manifest
	reg         *Registry
	images      imageResolver
	sink        *diagnostics.Sink
	logger      logging.Logger
	metrics     observability.MetricsRecorder
	tracer      observability.Tracer
	molecules   MoleculeResolver
	solvents    *chem.SolventTable
	delegates   Delegates
	attachments []string
	req         Request
	tolerate    bool
}

// execute runs every stage in order. Failures abort with a StageError,
// except delegated stages when tolerate is set: those are recorded to the
// sink and the pipeline moves on.
func (m *materialization) execute(ctx context.Context, stages []stage) error {
	for _, st := range stages {
		if m.req.Gated() && !st.gated {
			m.logger.Debug("stage skipped", "stage", st.name, "reason", "gated")
			m.reg.SkipType(st.produces...)
			continue
		}
		stageCtx, done := observability.Track(ctx, m.metrics, m.tracer, "stage."+st.name)
		m.logger.Debug("stage started", "stage", st.name)
		err := st.run(m, stageCtx)
		done(err)
		if err == nil {
			m.logger.Debug("stage finished", "stage", st.name, "registered", m.reg.Len())
			continue
		}
		m.logger.Error("stage failed", "stage", st.name, "error", err)
		if st.delegated {
			m.sink.StageError(st.name, err)
			if m.tolerate {
				continue
			}
		}
		return &StageError{Stage: st.name, Err: err}
	}
	return nil
}

func (m *materialization) delegate(ctx context.Context, d Delegate) error {
	if d == nil {
		return nil
	}
	return d.Import(ctx, DelegateInput{
		Tx:          m.tx,
		Manifest:    m.manifest,
		Registry:    m.reg,
		Attachments: append([]string(nil), m.attachments...),
		Gated:       m.req.Gated(),
		Actor:       m.req.Actor,
	})
}

func (m *materialization) entities(t domain.EntityType) []manifest.Entity {
	return m.manifest.Entities(string(t))
}

func stamps(f manifest.Fields) domain.Base {
	return domain.Base{CreatedAt: f.Time("created_at"), UpdatedAt: f.Time("updated_at")}
}

func optionalID(ref domain.Ref, ok bool) *string {
	if !ok {
		return nil
	}
	id := ref.ID
	return &id
}
