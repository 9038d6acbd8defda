// Package memory provides an in-memory implementation of the domain
// persistence store used for tests, ephemeral environments, and as the
// working set of the snapshot-backed stores.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"elnimport/pkg/domain"
)

// Compile-time contract assertions ensuring memory.Store adheres to the domain persistence interfaces.
var (
	_ domain.PersistentStore = (*Store)(nil)
	_ domain.Transaction     = (*transaction)(nil)
)

type (
	// Collection aliases domain.Collection.
	Collection = domain.Collection
	// Molecule aliases domain.Molecule.
	Molecule = domain.Molecule
	// MoleculeName aliases domain.MoleculeName.
	MoleculeName = domain.MoleculeName
	// Sample aliases domain.Sample.
	Sample = domain.Sample
	// Chemical aliases domain.Chemical.
	Chemical = domain.Chemical
	// Component aliases domain.Component.
	Component = domain.Component
	// Residue aliases domain.Residue.
	Residue = domain.Residue
	// Reaction aliases domain.Reaction.
	Reaction = domain.Reaction
	// ReactionSample aliases domain.ReactionSample.
	ReactionSample = domain.ReactionSample
	// Wellplate aliases domain.Wellplate.
	Wellplate = domain.Wellplate
	// Well aliases domain.Well.
	Well = domain.Well
	// ResearchPlan aliases domain.ResearchPlan.
	ResearchPlan = domain.ResearchPlan
	// Screen aliases domain.Screen.
	Screen = domain.Screen
	// Container aliases domain.Container.
	Container = domain.Container
	// Attachment aliases domain.Attachment.
	Attachment = domain.Attachment
	// Literature aliases domain.Literature.
	Literature = domain.Literature
	// Literal aliases domain.Literal.
	Literal = domain.Literal
	// CellLineMaterial aliases domain.CellLineMaterial.
	CellLineMaterial = domain.CellLineMaterial
	// CellLineSample aliases domain.CellLineSample.
	CellLineSample = domain.CellLineSample
	// Element aliases domain.Element.
	Element = domain.Element
	// Segment aliases domain.Segment.
	Segment = domain.Segment
	// Dataset aliases domain.Dataset.
	Dataset = domain.Dataset
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
)

type memoryState struct {
	collections       *rows[Collection]
	molecules         *rows[Molecule]
	moleculeNames     *rows[MoleculeName]
	samples           *rows[Sample]
	chemicals         *rows[Chemical]
	components        *rows[Component]
	residues          *rows[Residue]
	reactions         *rows[Reaction]
	reactionSamples   *rows[ReactionSample]
	wellplates        *rows[Wellplate]
	wells             *rows[Well]
	researchPlans     *rows[ResearchPlan]
	screens           *rows[Screen]
	containers        *rows[Container]
	attachments       *rows[Attachment]
	literature        *rows[Literature]
	literals          *rows[Literal]
	cellLineMaterials *rows[CellLineMaterial]
	cellLineSamples   *rows[CellLineSample]
	elements          *rows[Element]
	segments          *rows[Segment]
	datasets          *rows[Dataset]
}

func newMemoryState() memoryState {
	return memoryState{
		collections:       newRows[Collection](),
		molecules:         newRows[Molecule](),
		moleculeNames:     newRows[MoleculeName](),
		samples:           newRows[Sample](),
		chemicals:         newRows[Chemical](),
		components:        newRows[Component](),
		residues:          newRows[Residue](),
		reactions:         newRows[Reaction](),
		reactionSamples:   newRows[ReactionSample](),
		wellplates:        newRows[Wellplate](),
		wells:             newRows[Well](),
		researchPlans:     newRows[ResearchPlan](),
		screens:           newRows[Screen](),
		containers:        newRows[Container](),
		attachments:       newRows[Attachment](),
		literature:        newRows[Literature](),
		literals:          newRows[Literal](),
		cellLineMaterials: newRows[CellLineMaterial](),
		cellLineSamples:   newRows[CellLineSample](),
		elements:          newRows[Element](),
		segments:          newRows[Segment](),
		datasets:          newRows[Dataset](),
	}
}

func (s memoryState) clone(sc *schemas) memoryState {
	return memoryState{
		collections:       s.collections.copy(sc.collections.clone),
		molecules:         s.molecules.copy(sc.molecules.clone),
		moleculeNames:     s.moleculeNames.copy(sc.moleculeNames.clone),
		samples:           s.samples.copy(sc.samples.clone),
		chemicals:         s.chemicals.copy(sc.chemicals.clone),
		components:        s.components.copy(sc.components.clone),
		residues:          s.residues.copy(sc.residues.clone),
		reactions:         s.reactions.copy(sc.reactions.clone),
		reactionSamples:   s.reactionSamples.copy(sc.reactionSamples.clone),
		wellplates:        s.wellplates.copy(sc.wellplates.clone),
		wells:             s.wells.copy(sc.wells.clone),
		researchPlans:     s.researchPlans.copy(sc.researchPlans.clone),
		screens:           s.screens.copy(sc.screens.clone),
		containers:        s.containers.copy(sc.containers.clone),
		attachments:       s.attachments.copy(sc.attachments.clone),
		literature:        s.literature.copy(sc.literature.clone),
		literals:          s.literals.copy(sc.literals.clone),
		cellLineMaterials: s.cellLineMaterials.copy(sc.cellLineMaterials.clone),
		cellLineSamples:   s.cellLineSamples.copy(sc.cellLineSamples.clone),
		elements:          s.elements.copy(sc.elements.clone),
		segments:          s.segments.copy(sc.segments.clone),
		datasets:          s.datasets.copy(sc.datasets.clone),
	}
}

// Store provides an in-memory transactional store for the domain.
type Store struct {
	mu      sync.RWMutex
	state   memoryState
	schemas *schemas
	nowFn   func() time.Time
}

// NewStore constructs an empty in-memory store.
func NewStore() *Store {
	return &Store{
		state:   newMemoryState(),
		schemas: newSchemas(),
		nowFn:   func() time.Time { return time.Now().UTC() },
	}
}

// SetNowFunc overrides the clock used to stamp records.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if fn != nil {
		s.nowFn = fn
	}
}

// NowFunc returns the time provider used by the in-memory store.
func (s *Store) NowFunc() func() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nowFn
}

func (s *Store) newID() string {
	return uuid.NewString()
}

// RunInTransaction executes fn within a transactional copy of the store state.
// The copy replaces the committed state only when fn returns nil.
func (s *Store) RunInTransaction(_ context.Context, fn func(tx Transaction) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(s.schemas),
		now:   s.nowFn(),
	}
	if err := fn(tx); err != nil {
		return err
	}
	s.state = tx.state
	return nil
}

// View executes fn against a throwaway copy of the store state. Writes made
// through the transaction are discarded.
func (s *Store) View(_ context.Context, fn func(Transaction) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(s.schemas),
		now:   s.nowFn(),
	}
	return fn(tx)
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state.clone(s.schemas))
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot).clone(s.schemas)
}

type transaction struct {
	store *Store
	state memoryState
	now   time.Time
}

func (tx *transaction) Collections() domain.Table[Collection] {
	return txTable[Collection]{tx: tx, rs: tx.state.collections, sc: tx.store.schemas.collections}
}

func (tx *transaction) Molecules() domain.Table[Molecule] {
	return txTable[Molecule]{tx: tx, rs: tx.state.molecules, sc: tx.store.schemas.molecules}
}

func (tx *transaction) MoleculeNames() domain.Table[MoleculeName] {
	return txTable[MoleculeName]{tx: tx, rs: tx.state.moleculeNames, sc: tx.store.schemas.moleculeNames}
}

func (tx *transaction) Samples() domain.Table[Sample] {
	return txTable[Sample]{tx: tx, rs: tx.state.samples, sc: tx.store.schemas.samples}
}

func (tx *transaction) Chemicals() domain.Table[Chemical] {
	return txTable[Chemical]{tx: tx, rs: tx.state.chemicals, sc: tx.store.schemas.chemicals}
}

func (tx *transaction) Components() domain.Table[Component] {
	return txTable[Component]{tx: tx, rs: tx.state.components, sc: tx.store.schemas.components}
}

func (tx *transaction) Residues() domain.Table[Residue] {
	return txTable[Residue]{tx: tx, rs: tx.state.residues, sc: tx.store.schemas.residues}
}

func (tx *transaction) Reactions() domain.Table[Reaction] {
	return txTable[Reaction]{tx: tx, rs: tx.state.reactions, sc: tx.store.schemas.reactions}
}

func (tx *transaction) ReactionSamples() domain.Table[ReactionSample] {
	return txTable[ReactionSample]{tx: tx, rs: tx.state.reactionSamples, sc: tx.store.schemas.reactionSamples}
}

func (tx *transaction) Wellplates() domain.Table[Wellplate] {
	return txTable[Wellplate]{tx: tx, rs: tx.state.wellplates, sc: tx.store.schemas.wellplates}
}

func (tx *transaction) Wells() domain.Table[Well] {
	return txTable[Well]{tx: tx, rs: tx.state.wells, sc: tx.store.schemas.wells}
}

func (tx *transaction) ResearchPlans() domain.Table[ResearchPlan] {
	return txTable[ResearchPlan]{tx: tx, rs: tx.state.researchPlans, sc: tx.store.schemas.researchPlans}
}

func (tx *transaction) Screens() domain.Table[Screen] {
	return txTable[Screen]{tx: tx, rs: tx.state.screens, sc: tx.store.schemas.screens}
}

func (tx *transaction) Containers() domain.Table[Container] {
	return txTable[Container]{tx: tx, rs: tx.state.containers, sc: tx.store.schemas.containers}
}

func (tx *transaction) Attachments() domain.Table[Attachment] {
	return txTable[Attachment]{tx: tx, rs: tx.state.attachments, sc: tx.store.schemas.attachments}
}

func (tx *transaction) Literature() domain.Table[Literature] {
	return txTable[Literature]{tx: tx, rs: tx.state.literature, sc: tx.store.schemas.literature}
}

func (tx *transaction) Literals() domain.Table[Literal] {
	return txTable[Literal]{tx: tx, rs: tx.state.literals, sc: tx.store.schemas.literals}
}

func (tx *transaction) CellLineMaterials() domain.Table[CellLineMaterial] {
	return txTable[CellLineMaterial]{tx: tx, rs: tx.state.cellLineMaterials, sc: tx.store.schemas.cellLineMaterials}
}

func (tx *transaction) CellLineSamples() domain.Table[CellLineSample] {
	return txTable[CellLineSample]{tx: tx, rs: tx.state.cellLineSamples, sc: tx.store.schemas.cellLineSamples}
}

func (tx *transaction) Elements() domain.Table[Element] {
	return txTable[Element]{tx: tx, rs: tx.state.elements, sc: tx.store.schemas.elements}
}

func (tx *transaction) Segments() domain.Table[Segment] {
	return txTable[Segment]{tx: tx, rs: tx.state.segments, sc: tx.store.schemas.segments}
}

func (tx *transaction) Datasets() domain.Table[Dataset] {
	return txTable[Dataset]{tx: tx, rs: tx.state.datasets, sc: tx.store.schemas.datasets}
}
