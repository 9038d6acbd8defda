package memory

import "sort"

// Snapshot captures a point-in-time copy of the store state. Each bucket
// lists records in insertion order.
type Snapshot struct {
	Collections       []Collection       `json:"collections"`
	Molecules         []Molecule         `json:"molecules"`
	MoleculeNames     []MoleculeName     `json:"molecule_names"`
	Samples           []Sample           `json:"samples"`
	Chemicals         []Chemical         `json:"chemicals"`
	Components        []Component        `json:"components"`
	Residues          []Residue          `json:"residues"`
	Reactions         []Reaction         `json:"reactions"`
	ReactionSamples   []ReactionSample   `json:"reaction_samples"`
	Wellplates        []Wellplate        `json:"wellplates"`
	Wells             []Well             `json:"wells"`
	ResearchPlans     []ResearchPlan     `json:"research_plans"`
	Screens           []Screen           `json:"screens"`
	Containers        []Container        `json:"containers"`
	Attachments       []Attachment       `json:"attachments"`
	Literature        []Literature       `json:"literature"`
	Literals          []Literal          `json:"literals"`
	CellLineMaterials []CellLineMaterial `json:"cellline_materials"`
	CellLineSamples   []CellLineSample   `json:"cellline_samples"`
	Elements          []Element          `json:"elements"`
	Segments          []Segment          `json:"segments"`
	Datasets          []Dataset          `json:"datasets"`
}

// Buckets maps persisted bucket names to pointers into the snapshot so
// durable stores can encode and decode each bucket independently.
func (s *Snapshot) Buckets() map[string]any {
	return map[string]any{
		"collections":        &s.Collections,
		"molecules":          &s.Molecules,
		"molecule_names":     &s.MoleculeNames,
		"samples":            &s.Samples,
		"chemicals":          &s.Chemicals,
		"components":         &s.Components,
		"residues":           &s.Residues,
		"reactions":          &s.Reactions,
		"reaction_samples":   &s.ReactionSamples,
		"wellplates":         &s.Wellplates,
		"wells":              &s.Wells,
		"research_plans":     &s.ResearchPlans,
		"screens":            &s.Screens,
		"containers":         &s.Containers,
		"attachments":        &s.Attachments,
		"literature":         &s.Literature,
		"literals":           &s.Literals,
		"cellline_materials": &s.CellLineMaterials,
		"cellline_samples":   &s.CellLineSamples,
		"elements":           &s.Elements,
		"segments":           &s.Segments,
		"datasets":           &s.Datasets,
	}
}

// BucketNames returns the persisted bucket names in sorted order.
func (s *Snapshot) BucketNames() []string {
	buckets := s.Buckets()
	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	return Snapshot{
		Collections:       state.collections.list(),
		Molecules:         state.molecules.list(),
		MoleculeNames:     state.moleculeNames.list(),
		Samples:           state.samples.list(),
		Chemicals:         state.chemicals.list(),
		Components:        state.components.list(),
		Residues:          state.residues.list(),
		Reactions:         state.reactions.list(),
		ReactionSamples:   state.reactionSamples.list(),
		Wellplates:        state.wellplates.list(),
		Wells:             state.wells.list(),
		ResearchPlans:     state.researchPlans.list(),
		Screens:           state.screens.list(),
		Containers:        state.containers.list(),
		Attachments:       state.attachments.list(),
		Literature:        state.literature.list(),
		Literals:          state.literals.list(),
		CellLineMaterials: state.cellLineMaterials.list(),
		CellLineSamples:   state.cellLineSamples.list(),
		Elements:          state.elements.list(),
		Segments:          state.segments.list(),
		Datasets:          state.datasets.list(),
	}
}

func fill[T any](r *rows[T], items []T, id func(*T) string) {
	for i := range items {
		r.put(id(&items[i]), items[i])
	}
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	fill(state.collections, s.Collections, func(v *Collection) string { return v.ID })
	fill(state.molecules, s.Molecules, func(v *Molecule) string { return v.ID })
	fill(state.moleculeNames, s.MoleculeNames, func(v *MoleculeName) string { return v.ID })
	fill(state.samples, s.Samples, func(v *Sample) string { return v.ID })
	fill(state.chemicals, s.Chemicals, func(v *Chemical) string { return v.ID })
	fill(state.components, s.Components, func(v *Component) string { return v.ID })
	fill(state.residues, s.Residues, func(v *Residue) string { return v.ID })
	fill(state.reactions, s.Reactions, func(v *Reaction) string { return v.ID })
	fill(state.reactionSamples, s.ReactionSamples, func(v *ReactionSample) string { return v.ID })
	fill(state.wellplates, s.Wellplates, func(v *Wellplate) string { return v.ID })
	fill(state.wells, s.Wells, func(v *Well) string { return v.ID })
	fill(state.researchPlans, s.ResearchPlans, func(v *ResearchPlan) string { return v.ID })
	fill(state.screens, s.Screens, func(v *Screen) string { return v.ID })
	fill(state.containers, s.Containers, func(v *Container) string { return v.ID })
	fill(state.attachments, s.Attachments, func(v *Attachment) string { return v.ID })
	fill(state.literature, s.Literature, func(v *Literature) string { return v.ID })
	fill(state.literals, s.Literals, func(v *Literal) string { return v.ID })
	fill(state.cellLineMaterials, s.CellLineMaterials, func(v *CellLineMaterial) string { return v.ID })
	fill(state.cellLineSamples, s.CellLineSamples, func(v *CellLineSample) string { return v.ID })
	fill(state.elements, s.Elements, func(v *Element) string { return v.ID })
	fill(state.segments, s.Segments, func(v *Segment) string { return v.ID })
	fill(state.datasets, s.Datasets, func(v *Dataset) string { return v.ID })
	return state
}
