package importer

import (
	"context"
	"fmt"

	"elnimport/internal/manifest"
	"elnimport/pkg/domain"
)

// Delegate materializes one group of entity types whose handling is
// replaceable by the host application.
type Delegate interface {
	Import(ctx context.Context, in DelegateInput) error
}

// DelegateFunc adapts a function to Delegate.
type DelegateFunc func(ctx context.Context, in DelegateInput) error

// Import calls f.
func (f DelegateFunc) Import(ctx context.Context, in DelegateInput) error { return f(ctx, in) }

// DelegateInput is the view of a running materialization handed to a Delegate.
type DelegateInput struct {
	Tx       domain.Transaction
	Manifest *manifest.Manifest
	Registry *Registry
	// Attachments holds the ids of attachments created during extraction.
	Attachments []string
	Gated       bool
	Actor       string
}

// Associations resolves the foreign side of a manifest join type for localUUID.
func (in DelegateInput) Associations(joinType, localField, foreignField string, foreignType domain.EntityType, localUUID string) []domain.Ref {
	return fetchMany(in.Manifest, in.Registry, association{joinType, localField, foreignField, foreignType}, localUUID)
}

// Delegates groups the replaceable stages. Nil fields fall back to the
// built-in implementations.
type Delegates struct {
	CellLines Delegate
	Elements  Delegate
	Segments  Delegate
	Datasets  Delegate
}

// DefaultDelegates returns the built-in delegate implementations.
func DefaultDelegates() Delegates {
	return Delegates{
		CellLines: DelegateFunc(importCellLines),
		Elements:  DelegateFunc(importElements),
		Segments:  DelegateFunc(importSegments),
		Datasets:  DelegateFunc(importDatasets),
	}
}

func (d Delegates) withDefaults() Delegates {
	def := DefaultDelegates()
	if d.CellLines == nil {
		d.CellLines = def.CellLines
	}
	if d.Elements == nil {
		d.Elements = def.Elements
	}
	if d.Segments == nil {
		d.Segments = def.Segments
	}
	if d.Datasets == nil {
		d.Datasets = def.Datasets
	}
	return d
}

var cellLineMaterialAttributes = []string{
	"cell_type", "organism", "tissue", "disease", "growth_medium", "biosafety_level",
	"variant", "optimal_growth_temp", "cryo_pres_medium", "gender", "description",
}

var cellLineSampleAttributes = []string{"amount", "unit", "passage", "contamination", "description"}

func importCellLines(_ context.Context, in DelegateInput) error {
	for _, e := range in.Manifest.Entities(string(domain.EntityCellLineMaterial)) {
		f := e.Fields
		created, err := in.Tx.CellLineMaterials().Create(domain.CellLineMaterial{
			Base:       stamps(f),
			Name:       f.String("name"),
			Source:     f.String("source"),
			Attributes: f.Slice(cellLineMaterialAttributes...),
		})
		if err != nil {
			return fmt.Errorf("cell line material %s: %w", e.UUID, err)
		}
		if err := in.Registry.Register(e.UUID, domain.Ref{Type: domain.EntityCellLineMaterial, ID: created.ID}); err != nil {
			return err
		}
	}
	for _, e := range in.Manifest.Entities(string(domain.EntityCellLineSample)) {
		f := e.Fields
		material, err := in.Registry.MustLookup(domain.EntityCellLineMaterial, f.String("cellline_material_id"))
		if err != nil {
			return fmt.Errorf("cell line sample %s: %w", e.UUID, err)
		}
		created, err := in.Tx.CellLineSamples().Create(domain.CellLineSample{
			Base:          stamps(f),
			MaterialID:    material.ID,
			Name:          f.String("name"),
			ShortLabel:    f.String("short_label"),
			CollectionIDs: refIDs(fetchMany(in.Manifest, in.Registry, collectionsCellline, e.UUID)),
			CreatedBy:     in.Actor,
			Attributes:    f.Slice(cellLineSampleAttributes...),
		})
		if err != nil {
			return fmt.Errorf("cell line sample %s: %w", e.UUID, err)
		}
		ref := domain.Ref{Type: domain.EntityCellLineSample, ID: created.ID}
		if _, err := in.Tx.ProvisionRootContainer(ref); err != nil {
			return fmt.Errorf("cell line sample %s: %w", e.UUID, err)
		}
		if err := in.Registry.Register(e.UUID, ref); err != nil {
			return err
		}
	}
	return nil
}

// klassName reads a klass reference exported either as a bare name or as
// an embedded klass record.
func klassName(f manifest.Fields, key string) string {
	if nested := f.Map(key); nested != nil {
		return manifest.Fields(nested).String("name")
	}
	return f.String(key)
}

func importElements(_ context.Context, in DelegateInput) error {
	for _, e := range in.Manifest.Entities(string(domain.EntityElement)) {
		f := e.Fields
		created, err := in.Tx.Elements().Create(domain.Element{
			Base:          stamps(f),
			Klass:         klassName(f, "element_klass"),
			Name:          f.String("name"),
			ShortLabel:    f.String("short_label"),
			Properties:    f.Map("properties"),
			CollectionIDs: refIDs(fetchMany(in.Manifest, in.Registry, collectionsElement, e.UUID)),
			CreatedBy:     in.Actor,
		})
		if err != nil {
			return fmt.Errorf("element %s: %w", e.UUID, err)
		}
		ref := domain.Ref{Type: domain.EntityElement, ID: created.ID}
		if _, err := in.Tx.ProvisionRootContainer(ref); err != nil {
			return fmt.Errorf("element %s: %w", e.UUID, err)
		}
		if err := in.Registry.Register(e.UUID, ref); err != nil {
			return err
		}
	}
	return nil
}

func importSegments(_ context.Context, in DelegateInput) error {
	for _, e := range in.Manifest.Entities(string(domain.EntitySegment)) {
		f := e.Fields
		owner, ok, err := in.Registry.Resolve(domain.EntityType(f.String("element_type")), f.String("element_id"))
		if err != nil {
			return fmt.Errorf("segment %s: %w", e.UUID, err)
		}
		if !ok {
			continue
		}
		created, err := in.Tx.Segments().Create(domain.Segment{
			Base:        stamps(f),
			Klass:       klassName(f, "segment_klass"),
			ElementType: owner.Type,
			ElementID:   owner.ID,
			Properties:  f.Map("properties"),
			CreatedBy:   in.Actor,
		})
		if err != nil {
			return fmt.Errorf("segment %s: %w", e.UUID, err)
		}
		if err := in.Registry.Register(e.UUID, domain.Ref{Type: domain.EntitySegment, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func importDatasets(_ context.Context, in DelegateInput) error {
	for _, e := range in.Manifest.Entities(string(domain.EntityDataset)) {
		f := e.Fields
		container, ok, err := in.Registry.Resolve(domain.EntityContainer, f.String("element_id"))
		if err != nil {
			return fmt.Errorf("dataset %s: %w", e.UUID, err)
		}
		if !ok {
			continue
		}
		created, err := in.Tx.Datasets().Create(domain.Dataset{
			Base:        stamps(f),
			Klass:       klassName(f, "dataset_klass"),
			ContainerID: container.ID,
			Properties:  f.Map("properties"),
		})
		if err != nil {
			return fmt.Errorf("dataset %s: %w", e.UUID, err)
		}
		if err := in.Registry.Register(e.UUID, domain.Ref{Type: domain.EntityDataset, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}
