package memory

import (
	"fmt"
	"strings"

	"elnimport/pkg/domain"
)

type schemas struct {
	collections       *schema[Collection]
	molecules         *schema[Molecule]
	moleculeNames     *schema[MoleculeName]
	samples           *schema[Sample]
	chemicals         *schema[Chemical]
	components        *schema[Component]
	residues          *schema[Residue]
	reactions         *schema[Reaction]
	reactionSamples   *schema[ReactionSample]
	wellplates        *schema[Wellplate]
	wells             *schema[Well]
	researchPlans     *schema[ResearchPlan]
	screens           *schema[Screen]
	containers        *schema[Container]
	attachments       *schema[Attachment]
	literature        *schema[Literature]
	literals          *schema[Literal]
	cellLineMaterials *schema[CellLineMaterial]
	cellLineSamples   *schema[CellLineSample]
	elements          *schema[Element]
	segments          *schema[Segment]
	datasets          *schema[Dataset]
}

func newSchemas() *schemas {
	sc := &schemas{
		collections:       newSchema[Collection](domain.EntityCollection, cloneCollection),
		molecules:         newSchema[Molecule](domain.EntityMolecule, nil),
		moleculeNames:     newSchema[MoleculeName](domain.EntityMoleculeName, nil),
		samples:           newSchema[Sample](domain.EntitySample, cloneSample),
		chemicals:         newSchema[Chemical](domain.EntityChemical, cloneChemical),
		components:        newSchema[Component](domain.EntityComponent, cloneComponent),
		residues:          newSchema[Residue](domain.EntityResidue, cloneResidue),
		reactions:         newSchema[Reaction](domain.EntityReaction, cloneReaction),
		reactionSamples:   newSchema[ReactionSample]("ReactionSample", cloneReactionSample),
		wellplates:        newSchema[Wellplate](domain.EntityWellplate, cloneWellplate),
		wells:             newSchema[Well](domain.EntityWell, cloneWell),
		researchPlans:     newSchema[ResearchPlan](domain.EntityResearchPlan, cloneResearchPlan),
		screens:           newSchema[Screen](domain.EntityScreen, cloneScreen),
		containers:        newSchema[Container](domain.EntityContainer, cloneContainer),
		attachments:       newSchema[Attachment](domain.EntityAttachment, nil),
		literature:        newSchema[Literature](domain.EntityLiterature, cloneLiterature),
		literals:          newSchema[Literal](domain.EntityLiteral, nil),
		cellLineMaterials: newSchema[CellLineMaterial](domain.EntityCellLineMaterial, cloneCellLineMaterial),
		cellLineSamples:   newSchema[CellLineSample](domain.EntityCellLineSample, cloneCellLineSample),
		elements:          newSchema[Element](domain.EntityElement, cloneElement),
		segments:          newSchema[Segment](domain.EntitySegment, cloneSegment),
		datasets:          newSchema[Dataset](domain.EntityDataset, cloneDataset),
	}

	sc.collections.validate = validateCollection
	sc.molecules.validate = validateMolecule
	sc.moleculeNames.validate = validateMoleculeName
	sc.samples.validate = validateSample
	sc.samples.afterCreate = func(tx *transaction, s Sample) error {
		_, err := tx.ProvisionRootContainer(domain.Ref{Type: domain.EntitySample, ID: s.ID})
		return err
	}
	sc.chemicals.validate = func(tx *transaction, c *Chemical) error {
		return requireRef(tx, domain.EntityChemical, "sample_id", domain.Ref{Type: domain.EntitySample, ID: c.SampleID})
	}
	sc.components.validate = func(tx *transaction, c *Component) error {
		return requireRef(tx, domain.EntityComponent, "sample_id", domain.Ref{Type: domain.EntitySample, ID: c.SampleID})
	}
	sc.residues.validate = func(tx *transaction, r *Residue) error {
		return requireRef(tx, domain.EntityResidue, "sample_id", domain.Ref{Type: domain.EntitySample, ID: r.SampleID})
	}
	sc.reactions.validate = func(tx *transaction, r *Reaction) error {
		return requireCollections(tx, domain.EntityReaction, r.CollectionIDs)
	}
	sc.reactionSamples.validate = validateReactionSample
	sc.wellplates.validate = func(tx *transaction, w *Wellplate) error {
		if w.Width < 0 || w.Height < 0 {
			return domain.ValidationError{Entity: domain.EntityWellplate, Field: "size", Message: "dimensions must not be negative"}
		}
		return requireCollections(tx, domain.EntityWellplate, w.CollectionIDs)
	}
	sc.wells.validate = func(tx *transaction, w *Well) error {
		if err := requireRef(tx, domain.EntityWell, "wellplate_id", domain.Ref{Type: domain.EntityWellplate, ID: w.WellplateID}); err != nil {
			return err
		}
		if w.SampleID != nil {
			return requireRef(tx, domain.EntityWell, "sample_id", domain.Ref{Type: domain.EntitySample, ID: *w.SampleID})
		}
		return nil
	}
	sc.researchPlans.validate = func(tx *transaction, p *ResearchPlan) error {
		return requireCollections(tx, domain.EntityResearchPlan, p.CollectionIDs)
	}
	sc.researchPlans.afterCreate = func(tx *transaction, p ResearchPlan) error {
		_, err := tx.ProvisionRootContainer(domain.Ref{Type: domain.EntityResearchPlan, ID: p.ID})
		return err
	}
	sc.screens.validate = validateScreen
	sc.containers.validate = validateContainer
	sc.attachments.validate = validateAttachment
	sc.literals.validate = func(tx *transaction, l *Literal) error {
		if err := requireRef(tx, domain.EntityLiteral, "literature_id", domain.Ref{Type: domain.EntityLiterature, ID: l.LiteratureID}); err != nil {
			return err
		}
		return requireRef(tx, domain.EntityLiteral, "element_id", domain.Ref{Type: l.ElementType, ID: l.ElementID})
	}
	sc.cellLineMaterials.validate = func(_ *transaction, m *CellLineMaterial) error {
		if strings.TrimSpace(m.Name) == "" {
			return domain.ValidationError{Entity: domain.EntityCellLineMaterial, Field: "name", Message: "required"}
		}
		return nil
	}
	sc.cellLineSamples.validate = func(tx *transaction, s *CellLineSample) error {
		if err := requireRef(tx, domain.EntityCellLineSample, "cellline_material_id", domain.Ref{Type: domain.EntityCellLineMaterial, ID: s.MaterialID}); err != nil {
			return err
		}
		return requireCollections(tx, domain.EntityCellLineSample, s.CollectionIDs)
	}
	sc.elements.validate = func(tx *transaction, e *Element) error {
		if strings.TrimSpace(e.Klass) == "" {
			return domain.ValidationError{Entity: domain.EntityElement, Field: "element_klass", Message: "required"}
		}
		return requireCollections(tx, domain.EntityElement, e.CollectionIDs)
	}
	sc.segments.validate = func(tx *transaction, s *Segment) error {
		if strings.TrimSpace(s.Klass) == "" {
			return domain.ValidationError{Entity: domain.EntitySegment, Field: "segment_klass", Message: "required"}
		}
		return requireRef(tx, domain.EntitySegment, "element_id", domain.Ref{Type: s.ElementType, ID: s.ElementID})
	}
	sc.datasets.validate = func(tx *transaction, d *Dataset) error {
		return requireRef(tx, domain.EntityDataset, "element_id", domain.Ref{Type: domain.EntityContainer, ID: d.ContainerID})
	}
	return sc
}

func requireRef(tx *transaction, entity domain.EntityType, field string, ref domain.Ref) error {
	if ref.ID == "" {
		return domain.ValidationError{Entity: entity, Field: field, Message: "required"}
	}
	if !tx.Exists(ref) {
		return fmt.Errorf("%s %s: %w", entity, field, domain.NotFoundError{Entity: ref.Type, ID: ref.ID})
	}
	return nil
}

func requireCollections(tx *transaction, entity domain.EntityType, ids []string) error {
	for _, id := range ids {
		if err := requireRef(tx, entity, "collection_ids", domain.Ref{Type: domain.EntityCollection, ID: id}); err != nil {
			return err
		}
	}
	return nil
}

// ancestryOf computes the materialized path of a child whose parent has the
// given ancestry and ID.
func ancestryOf(parentAncestry, parentID string) string {
	if parentAncestry == "" {
		return parentID
	}
	return parentAncestry + "/" + parentID
}

func validateCollection(tx *transaction, c *Collection) error {
	if strings.TrimSpace(c.Label) == "" {
		return domain.ValidationError{Entity: domain.EntityCollection, Field: "label", Message: "required"}
	}
	if c.UserID == "" {
		return domain.ValidationError{Entity: domain.EntityCollection, Field: "user_id", Message: "required"}
	}
	c.Ancestry = ""
	if c.ParentID == nil {
		return nil
	}
	if *c.ParentID == c.ID {
		return domain.ValidationError{Entity: domain.EntityCollection, Field: "parent_id", Message: "collection cannot be its own parent"}
	}
	parent, ok := tx.Collections().Find(*c.ParentID)
	if !ok {
		return fmt.Errorf("collection parent_id: %w", domain.NotFoundError{Entity: domain.EntityCollection, ID: *c.ParentID})
	}
	c.Ancestry = ancestryOf(parent.Ancestry, parent.ID)
	if containsString(strings.Split(c.Ancestry, "/"), c.ID) {
		return domain.ValidationError{Entity: domain.EntityCollection, Field: "parent_id", Message: "ancestry cycle"}
	}
	return nil
}

func validateMolecule(tx *transaction, m *Molecule) error {
	if m.Dummy {
		return nil
	}
	if m.Fingerprint == "" {
		return domain.ValidationError{Entity: domain.EntityMolecule, Field: "fingerprint", Message: "required"}
	}
	if existing, ok := tx.FindMoleculeByFingerprint(m.Fingerprint); ok && existing.ID != m.ID {
		return domain.AlreadyExistsError{Entity: domain.EntityMolecule, ID: existing.ID}
	}
	return nil
}

func validateMoleculeName(tx *transaction, n *MoleculeName) error {
	if strings.TrimSpace(n.Name) == "" {
		return domain.ValidationError{Entity: domain.EntityMoleculeName, Field: "name", Message: "required"}
	}
	return requireRef(tx, domain.EntityMoleculeName, "molecule_id", domain.Ref{Type: domain.EntityMolecule, ID: n.MoleculeID})
}

func validateSample(tx *transaction, s *Sample) error {
	if s.CreatedBy == "" {
		return domain.ValidationError{Entity: domain.EntitySample, Field: "created_by", Message: "required"}
	}
	if err := requireRef(tx, domain.EntitySample, "molecule_id", domain.Ref{Type: domain.EntityMolecule, ID: s.MoleculeID}); err != nil {
		return err
	}
	if s.MoleculeNameID != nil {
		if err := requireRef(tx, domain.EntitySample, "molecule_name_id", domain.Ref{Type: domain.EntityMoleculeName, ID: *s.MoleculeNameID}); err != nil {
			return err
		}
	}
	if err := requireCollections(tx, domain.EntitySample, s.CollectionIDs); err != nil {
		return err
	}
	s.Ancestry = ""
	if s.ParentID == nil {
		return nil
	}
	if *s.ParentID == s.ID {
		return domain.ValidationError{Entity: domain.EntitySample, Field: "parent_id", Message: "sample cannot be its own parent"}
	}
	parent, ok := tx.Samples().Find(*s.ParentID)
	if !ok {
		return fmt.Errorf("sample parent_id: %w", domain.NotFoundError{Entity: domain.EntitySample, ID: *s.ParentID})
	}
	s.Ancestry = ancestryOf(parent.Ancestry, parent.ID)
	return nil
}

func validateReactionSample(tx *transaction, r *ReactionSample) error {
	if !domain.IsReactionRole(r.Role) {
		return domain.ValidationError{Entity: r.Role, Field: "role", Message: fmt.Sprintf("unknown reaction role %q", r.Role)}
	}
	if err := requireRef(tx, r.Role, "reaction_id", domain.Ref{Type: domain.EntityReaction, ID: r.ReactionID}); err != nil {
		return err
	}
	return requireRef(tx, r.Role, "sample_id", domain.Ref{Type: domain.EntitySample, ID: r.SampleID})
}

func validateScreen(tx *transaction, s *Screen) error {
	if err := requireCollections(tx, domain.EntityScreen, s.CollectionIDs); err != nil {
		return err
	}
	for _, id := range s.WellplateIDs {
		if err := requireRef(tx, domain.EntityScreen, "wellplate_ids", domain.Ref{Type: domain.EntityWellplate, ID: id}); err != nil {
			return err
		}
	}
	for _, id := range s.ResearchPlanIDs {
		if err := requireRef(tx, domain.EntityScreen, "research_plan_ids", domain.Ref{Type: domain.EntityResearchPlan, ID: id}); err != nil {
			return err
		}
	}
	return nil
}

func validateContainer(tx *transaction, c *Container) error {
	c.Ancestry = ""
	if c.ContainerType == domain.ContainerRoot {
		if c.ParentID != nil {
			return domain.ValidationError{Entity: domain.EntityContainer, Field: "parent_id", Message: "root container cannot have a parent"}
		}
		if !domain.IsContainable(c.ContainableType) {
			return domain.ValidationError{Entity: domain.EntityContainer, Field: "containable_type", Message: fmt.Sprintf("%q cannot own containers", c.ContainableType)}
		}
		return requireRef(tx, domain.EntityContainer, "containable_id", domain.Ref{Type: c.ContainableType, ID: c.ContainableID})
	}
	if c.ParentID == nil {
		return domain.ValidationError{Entity: domain.EntityContainer, Field: "parent_id", Message: "required for non-root containers"}
	}
	if *c.ParentID == c.ID {
		return domain.ValidationError{Entity: domain.EntityContainer, Field: "parent_id", Message: "container cannot be its own parent"}
	}
	parent, ok := tx.Containers().Find(*c.ParentID)
	if !ok {
		return fmt.Errorf("container parent_id: %w", domain.NotFoundError{Entity: domain.EntityContainer, ID: *c.ParentID})
	}
	c.Ancestry = ancestryOf(parent.Ancestry, parent.ID)
	return nil
}

func validateAttachment(tx *transaction, a *Attachment) error {
	if a.Identifier == "" {
		return domain.ValidationError{Entity: domain.EntityAttachment, Field: "identifier", Message: "required"}
	}
	if a.Filename == "" {
		return domain.ValidationError{Entity: domain.EntityAttachment, Field: "filename", Message: "required"}
	}
	for _, other := range tx.state.attachments.list() {
		if other.Identifier == a.Identifier && other.ID != a.ID {
			return domain.AlreadyExistsError{Entity: domain.EntityAttachment, ID: other.ID}
		}
	}
	if a.AttachableID == "" {
		return nil
	}
	return requireRef(tx, domain.EntityAttachment, "attachable_id", domain.Ref{Type: a.AttachableType, ID: a.AttachableID})
}
