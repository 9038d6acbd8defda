package memory

import (
	"fmt"

	"elnimport/pkg/domain"
)

// Exists reports whether ref resolves to a stored entity of its type.
func (tx *transaction) Exists(ref domain.Ref) bool {
	if ref.ID == "" {
		return false
	}
	if domain.IsReactionRole(ref.Type) {
		rs, ok := tx.state.reactionSamples.byID[ref.ID]
		return ok && rs.Role == ref.Type
	}
	var ok bool
	switch ref.Type {
	case domain.EntityCollection:
		_, ok = tx.state.collections.byID[ref.ID]
	case domain.EntityMolecule:
		_, ok = tx.state.molecules.byID[ref.ID]
	case domain.EntityMoleculeName:
		_, ok = tx.state.moleculeNames.byID[ref.ID]
	case domain.EntitySample:
		_, ok = tx.state.samples.byID[ref.ID]
	case domain.EntityChemical:
		_, ok = tx.state.chemicals.byID[ref.ID]
	case domain.EntityComponent:
		_, ok = tx.state.components.byID[ref.ID]
	case domain.EntityResidue:
		_, ok = tx.state.residues.byID[ref.ID]
	case domain.EntityReaction:
		_, ok = tx.state.reactions.byID[ref.ID]
	case domain.EntityWellplate:
		_, ok = tx.state.wellplates.byID[ref.ID]
	case domain.EntityWell:
		_, ok = tx.state.wells.byID[ref.ID]
	case domain.EntityResearchPlan:
		_, ok = tx.state.researchPlans.byID[ref.ID]
	case domain.EntityScreen:
		_, ok = tx.state.screens.byID[ref.ID]
	case domain.EntityContainer:
		_, ok = tx.state.containers.byID[ref.ID]
	case domain.EntityAttachment:
		_, ok = tx.state.attachments.byID[ref.ID]
	case domain.EntityLiterature:
		_, ok = tx.state.literature.byID[ref.ID]
	case domain.EntityLiteral:
		_, ok = tx.state.literals.byID[ref.ID]
	case domain.EntityCellLineMaterial:
		_, ok = tx.state.cellLineMaterials.byID[ref.ID]
	case domain.EntityCellLineSample:
		_, ok = tx.state.cellLineSamples.byID[ref.ID]
	case domain.EntityElement:
		_, ok = tx.state.elements.byID[ref.ID]
	case domain.EntitySegment:
		_, ok = tx.state.segments.byID[ref.ID]
	case domain.EntityDataset:
		_, ok = tx.state.datasets.byID[ref.ID]
	}
	return ok
}

// FindMoleculeByFingerprint returns the non-placeholder molecule with the given fingerprint.
func (tx *transaction) FindMoleculeByFingerprint(fingerprint string) (Molecule, bool) {
	if fingerprint == "" {
		return Molecule{}, false
	}
	for _, m := range tx.state.molecules.list() {
		if !m.Dummy && m.Fingerprint == fingerprint {
			return m, true
		}
	}
	return Molecule{}, false
}

// DummyMolecule returns the shared placeholder molecule, creating it on first use.
func (tx *transaction) DummyMolecule() (Molecule, error) {
	for _, m := range tx.state.molecules.list() {
		if m.Dummy {
			return m, nil
		}
	}
	return tx.Molecules().Create(Molecule{Dummy: true})
}

// FindMoleculeName looks up a user's name for a molecule.
func (tx *transaction) FindMoleculeName(moleculeID, userID, name string) (MoleculeName, bool) {
	for _, n := range tx.state.moleculeNames.list() {
		if n.MoleculeID == moleculeID && n.UserID == userID && n.Name == name {
			return n, true
		}
	}
	return MoleculeName{}, false
}

// RootContainer returns the root container owned by a containable entity.
func (tx *transaction) RootContainer(owner domain.Ref) (Container, bool) {
	for _, c := range tx.state.containers.list() {
		if c.ContainerType == domain.ContainerRoot && c.ContainableType == owner.Type && c.ContainableID == owner.ID {
			return cloneContainer(c), true
		}
	}
	return Container{}, false
}

// ChildContainers lists direct children of a container in creation order.
func (tx *transaction) ChildContainers(parentID string) []Container {
	var out []Container
	for _, c := range tx.state.containers.list() {
		if c.ParentID != nil && *c.ParentID == parentID {
			out = append(out, cloneContainer(c))
		}
	}
	return out
}

// ProvisionRootContainer returns the owner's root container, creating it
// together with an empty analyses child when absent.
func (tx *transaction) ProvisionRootContainer(owner domain.Ref) (Container, error) {
	if existing, ok := tx.RootContainer(owner); ok {
		return existing, nil
	}
	root, err := tx.Containers().Create(Container{
		ContainerType:   domain.ContainerRoot,
		ContainableType: owner.Type,
		ContainableID:   owner.ID,
	})
	if err != nil {
		return Container{}, fmt.Errorf("provision root container for %s: %w", owner, err)
	}
	parentID := root.ID
	if _, err := tx.Containers().Create(Container{ContainerType: domain.ContainerAnalyses, ParentID: &parentID}); err != nil {
		return Container{}, fmt.Errorf("provision analyses container for %s: %w", owner, err)
	}
	return root, nil
}

// JoinCollections adds collectionIDs to the memberships of a collection member.
func (tx *transaction) JoinCollections(ref domain.Ref, collectionIDs []string) (bool, error) {
	if !domain.IsCollectionMember(ref.Type) {
		return false, nil
	}
	if len(collectionIDs) == 0 {
		return true, nil
	}
	var err error
	switch ref.Type {
	case domain.EntitySample:
		_, err = tx.Samples().Update(ref.ID, func(s *Sample) error {
			s.CollectionIDs = appendUnique(s.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityReaction:
		_, err = tx.Reactions().Update(ref.ID, func(r *Reaction) error {
			r.CollectionIDs = appendUnique(r.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityWellplate:
		_, err = tx.Wellplates().Update(ref.ID, func(w *Wellplate) error {
			w.CollectionIDs = appendUnique(w.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityScreen:
		_, err = tx.Screens().Update(ref.ID, func(s *Screen) error {
			s.CollectionIDs = appendUnique(s.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityResearchPlan:
		_, err = tx.ResearchPlans().Update(ref.ID, func(p *ResearchPlan) error {
			p.CollectionIDs = appendUnique(p.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityElement:
		_, err = tx.Elements().Update(ref.ID, func(e *Element) error {
			e.CollectionIDs = appendUnique(e.CollectionIDs, collectionIDs...)
			return nil
		})
	case domain.EntityCellLineSample:
		_, err = tx.CellLineSamples().Update(ref.ID, func(s *CellLineSample) error {
			s.CollectionIDs = appendUnique(s.CollectionIDs, collectionIDs...)
			return nil
		})
	}
	if err != nil {
		return true, err
	}
	return true, nil
}
