package domain

import "context"

// Table exposes typed CRUD over one entity variant within a transaction.
// List returns records in insertion order.
type Table[T any] interface {
	Create(T) (T, error)
	Update(id string, mutator func(*T) error) (T, error)
	Find(id string) (T, bool)
	Delete(id string) error
	List() []T
}

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. Every reference written through a
// table must already exist in the same transaction.
type Transaction interface {
	Collections() Table[Collection]
	Molecules() Table[Molecule]
	MoleculeNames() Table[MoleculeName]
	Samples() Table[Sample]
	Chemicals() Table[Chemical]
	Components() Table[Component]
	Residues() Table[Residue]
	Reactions() Table[Reaction]
	ReactionSamples() Table[ReactionSample]
	Wellplates() Table[Wellplate]
	Wells() Table[Well]
	ResearchPlans() Table[ResearchPlan]
	Screens() Table[Screen]
	Containers() Table[Container]
	Attachments() Table[Attachment]
	Literature() Table[Literature]
	Literals() Table[Literal]
	CellLineMaterials() Table[CellLineMaterial]
	CellLineSamples() Table[CellLineSample]
	Elements() Table[Element]
	Segments() Table[Segment]
	Datasets() Table[Dataset]

	// Exists reports whether ref resolves to a stored entity.
	Exists(ref Ref) bool
	FindMoleculeByFingerprint(fingerprint string) (Molecule, bool)
	// DummyMolecule returns the shared placeholder molecule, creating it on first use.
	DummyMolecule() (Molecule, error)
	FindMoleculeName(moleculeID, userID, name string) (MoleculeName, bool)
	// RootContainer returns the root container owned by a containable entity.
	RootContainer(owner Ref) (Container, bool)
	// ChildContainers lists direct children of a container in creation order.
	ChildContainers(parentID string) []Container
	// ProvisionRootContainer creates a root container with an empty analyses child for owner.
	ProvisionRootContainer(owner Ref) (Container, error)
	// JoinCollections adds collectionIDs to a collection member. It reports
	// false without error when the referenced type has no memberships.
	JoinCollections(ref Ref, collectionIDs []string) (bool, error)
}

// PersistentStore is the abstraction over durable backends used by the importer.
type PersistentStore interface {
	// RunInTransaction applies fn atomically; any error from fn discards every write.
	RunInTransaction(ctx context.Context, fn func(Transaction) error) error
	// View runs fn against a throwaway copy of the committed state.
	View(ctx context.Context, fn func(Transaction) error) error
}
