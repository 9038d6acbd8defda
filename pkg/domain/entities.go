// Package domain defines the persistent entities, value types, and
// transactional contracts of the electronic lab notebook store that
// archive imports are materialized into.
package domain

import (
	"time"
)

// EntityType identifies the type of record stored in the domain. Values match
// the entity-type names used by export manifests so registry keys and
// persisted handles share one vocabulary.
type EntityType string

// Supported entity type identifiers.
const (
	EntityCollection   EntityType = "Collection"
	EntityMolecule     EntityType = "Molecule"
	EntityMoleculeName EntityType = "MoleculeName"
	EntitySample       EntityType = "Sample"
	EntityChemical     EntityType = "Chemical"
	EntityComponent    EntityType = "Component"
	EntityResidue      EntityType = "Residue"
	EntityReaction     EntityType = "Reaction"
	EntityWellplate    EntityType = "Wellplate"
	EntityWell         EntityType = "Well"
	EntityResearchPlan EntityType = "ResearchPlan"
	EntityScreen       EntityType = "Screen"
	EntityContainer    EntityType = "Container"
	EntityAttachment   EntityType = "Attachment"
	EntityLiterature   EntityType = "Literature"
	EntityLiteral      EntityType = "Literal"
	EntityElement      EntityType = "Element"
	EntitySegment      EntityType = "Segment"
	EntityDataset      EntityType = "Dataset"

	EntityCellLineMaterial EntityType = "CelllineMaterial"
	EntityCellLineSample   EntityType = "CelllineSample"

	// Reaction participants share one table but keep their manifest names so
	// registry entries stay distinguishable by role.
	EntityReactionStartingMaterial    EntityType = "ReactionsStartingMaterialSample"
	EntityReactionSolvent             EntityType = "ReactionsSolventSample"
	EntityReactionPurificationSolvent EntityType = "ReactionsPurificationSolventSample"
	EntityReactionReactant            EntityType = "ReactionsReactantSample"
	EntityReactionProduct             EntityType = "ReactionsProductSample"
)

// ReactionRoles lists participant entity types in materialization order.
var ReactionRoles = []EntityType{
	EntityReactionStartingMaterial,
	EntityReactionSolvent,
	EntityReactionPurificationSolvent,
	EntityReactionReactant,
	EntityReactionProduct,
}

// IsReactionRole reports whether t names a reaction participant role.
func IsReactionRole(t EntityType) bool {
	for _, role := range ReactionRoles {
		if role == t {
			return true
		}
	}
	return false
}

// IsCollectionMember reports whether entities of type t can belong to collections.
func IsCollectionMember(t EntityType) bool {
	switch t {
	case EntitySample, EntityReaction, EntityWellplate, EntityScreen, EntityResearchPlan, EntityElement, EntityCellLineSample:
		return true
	default:
		return false
	}
}

// IsContainable reports whether entities of type t own a root container.
func IsContainable(t EntityType) bool {
	return IsCollectionMember(t)
}

// Container types with structural meaning.
const (
	ContainerRoot     = "root"
	ContainerAnalyses = "analyses"
)

// Ref is a handle to a persisted entity. The zero Ref means "absent".
type Ref struct {
	Type EntityType `json:"type"`
	ID   string     `json:"id"`
}

// IsZero reports whether the reference points at nothing.
func (r Ref) IsZero() bool { return r.ID == "" }

func (r Ref) String() string { return string(r.Type) + ":" + r.ID }

// Base carries identity and timestamps shared by every entity.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EntityBase exposes the embedded base for generic persistence helpers.
func (b *Base) EntityBase() *Base { return b }

// Entity is implemented by pointers to every persisted variant.
type Entity interface {
	EntityBase() *Base
}

// Collection groups entities for one owner; collections form a tree.
type Collection struct {
	Base
	UserID     string         `json:"user_id"`
	Label      string         `json:"label"`
	ParentID   *string        `json:"parent_id,omitempty"`
	Ancestry   string         `json:"ancestry,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Molecule is a chemical structure shared between samples.
type Molecule struct {
	Base
	Fingerprint string `json:"fingerprint"`
	Molfile     string `json:"molfile,omitempty"`
	Dummy       bool   `json:"dummy,omitempty"`
}

// MoleculeName is a user-specific name for a molecule.
type MoleculeName struct {
	Base
	MoleculeID string `json:"molecule_id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
}

// SolventEntry is one component of a sample's structured solvent mixture.
type SolventEntry struct {
	Label  string `json:"label"`
	Smiles string `json:"smiles"`
	Ratio  string `json:"ratio"`
}

// Sample is a physical substance, optionally derived from a parent sample.
type Sample struct {
	Base
	Name           string         `json:"name,omitempty"`
	ShortLabel     string         `json:"short_label,omitempty"`
	Molfile        string         `json:"molfile,omitempty"`
	Decoupled      bool           `json:"decoupled,omitempty"`
	MoleculeID     string         `json:"molecule_id"`
	MoleculeNameID *string        `json:"molecule_name_id,omitempty"`
	ParentID       *string        `json:"parent_id,omitempty"`
	Ancestry       string         `json:"ancestry,omitempty"`
	CollectionIDs  []string       `json:"collection_ids,omitempty"`
	CreatedBy      string         `json:"created_by"`
	SVG            string         `json:"sample_svg_file,omitempty"`
	MeltingPoint   *Range         `json:"melting_point,omitempty"`
	BoilingPoint   *Range         `json:"boiling_point,omitempty"`
	Solvent        []SolventEntry `json:"solvent,omitempty"`
	SolventLabel   string         `json:"solvent_label,omitempty"`
	Tag            map[string]any `json:"tag,omitempty"`
	Attributes     map[string]any `json:"attributes,omitempty"`
}

// Chemical holds inventory data for a sample.
type Chemical struct {
	Base
	SampleID   string         `json:"sample_id"`
	CAS        string         `json:"cas,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Component is a constituent of a mixture sample.
type Component struct {
	Base
	SampleID   string         `json:"sample_id"`
	Name       string         `json:"name,omitempty"`
	Position   int            `json:"position"`
	Properties map[string]any `json:"component_properties,omitempty"`
}

// Residue describes a polymer residue attached to a sample.
type Residue struct {
	Base
	SampleID    string         `json:"sample_id"`
	ResidueType string         `json:"residue_type,omitempty"`
	CustomInfo  map[string]any `json:"custom_info,omitempty"`
}

// Reaction is a chemical reaction with participating samples.
type Reaction struct {
	Base
	Name          string         `json:"name,omitempty"`
	ShortLabel    string         `json:"short_label,omitempty"`
	CollectionIDs []string       `json:"collection_ids,omitempty"`
	CreatedBy     string         `json:"created_by"`
	SVG           string         `json:"reaction_svg_file,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// ReactionSample links a sample to a reaction under a participant role.
type ReactionSample struct {
	Base
	Role       EntityType     `json:"role"`
	ReactionID string         `json:"reaction_id"`
	SampleID   string         `json:"sample_id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Wellplate is a plate of wells used in screens.
type Wellplate struct {
	Base
	Name          string         `json:"name,omitempty"`
	ShortLabel    string         `json:"short_label,omitempty"`
	Width         int            `json:"width,omitempty"`
	Height        int            `json:"height,omitempty"`
	CollectionIDs []string       `json:"collection_ids,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// Well is a single position on a wellplate, optionally holding a sample.
type Well struct {
	Base
	WellplateID string         `json:"wellplate_id"`
	SampleID    *string        `json:"sample_id,omitempty"`
	Attributes  map[string]any `json:"attributes,omitempty"`
}

// BodyField is one block of a research plan's rich content.
type BodyField struct {
	ID    string         `json:"id"`
	Type  string         `json:"type"`
	Value map[string]any `json:"value,omitempty"`
}

// ResearchPlan is a free-form document with structured body blocks.
type ResearchPlan struct {
	Base
	Name          string         `json:"name,omitempty"`
	Body          []BodyField    `json:"body,omitempty"`
	CollectionIDs []string       `json:"collection_ids,omitempty"`
	CreatedBy     string         `json:"created_by"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// Screen groups wellplates and research plans into an experiment.
type Screen struct {
	Base
	Name            string         `json:"name,omitempty"`
	CollectionIDs   []string       `json:"collection_ids,omitempty"`
	WellplateIDs    []string       `json:"wellplate_ids,omitempty"`
	ResearchPlanIDs []string       `json:"research_plan_ids,omitempty"`
	Attributes      map[string]any `json:"attributes,omitempty"`
}

// Container organises analyses and datasets beneath a containable entity.
// Only root containers carry the containable reference.
type Container struct {
	Base
	Name             string         `json:"name,omitempty"`
	ContainerType    string         `json:"container_type,omitempty"`
	Description      string         `json:"description,omitempty"`
	ExtendedMetadata map[string]any `json:"extended_metadata,omitempty"`
	ParentID         *string        `json:"parent_id,omitempty"`
	Ancestry         string         `json:"ancestry,omitempty"`
	ContainableType  EntityType     `json:"containable_type,omitempty"`
	ContainableID    string         `json:"containable_id,omitempty"`
}

// Attachment lifecycle and conversion states.
const (
	AttachmentStateQueueing = "queueing"
	ConStateNone            = "none"
)

// Attachment is an uploaded file whose payload lives in blob storage under Identifier.
type Attachment struct {
	Base
	Identifier     string     `json:"identifier"`
	Filename       string     `json:"filename"`
	ContentType    string     `json:"content_type,omitempty"`
	Size           int64      `json:"size"`
	Checksum       string     `json:"checksum,omitempty"`
	Transferred    bool       `json:"transferred"`
	State          string     `json:"aasm_state,omitempty"`
	ConState       string     `json:"con_state,omitempty"`
	CreatedBy      string     `json:"created_by"`
	CreatedFor     string     `json:"created_for"`
	AttachableType EntityType `json:"attachable_type,omitempty"`
	AttachableID   string     `json:"attachable_id,omitempty"`
	AnnotationKey  string     `json:"annotation_key,omitempty"`
}

// Literature is a bibliographic reference.
type Literature struct {
	Base
	Title string         `json:"title,omitempty"`
	URL   string         `json:"url,omitempty"`
	DOI   string         `json:"doi,omitempty"`
	Refs  map[string]any `json:"refs,omitempty"`
}

// Literal cites a literature record from an element.
type Literal struct {
	Base
	UserID       string     `json:"user_id"`
	ElementType  EntityType `json:"element_type"`
	ElementID    string     `json:"element_id"`
	LiteratureID string     `json:"literature_id"`
	Category     string     `json:"category,omitempty"`
}

// CellLineMaterial describes a cell line independent of any physical sample.
type CellLineMaterial struct {
	Base
	Name       string         `json:"name"`
	Source     string         `json:"source,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// CellLineSample is a physical sample of a cell line material.
type CellLineSample struct {
	Base
	MaterialID    string         `json:"cellline_material_id"`
	Name          string         `json:"name,omitempty"`
	ShortLabel    string         `json:"short_label,omitempty"`
	CollectionIDs []string       `json:"collection_ids,omitempty"`
	CreatedBy     string         `json:"user_id"`
	Attributes    map[string]any `json:"attributes,omitempty"`
}

// Element is a user-defined structured element.
type Element struct {
	Base
	Klass         string         `json:"element_klass"`
	Name          string         `json:"name,omitempty"`
	ShortLabel    string         `json:"short_label,omitempty"`
	Properties    map[string]any `json:"properties,omitempty"`
	CollectionIDs []string       `json:"collection_ids,omitempty"`
	CreatedBy     string         `json:"created_by"`
}

// Segment extends an element or built-in entity with user-defined properties.
type Segment struct {
	Base
	Klass       string         `json:"segment_klass"`
	ElementType EntityType     `json:"element_type"`
	ElementID   string         `json:"element_id"`
	Properties  map[string]any `json:"properties,omitempty"`
	CreatedBy   string         `json:"created_by"`
}

// Dataset attaches user-defined properties to an analysis container.
type Dataset struct {
	Base
	Klass       string         `json:"dataset_klass"`
	ContainerID string         `json:"element_id"`
	Properties  map[string]any `json:"properties,omitempty"`
}
