package importer

import (
	"context"
	"fmt"
	"strings"

	"elnimport/internal/archive"
	"elnimport/internal/manifest"
	"elnimport/pkg/domain"
)

var (
	collectionAttributes = []string{
		"sample_detail_level", "reaction_detail_level", "wellplate_detail_level",
		"screen_detail_level", "researchplan_detail_level",
	}
	sampleAttributes = []string{
		"target_amount_value", "target_amount_unit", "description", "molfile_version", "purity",
		"impurities", "location", "is_top_secret", "dry_solvent", "external_label",
		"real_amount_value", "real_amount_unit", "imported_readout", "identifier", "density",
		"xref", "stereo", "molecular_mass", "sum_formula", "inventory_sample", "sample_type",
	}
	reactionAttributes = []string{
		"description", "timestamp_start", "timestamp_stop", "observation", "purification",
		"dangerous_products", "conditions", "tlc_solvents", "tlc_description", "rf_value",
		"temperature", "status", "solvent", "role", "rxno", "origin", "duration",
		"vessel_size", "gaseous",
	}
	reactionSampleAttributes = []string{
		"reference", "equivalent", "position", "waste", "coefficient",
		"gas_type", "gas_phase_data", "conversion_rate",
	}
	wellplateAttributes = []string{"description", "readout_titles"}
	wellAttributes      = []string{"position_x", "position_y", "readouts", "label", "color_code", "additive"}
	screenAttributes    = []string{"description", "ops", "result", "collaborator", "conditions", "requirements"}
)

func (m *materialization) collections(_ context.Context) error {
	if m.req.Gated() {
		return m.gateCollection()
	}
	for _, e := range m.entities(domain.EntityCollection) {
		f := e.Fields
		parent, ok := resolveAncestry(m.reg, domain.EntityCollection, f.String("ancestry"))
		created, err := m.tx.Collections().Create(domain.Collection{
			Base:       stamps(f),
			UserID:     m.req.Actor,
			Label:      f.String("label"),
			ParentID:   optionalID(parent, ok),
			Attributes: f.Slice(collectionAttributes...),
		})
		if err != nil {
			return fmt.Errorf("collection %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityCollection, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

// gateCollection registers the existing gate collection under the uuid of
// the last collection in the manifest instead of recreating the tree.
func (m *materialization) gateCollection() error {
	gate, ok := m.tx.Collections().Find(m.req.GateCollectionID)
	if !ok {
		return domain.NotFoundError{Entity: domain.EntityCollection, ID: m.req.GateCollectionID}
	}
	cols := m.entities(domain.EntityCollection)
	if len(cols) == 0 {
		return nil
	}
	return m.reg.Register(cols[len(cols)-1].UUID, domain.Ref{Type: domain.EntityCollection, ID: gate.ID})
}

func (m *materialization) samples(_ context.Context) error {
	for _, e := range m.entities(domain.EntitySample) {
		if err := m.sample(e); err != nil {
			return fmt.Errorf("sample %s: %w", e.UUID, err)
		}
	}
	return nil
}

func (m *materialization) sample(e manifest.Entity) error {
	f := e.Fields
	molfile := f.String("molfile")
	structureless := strings.TrimSpace(molfile) == ""
	var (
		molecule domain.Molecule
		err      error
	)
	if structureless {
		molecule, err = m.tx.DummyMolecule()
	} else {
		molecule, err = m.molecules.Resolve(m.tx, molfile)
	}
	if err != nil {
		return err
	}
	parent, hasParent := resolveAncestry(m.reg, domain.EntitySample, f.String("ancestry"))
	s := domain.Sample{
		Base:          stamps(f),
		Name:          f.String("name"),
		ShortLabel:    f.String("short_label"),
		Molfile:       molfile,
		Decoupled:     f.Bool("decoupled"),
		MoleculeID:    molecule.ID,
		ParentID:      optionalID(parent, hasParent),
		CollectionIDs: refIDs(fetchMany(m.manifest, m.reg, collectionsSample, e.UUID)),
		CreatedBy:     m.req.Actor,
		SVG:           m.images.fetch(archive.ImageSamples, f.String("sample_svg_file")),
		Attributes:    f.Slice(sampleAttributes...),
	}
	if !structureless {
		if s.MoleculeNameID, err = m.moleculeName(molecule, f.String("molecule_name_id")); err != nil {
			return err
		}
	}
	if s.MeltingPoint, err = domain.ParseBound(f.String("melting_point")); err != nil {
		return fmt.Errorf("melting_point: %w", err)
	}
	if s.BoilingPoint, err = domain.ParseBound(f.String("boiling_point")); err != nil {
		return fmt.Errorf("boiling_point: %w", err)
	}
	m.applySolvent(&s, f.Value("solvent"))
	if m.req.Gated() {
		s.Tag = map[string]any{"eln_info": map[string]any{
			"id":          f.Value("id"),
			"short_label": f.Value("short_label"),
			"origin":      m.req.Origin,
		}}
	}
	created, err := m.tx.Samples().Create(s)
	if err != nil {
		return err
	}
	return m.reg.Register(e.UUID, domain.Ref{Type: domain.EntitySample, ID: created.ID})
}

// moleculeName finds or creates the actor's name for molecule from the
// MoleculeName manifest entry nameUUID.
func (m *materialization) moleculeName(molecule domain.Molecule, nameUUID string) (*string, error) {
	if nameUUID == "" {
		return nil, nil
	}
	entry, ok := m.manifest.Get(string(domain.EntityMoleculeName), nameUUID)
	if !ok {
		return nil, nil
	}
	name := strings.TrimSpace(entry.Fields.String("name"))
	if name == "" {
		return nil, nil
	}
	if existing, ok := m.tx.FindMoleculeName(molecule.ID, m.req.Actor, name); ok {
		return &existing.ID, nil
	}
	created, err := m.tx.MoleculeNames().Create(domain.MoleculeName{MoleculeID: molecule.ID, UserID: m.req.Actor, Name: name})
	if err != nil {
		return nil, err
	}
	return &created.ID, nil
}

// applySolvent expands a bare solvent name through the reference table and
// keeps structured mixtures as exported.
func (m *materialization) applySolvent(s *domain.Sample, value any) {
	switch v := value.(type) {
	case string:
		if v == "" {
			return
		}
		if mix, ok := m.solvents.Mixture(v); ok {
			s.Solvent = mix
			return
		}
		s.SolventLabel = v
	case []any:
		for _, item := range v {
			entry, ok := item.(map[string]any)
			if !ok {
				continue
			}
			f := manifest.Fields(entry)
			s.Solvent = append(s.Solvent, domain.SolventEntry{
				Label:  f.String("label"),
				Smiles: f.String("smiles"),
				Ratio:  f.String("ratio"),
			})
		}
	}
}

func (m *materialization) chemicals(_ context.Context) error {
	for _, e := range m.entities(domain.EntityChemical) {
		sample, ok := m.reg.Lookup(domain.EntitySample, e.Fields.String("sample_id"))
		if !ok {
			continue
		}
		created, err := m.tx.Chemicals().Create(domain.Chemical{
			SampleID:   sample.ID,
			CAS:        e.Fields.String("cas"),
			Attributes: e.Fields.Slice("chemical_data"),
		})
		if err != nil {
			return fmt.Errorf("chemical %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityChemical, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) components(_ context.Context) error {
	for _, e := range m.entities(domain.EntityComponent) {
		f := e.Fields
		sample, ok := m.reg.Lookup(domain.EntitySample, f.String("sample_id"))
		if !ok {
			continue
		}
		position, _ := f.Int("position")
		created, err := m.tx.Components().Create(domain.Component{
			SampleID:   sample.ID,
			Name:       f.String("name"),
			Position:   position,
			Properties: f.Map("component_properties"),
		})
		if err != nil {
			return fmt.Errorf("component %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityComponent, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) residues(_ context.Context) error {
	for _, e := range m.entities(domain.EntityResidue) {
		f := e.Fields
		sample, err := m.reg.MustLookup(domain.EntitySample, f.String("sample_id"))
		if err != nil {
			return fmt.Errorf("residue %s: %w", e.UUID, err)
		}
		created, err := m.tx.Residues().Create(domain.Residue{
			Base:        stamps(f),
			SampleID:    sample.ID,
			ResidueType: f.String("residue_type"),
			CustomInfo:  f.Map("custom_info"),
		})
		if err != nil {
			return fmt.Errorf("residue %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityResidue, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

// reactions creates each reaction with its root container before the staged
// image is applied, so container provisioning never replaces the image.
func (m *materialization) reactions(_ context.Context) error {
	for _, e := range m.entities(domain.EntityReaction) {
		f := e.Fields
		created, err := m.tx.Reactions().Create(domain.Reaction{
			Base:          stamps(f),
			Name:          f.String("name"),
			ShortLabel:    f.String("short_label"),
			CollectionIDs: refIDs(fetchMany(m.manifest, m.reg, collectionsReaction, e.UUID)),
			CreatedBy:     m.req.Actor,
			Attributes:    f.Slice(reactionAttributes...),
		})
		if err != nil {
			return fmt.Errorf("reaction %s: %w", e.UUID, err)
		}
		ref := domain.Ref{Type: domain.EntityReaction, ID: created.ID}
		if err := m.reg.Register(e.UUID, ref); err != nil {
			return err
		}
		if _, err := m.tx.ProvisionRootContainer(ref); err != nil {
			return fmt.Errorf("reaction %s: %w", e.UUID, err)
		}
		svg := m.images.fetch(archive.ImageReactions, f.String("reaction_svg_file"))
		if svg == "" {
			continue
		}
		if _, err := m.tx.Reactions().Update(created.ID, func(r *domain.Reaction) error {
			r.SVG = svg
			return nil
		}); err != nil {
			return fmt.Errorf("reaction %s: %w", e.UUID, err)
		}
	}
	return nil
}

func (m *materialization) reactionSamples(_ context.Context) error {
	for _, role := range domain.ReactionRoles {
		for _, e := range m.entities(role) {
			f := e.Fields
			reaction, err := m.reg.MustLookup(domain.EntityReaction, f.String("reaction_id"))
			if err != nil {
				return fmt.Errorf("%s %s: %w", role, e.UUID, err)
			}
			sample, err := m.reg.MustLookup(domain.EntitySample, f.String("sample_id"))
			if err != nil {
				return fmt.Errorf("%s %s: %w", role, e.UUID, err)
			}
			created, err := m.tx.ReactionSamples().Create(domain.ReactionSample{
				Role:       role,
				ReactionID: reaction.ID,
				SampleID:   sample.ID,
				Attributes: f.Slice(reactionSampleAttributes...),
			})
			if err != nil {
				return fmt.Errorf("%s %s: %w", role, e.UUID, err)
			}
			if err := m.reg.Register(e.UUID, domain.Ref{Type: role, ID: created.ID}); err != nil {
				return err
			}
		}
	}
	return nil
}

func (m *materialization) wellplates(_ context.Context) error {
	for _, e := range m.entities(domain.EntityWellplate) {
		f := e.Fields
		plate := domain.Wellplate{
			Base:          stamps(f),
			Name:          f.String("name"),
			ShortLabel:    f.String("short_label"),
			CollectionIDs: refIDs(fetchMany(m.manifest, m.reg, collectionsWellplate, e.UUID)),
			Attributes:    f.Slice(wellplateAttributes...),
		}
		if f.Has("width") && f.Has("height") {
			plate.Width, _ = f.Int("width")
			plate.Height, _ = f.Int("height")
		}
		created, err := m.tx.Wellplates().Create(plate)
		if err != nil {
			return fmt.Errorf("wellplate %s: %w", e.UUID, err)
		}
		ref := domain.Ref{Type: domain.EntityWellplate, ID: created.ID}
		if _, err := m.tx.ProvisionRootContainer(ref); err != nil {
			return fmt.Errorf("wellplate %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, ref); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) wells(_ context.Context) error {
	for _, e := range m.entities(domain.EntityWell) {
		f := e.Fields
		plate, err := m.reg.MustLookup(domain.EntityWellplate, f.String("wellplate_id"))
		if err != nil {
			return fmt.Errorf("well %s: %w", e.UUID, err)
		}
		sample, hasSample := m.reg.Lookup(domain.EntitySample, f.String("sample_id"))
		created, err := m.tx.Wells().Create(domain.Well{
			Base:        stamps(f),
			WellplateID: plate.ID,
			SampleID:    optionalID(sample, hasSample),
			Attributes:  f.Slice(wellAttributes...),
		})
		if err != nil {
			return fmt.Errorf("well %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityWell, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) researchPlans(_ context.Context) error {
	for _, e := range m.entities(domain.EntityResearchPlan) {
		f := e.Fields
		created, err := m.tx.ResearchPlans().Create(domain.ResearchPlan{
			Base:          stamps(f),
			Name:          f.String("name"),
			Body:          bodyFields(f.List("body")),
			CollectionIDs: refIDs(fetchMany(m.manifest, m.reg, collectionsResearchPlan, e.UUID)),
			CreatedBy:     m.req.Actor,
			Attributes:    f.Slice("description"),
		})
		if err != nil {
			return fmt.Errorf("research plan %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityResearchPlan, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func bodyFields(items []any) []domain.BodyField {
	var out []domain.BodyField
	for _, item := range items {
		block, ok := item.(map[string]any)
		if !ok {
			continue
		}
		f := manifest.Fields(block)
		field := domain.BodyField{ID: f.String("id"), Type: f.String("type"), Value: f.Map("value")}
		if field.Value == nil && block["value"] != nil {
			field.Value = map[string]any{"value": block["value"]}
		}
		out = append(out, field)
	}
	return out
}

func (m *materialization) screens(_ context.Context) error {
	for _, e := range m.entities(domain.EntityScreen) {
		f := e.Fields
		created, err := m.tx.Screens().Create(domain.Screen{
			Base:            stamps(f),
			Name:            f.String("name"),
			CollectionIDs:   refIDs(fetchMany(m.manifest, m.reg, collectionsScreen, e.UUID)),
			WellplateIDs:    refIDs(fetchMany(m.manifest, m.reg, screensWellplate, e.UUID)),
			ResearchPlanIDs: refIDs(fetchMany(m.manifest, m.reg, researchPlansScreen, e.UUID)),
			Attributes:      f.Slice(screenAttributes...),
		})
		if err != nil {
			return fmt.Errorf("screen %s: %w", e.UUID, err)
		}
		ref := domain.Ref{Type: domain.EntityScreen, ID: created.ID}
		if _, err := m.tx.ProvisionRootContainer(ref); err != nil {
			return fmt.Errorf("screen %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, ref); err != nil {
			return err
		}
	}
	return nil
}

// containers maps root and analyses containers onto the ones provisioned
// for their owners and creates every other container beneath its parent.
// Containers whose owner or parent is absent are skipped.
func (m *materialization) containers(_ context.Context) error {
	for _, e := range m.entities(domain.EntityContainer) {
		f := e.Fields
		var (
			container domain.Container
			found     bool
		)
		switch f.String("container_type") {
		case domain.ContainerRoot, "":
			owner, ok := m.reg.Lookup(domain.EntityType(f.String("containable_type")), f.String("containable_id"))
			if ok {
				container, found = m.tx.RootContainer(owner)
			}
		case domain.ContainerAnalyses:
			parent, ok := m.reg.Lookup(domain.EntityContainer, f.String("parent_id"))
			if ok {
				container, found = firstOfType(m.tx.ChildContainers(parent.ID), domain.ContainerAnalyses)
			}
		default:
			parent, ok := m.reg.Lookup(domain.EntityContainer, f.String("parent_id"))
			if !ok {
				break
			}
			parentID := parent.ID
			created, err := m.tx.Containers().Create(domain.Container{
				Base:             stamps(f),
				Name:             f.String("name"),
				ContainerType:    f.String("container_type"),
				Description:      f.String("description"),
				ExtendedMetadata: f.Map("extended_metadata"),
				ParentID:         &parentID,
			})
			if err != nil {
				return fmt.Errorf("container %s: %w", e.UUID, err)
			}
			container, found = created, true
		}
		if !found {
			m.logger.Debug("container skipped", "uuid", e.UUID, "container_type", f.String("container_type"))
			m.reg.Skip(domain.EntityContainer, e.UUID)
			continue
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityContainer, ID: container.ID}); err != nil {
			return err
		}
	}
	return nil
}

func firstOfType(cs []domain.Container, containerType string) (domain.Container, bool) {
	for _, c := range cs {
		if c.ContainerType == containerType {
			return c, true
		}
	}
	return domain.Container{}, false
}

// bindAttachments binds the attachments created during extraction to their
// owners. The staged record is the first whose filename starts with the
// declared identifier.
func (m *materialization) bindAttachments(_ context.Context) error {
	for _, e := range m.entities(domain.EntityAttachment) {
		f := e.Fields
		staged, ok := m.stagedAttachment(f.String("identifier"))
		if !ok {
			m.logger.Debug("attachment without payload", "uuid", e.UUID, "identifier", f.String("identifier"))
			continue
		}
		attachableType := domain.EntityType(f.String("attachable_type"))
		if attachableType != "" {
			if owner, ok := m.reg.Lookup(attachableType, f.String("attachable_id")); ok {
				updated, err := m.tx.Attachments().Update(staged.ID, func(a *domain.Attachment) error {
					a.AttachableType = owner.Type
					a.AttachableID = owner.ID
					a.Transferred = true
					if state := f.String("aasm_state"); state != "" {
						a.State = state
					}
					if name := f.String("filename"); name != "" {
						a.Filename = name
					}
					return nil
				})
				if err != nil {
					return fmt.Errorf("attachment %s: %w", e.UUID, err)
				}
				staged = updated
			}
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityAttachment, ID: staged.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) stagedAttachment(identifier string) (domain.Attachment, bool) {
	if identifier == "" {
		return domain.Attachment{}, false
	}
	for _, id := range m.attachments {
		a, ok := m.tx.Attachments().Find(id)
		if ok && strings.HasPrefix(a.Filename, identifier) {
			return a, true
		}
	}
	return domain.Attachment{}, false
}

// literals cites literature from elements. Literature records are created on
// first use and reused through the registry afterwards.
func (m *materialization) literals(_ context.Context) error {
	for _, e := range m.entities(domain.EntityLiteral) {
		f := e.Fields
		elementType := domain.EntityType(f.String("element_type"))
		element, ok, err := m.reg.Resolve(elementType, f.String("element_id"))
		if err != nil {
			return fmt.Errorf("literal %s: %w", e.UUID, err)
		}
		if !ok {
			m.logger.Debug("literal skipped", "uuid", e.UUID, "element_type", elementType)
			continue
		}
		literature, err := m.literature(f.String("literature_id"))
		if err != nil {
			return fmt.Errorf("literal %s: %w", e.UUID, err)
		}
		created, err := m.tx.Literals().Create(domain.Literal{
			Base:         stamps(f),
			UserID:       m.req.Actor,
			ElementType:  element.Type,
			ElementID:    element.ID,
			LiteratureID: literature.ID,
			Category:     f.String("category"),
		})
		if err != nil {
			return fmt.Errorf("literal %s: %w", e.UUID, err)
		}
		if err := m.reg.Register(e.UUID, domain.Ref{Type: domain.EntityLiteral, ID: created.ID}); err != nil {
			return err
		}
	}
	return nil
}

func (m *materialization) literature(uuid string) (domain.Ref, error) {
	if ref, ok := m.reg.Lookup(domain.EntityLiterature, uuid); ok {
		return ref, nil
	}
	entry, ok := m.manifest.Get(string(domain.EntityLiterature), uuid)
	if !ok {
		return domain.Ref{}, &UnresolvedReferenceError{Type: domain.EntityLiterature, UUID: uuid}
	}
	f := entry.Fields
	created, err := m.tx.Literature().Create(domain.Literature{
		Base:  stamps(f),
		Title: f.String("title"),
		URL:   f.String("url"),
		DOI:   f.String("doi"),
		Refs:  f.Map("refs"),
	})
	if err != nil {
		return domain.Ref{}, err
	}
	ref := domain.Ref{Type: domain.EntityLiterature, ID: created.ID}
	return ref, m.reg.Register(uuid, ref)
}
