package memory

import (
	"elnimport/pkg/domain"
)

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	return append([]string(nil), values...)
}

func cloneStringPtr(v *string) *string {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

func cloneMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return cloneMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, item := range typed {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneCollection(c Collection) Collection {
	cp := c
	cp.ParentID = cloneStringPtr(c.ParentID)
	cp.Attributes = cloneMap(c.Attributes)
	return cp
}

func cloneSample(s Sample) Sample {
	cp := s
	cp.MoleculeNameID = cloneStringPtr(s.MoleculeNameID)
	cp.ParentID = cloneStringPtr(s.ParentID)
	cp.CollectionIDs = cloneStrings(s.CollectionIDs)
	cp.MeltingPoint = s.MeltingPoint.Clone()
	cp.BoilingPoint = s.BoilingPoint.Clone()
	if s.Solvent != nil {
		cp.Solvent = append([]domain.SolventEntry(nil), s.Solvent...)
	}
	cp.Tag = cloneMap(s.Tag)
	cp.Attributes = cloneMap(s.Attributes)
	return cp
}

func cloneChemical(c Chemical) Chemical {
	cp := c
	cp.Attributes = cloneMap(c.Attributes)
	return cp
}

func cloneComponent(c Component) Component {
	cp := c
	cp.Properties = cloneMap(c.Properties)
	return cp
}

func cloneResidue(r Residue) Residue {
	cp := r
	cp.CustomInfo = cloneMap(r.CustomInfo)
	return cp
}

func cloneReaction(r Reaction) Reaction {
	cp := r
	cp.CollectionIDs = cloneStrings(r.CollectionIDs)
	cp.Attributes = cloneMap(r.Attributes)
	return cp
}

func cloneReactionSample(r ReactionSample) ReactionSample {
	cp := r
	cp.Attributes = cloneMap(r.Attributes)
	return cp
}

func cloneWellplate(w Wellplate) Wellplate {
	cp := w
	cp.CollectionIDs = cloneStrings(w.CollectionIDs)
	cp.Attributes = cloneMap(w.Attributes)
	return cp
}

func cloneWell(w Well) Well {
	cp := w
	cp.SampleID = cloneStringPtr(w.SampleID)
	cp.Attributes = cloneMap(w.Attributes)
	return cp
}

func cloneResearchPlan(p ResearchPlan) ResearchPlan {
	cp := p
	if p.Body != nil {
		cp.Body = make([]domain.BodyField, len(p.Body))
		for i, field := range p.Body {
			cp.Body[i] = domain.BodyField{ID: field.ID, Type: field.Type, Value: cloneMap(field.Value)}
		}
	}
	cp.CollectionIDs = cloneStrings(p.CollectionIDs)
	cp.Attributes = cloneMap(p.Attributes)
	return cp
}

func cloneScreen(s Screen) Screen {
	cp := s
	cp.CollectionIDs = cloneStrings(s.CollectionIDs)
	cp.WellplateIDs = cloneStrings(s.WellplateIDs)
	cp.ResearchPlanIDs = cloneStrings(s.ResearchPlanIDs)
	cp.Attributes = cloneMap(s.Attributes)
	return cp
}

func cloneContainer(c Container) Container {
	cp := c
	cp.ParentID = cloneStringPtr(c.ParentID)
	cp.ExtendedMetadata = cloneMap(c.ExtendedMetadata)
	return cp
}

func cloneLiterature(l Literature) Literature {
	cp := l
	cp.Refs = cloneMap(l.Refs)
	return cp
}

func cloneCellLineMaterial(m CellLineMaterial) CellLineMaterial {
	cp := m
	cp.Attributes = cloneMap(m.Attributes)
	return cp
}

func cloneCellLineSample(s CellLineSample) CellLineSample {
	cp := s
	cp.CollectionIDs = cloneStrings(s.CollectionIDs)
	cp.Attributes = cloneMap(s.Attributes)
	return cp
}

func cloneElement(e Element) Element {
	cp := e
	cp.CollectionIDs = cloneStrings(e.CollectionIDs)
	cp.Properties = cloneMap(e.Properties)
	return cp
}

func cloneSegment(s Segment) Segment {
	cp := s
	cp.Properties = cloneMap(s.Properties)
	return cp
}

func cloneDataset(d Dataset) Dataset {
	cp := d
	cp.Properties = cloneMap(d.Properties)
	return cp
}

func containsString(values []string, id string) bool {
	for _, existing := range values {
		if existing == id {
			return true
		}
	}
	return false
}

func appendUnique(values []string, ids ...string) []string {
	for _, id := range ids {
		if !containsString(values, id) {
			values = append(values, id)
		}
	}
	return values
}
