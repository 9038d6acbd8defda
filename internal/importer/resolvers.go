package importer

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"elnimport/internal/archive"
	"elnimport/internal/diagnostics"
	"elnimport/internal/manifest"
	"elnimport/pkg/domain"
)

// resolveAncestry returns the entity registered for the last uuid of a
// slash-delimited ancestry path. Earlier ancestors are linked through it.
func resolveAncestry(reg *Registry, t domain.EntityType, ancestry string) (domain.Ref, bool) {
	parts := strings.Split(strings.Trim(ancestry, "/"), "/")
	last := strings.TrimSpace(parts[len(parts)-1])
	if last == "" {
		return domain.Ref{}, false
	}
	return reg.Lookup(t, last)
}

// association names a many-to-many join type in the manifest.
type association struct {
	joinType     string
	localField   string
	foreignField string
	foreignType  domain.EntityType
}

var (
	collectionsSample       = association{"CollectionsSample", "sample_id", "collection_id", domain.EntityCollection}
	collectionsReaction     = association{"CollectionsReaction", "reaction_id", "collection_id", domain.EntityCollection}
	collectionsWellplate    = association{"CollectionsWellplate", "wellplate_id", "collection_id", domain.EntityCollection}
	collectionsScreen       = association{"CollectionsScreen", "screen_id", "collection_id", domain.EntityCollection}
	collectionsResearchPlan = association{"CollectionsResearchPlan", "research_plan_id", "collection_id", domain.EntityCollection}
	collectionsElement      = association{"CollectionsElement", "element_id", "collection_id", domain.EntityCollection}
	collectionsCellline     = association{"CollectionsCellline", "cellline_sample_id", "collection_id", domain.EntityCollection}
	screensWellplate        = association{"ScreensWellplate", "screen_id", "wellplate_id", domain.EntityWellplate}
	researchPlansScreen     = association{"ResearchPlansScreen", "screen_id", "research_plan_id", domain.EntityResearchPlan}
)

// fetchMany scans the join records of assoc for localUUID and returns the
// registered entities on the foreign side in manifest order.
func fetchMany(m *manifest.Manifest, reg *Registry, assoc association, localUUID string) []domain.Ref {
	var out []domain.Ref
	for _, join := range m.Entities(assoc.joinType) {
		if join.Fields.String(assoc.localField) != localUUID {
			continue
		}
		if ref, ok := reg.Lookup(assoc.foreignType, join.Fields.String(assoc.foreignField)); ok {
			out = append(out, ref)
		}
	}
	return out
}

func refIDs(refs []domain.Ref) []string {
	if len(refs) == 0 {
		return nil
	}
	ids := make([]string, len(refs))
	for i, r := range refs {
		ids[i] = r.ID
	}
	return ids
}

// imageResolver reads staged vector images back by category and filename.
type imageResolver struct {
	stagingDir string
	sink       *diagnostics.Sink
}

// fetch returns the staged svg or "" when the file is missing, unreadable or
// not an svg document. Read errors are reported to the sink.
func (r imageResolver) fetch(category, filename string) string {
	if filename == "" || r.stagingDir == "" {
		return ""
	}
	path := archive.ImagePath(r.stagingDir, category, filename)
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			r.sink.ImageError(category, filename, err)
		}
		return ""
	}
	svg := string(data)
	if !strings.HasPrefix(svg, "<svg") {
		return ""
	}
	return svg
}
