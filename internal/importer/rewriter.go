package importer

import (
	"strings"

	"elnimport/internal/diagnostics"
	"elnimport/internal/manifest"
	"elnimport/pkg/domain"
)

// rewriteBodies points image blocks in research plan bodies at the attachments
// created during extraction. A block whose public name is contained in an
// attachment filename gets that attachment's storage key and filename;
// unmatched blocks are left alone and reported. It returns the number of
// rewritten blocks.
func rewriteBodies(m *manifest.Manifest, atts []domain.Attachment, sink *diagnostics.Sink) int {
	rewritten := 0
	for _, plan := range m.Entities(string(domain.EntityResearchPlan)) {
		for _, item := range plan.Fields.List("body") {
			block, ok := item.(map[string]any)
			if !ok || block["type"] != "image" {
				continue
			}
			value, _ := block["value"].(map[string]any)
			publicName, _ := value["public_name"].(string)
			match, found := findByFilename(atts, publicName)
			if !found {
				fileName, _ := value["file_name"].(string)
				sink.UnresolvedAttachment(plan.Fields.String("name"), fileName)
				continue
			}
			value["public_name"] = match.Identifier
			value["file_name"] = match.Filename
			rewritten++
		}
	}
	return rewritten
}

func findByFilename(atts []domain.Attachment, fragment string) (domain.Attachment, bool) {
	if fragment == "" {
		return domain.Attachment{}, false
	}
	for _, a := range atts {
		if strings.Contains(a.Filename, fragment) {
			return a, true
		}
	}
	return domain.Attachment{}, false
}
