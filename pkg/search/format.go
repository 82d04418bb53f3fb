package search

import (
	"fmt"
	"strings"

	"github.com/docgraph-io/docgraph/pkg/types"
)

const evidenceSeparator = "\n---\n"

// FormatContext renders ranked evidence into the context block handed to the
// LLM. The rendering is deterministic for a given input: a score header, the
// chunk content, then entity and relationship lines when present.
func FormatContext(items []types.EvidenceItem) string {
	if len(items) == 0 {
		return ""
	}

	sections := make([]string, 0, len(items))
	for i, item := range items {
		var b strings.Builder
		fmt.Fprintf(&b, "[Evidence %d | score %.3f]\n", i+1, item.Score)
		b.WriteString(item.Content)

		if len(item.Entities) > 0 {
			b.WriteString("\nEntities:")
			for _, entity := range item.Entities {
				fmt.Fprintf(&b, "\n- %s: %s", entity.Type, entity.Name)
			}
		}
		if len(item.Relationships) > 0 {
			b.WriteString("\nRelationships:")
			for _, rel := range item.Relationships {
				fmt.Fprintf(&b, "\n- %s -[%s]-> %s", rel.Source, rel.Type, rel.Target)
			}
		}
		sections = append(sections, b.String())
	}
	return strings.Join(sections, evidenceSeparator)
}
