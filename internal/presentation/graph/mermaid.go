package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/colloquy/pkg/domain"
)

// GraphOverlay contains conversation state to highlight on the graph.
type GraphOverlay struct {
	CurrentNode string
	Tags        domain.Tags
}

// GenerateMermaid produces a Mermaid flowchart of a vocabulary.
// Node shapes follow the node type:
// - Default node: ((Circle))
// - variant (buttons): {{Hexagon}}
// - location: [/Parallelogram/]
// - Other types: [Rectangle]
// Edges are labelled with what selects them. Conditional answers are dotted,
// external links point to a flag-shaped node, and gotos to missing nodes end
// in a node styled as missing.
func GenerateMermaid(v *domain.Vocabulary, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	missing := make(map[string]bool)
	links := 0

	for _, name := range v.NodeNames() {
		node, _ := v.Node(name)
		safeID := sanitizeMermaidID(name)

		opener, closer := "[", "]"
		switch {
		case name == v.DefaultNode:
			opener, closer = "((", "))"
		case node.Type == domain.NodeTypeVariant:
			opener, closer = "{{", "}}"
		case node.Type == domain.NodeTypeLocation:
			opener, closer = "[/", "/]"
		}

		label := escape(name)
		if node.ResetOnEnter {
			label += " <br/> ↺ reset"
		}
		fmt.Fprintf(&sb, "    %s%s\"%s\"%s\n", safeID, opener, label, closer)

		for _, a := range node.Answers {
			edge := escape(answerLabel(a))

			if a.External {
				linkID := fmt.Sprintf("%s__link%d", safeID, links)
				links++
				fmt.Fprintf(&sb, "    %s>\"%s\"]\n", linkID, escape(a.Goto))
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, edge, linkID)
				continue
			}
			if a.Goto == "" {
				continue
			}
			if _, ok := v.Node(a.Goto); !ok {
				missing[a.Goto] = true
			}

			safeTo := sanitizeMermaidID(a.Goto)
			if a.Condition != "" {
				edge = fmt.Sprintf("%s <br/> if %s", edge, escape(a.Condition))
				fmt.Fprintf(&sb, "    %s -. \"%s\" .-> %s\n", safeID, edge, safeTo)
				continue
			}
			fmt.Fprintf(&sb, "    %s -- \"%s\" --> %s\n", safeID, edge, safeTo)
		}
	}

	if len(missing) > 0 {
		sb.WriteString("\n    classDef missing fill:#ffebee,stroke:#c62828,stroke-dasharray:5 5,color:#000;\n")
		for _, name := range sortedKeys(missing) {
			safeID := sanitizeMermaidID(name)
			fmt.Fprintf(&sb, "    %s[\"%s ?\"]\n", safeID, escape(name))
			fmt.Fprintf(&sb, "    class %s missing;\n", safeID)
		}
	}

	if overlay != nil && overlay.CurrentNode != "" {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for contrast regardless of theme.
		sb.WriteString("    classDef current fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")
		fmt.Fprintf(&sb, "    class %s current;\n", sanitizeMermaidID(overlay.CurrentNode))

		var tags []string
		for _, t := range sortedKeys(overlay.Tags) {
			tags = append(tags, fmt.Sprintf("%s=%d", t, overlay.Tags[t]))
		}
		if len(tags) > 0 {
			fmt.Fprintf(&sb, "    %%%% tags: %s\n", strings.Join(tags, ", "))
		}
	}

	return sb.String()
}

// answerLabel names what selects an answer: its button, words or content type, plus its tags.
func answerLabel(a domain.AnswerSpec) string {
	var parts []string
	if a.DisplayName != "" {
		parts = append(parts, a.DisplayName)
	}
	if len(a.Words) > 0 {
		parts = append(parts, strings.Join(a.Words, "/"))
	}
	if a.ContentType != "" {
		parts = append(parts, "<"+a.ContentType+">")
	}
	label := strings.Join(parts, " | ")
	if len(a.Tags) > 0 {
		label += " +" + strings.Join(a.Tags, " +")
	}
	return label
}

func escape(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
