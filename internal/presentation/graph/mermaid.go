package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/blade/pkg/classifier"
	"github.com/aretw0/blade/pkg/domain"
)

// Overlay contains run outcomes to highlight on the graph.
type Overlay struct {
	Succeeded []string
	Failed    []string
}

// Router names the pipeline an intent is dispatched to.
type Router func(domain.Intent) string

// GenerateMermaid produces a Mermaid flowchart of the configured intents,
// grouped by pipeline. It applies semantic styling:
// - Host command: [[Subroutine]]
// - State path: [/Parallelogram/]
// - Unknown operator: [Rectangle]
// Fallbacks are drawn as dotted edges. A nil route puts every intent in the
// "default" pipeline.
func GenerateMermaid(intents []domain.Intent, route Router, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	var order []string
	groups := make(map[string][]domain.Intent)
	for _, in := range intents {
		in = in.Standardize()
		p := "default"
		if route != nil {
			p = route(in)
		}
		if _, seen := groups[p]; !seen {
			order = append(order, p)
		}
		groups[p] = append(groups[p], in)
	}

	var edges []string
	for _, p := range order {
		fmt.Fprintf(&sb, "    subgraph pipeline_%s[\"%s\"]\n", sanitizeMermaidID(p), p)
		for _, in := range groups[p] {
			id := sanitizeMermaidID(in.Name)
			sb.WriteString("        " + shape(id, in.Name+"<br/>"+in.Operator, classifier.Classify(in.Operator)) + "\n")

			if in.Op != "" {
				target := id + "__op"
				edges = append(edges,
					fmt.Sprintf("    %s -. op .-> %s", id, shape(target, in.Op, domain.KindCommand)))
			}
			if in.Direct != nil {
				target := id + "__direct"
				edges = append(edges,
					fmt.Sprintf("    %s -. direct .-> %s", id, shape(target, in.Direct.Path, domain.KindState)))
			}
		}
		sb.WriteString("    end\n")
	}
	for _, e := range edges {
		sb.WriteString(e + "\n")
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef succeeded fill:#dcfce7,stroke:#15803d,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef failed fill:#fee2e2,stroke:#b91c1c,stroke-width:3px,color:#000;\n")
		writeClass(&sb, overlay.Succeeded, "succeeded")
		writeClass(&sb, overlay.Failed, "failed")
	}

	return sb.String()
}

func shape(id, label string, kind domain.OperatorKind) string {
	opener, closer := "[", "]"
	switch kind {
	case domain.KindCommand:
		opener, closer = "[[", "]]"
	case domain.KindState:
		opener, closer = "[/", "/]"
	}
	return fmt.Sprintf("%s%s\"%s\"%s", id, opener, strings.ReplaceAll(label, "\"", "'"), closer)
}

func writeClass(sb *strings.Builder, names []string, class string) {
	seen := make(map[string]bool)
	for _, name := range names {
		id := sanitizeMermaidID(name)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		fmt.Fprintf(sb, "    class %s %s;\n", id, class)
	}
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
