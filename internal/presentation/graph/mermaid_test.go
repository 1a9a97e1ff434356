package graph_test

import (
	"strings"
	"testing"

	"github.com/aretw0/blade/internal/presentation/graph"
	"github.com/aretw0/blade/pkg/domain"
	"github.com/aretw0/blade/pkg/pipeline"
)

func TestGenerateMermaid(t *testing.T) {
	intents := []domain.Intent{
		{Name: "add_cube", Operator: "mesh.primitive_cube_add"},
		{Name: "red", Operator: "context.object.active_material.diffuse_color"},
		{Name: "odd", Operator: "foo.bar.baz", Op: "object.shade_flat", Direct: &domain.Direct{Path: "context.scene.frame_end", Value: 10}},
		{Name: "render-still", Operator: "render.render", Domain: "render"},
	}
	manager := pipeline.NewManager(nil)
	route := func(in domain.Intent) string { return manager.Select(in).Name() }

	tests := []struct {
		name     string
		route    graph.Router
		overlay  *graph.Overlay
		contains []string
		excludes []string
	}{
		{
			name:  "Shapes by operator kind",
			route: route,
			contains: []string{
				`add_cube[["add_cube<br/>mesh.primitive_cube_add"]]`,
				`red[/"red<br/>context.object.active_material.diffuse_color"/]`,
				`odd["odd<br/>foo.bar.baz"]`,
			},
		},
		{
			name:  "Pipelines as subgraphs",
			route: route,
			contains: []string{
				`subgraph pipeline_default["default"]`,
				`subgraph pipeline_material["material"]`,
				`subgraph pipeline_render["render"]`,
				`render_still[[`,
			},
		},
		{
			name:  "Fallback edges",
			route: nil,
			contains: []string{
				`odd -. op .-> odd__op[["object.shade_flat"]]`,
				`odd -. direct .-> odd__direct[/"context.scene.frame_end"/]`,
			},
			excludes: []string{`pipeline_material`},
		},
		{
			name:    "Overlay",
			route:   route,
			overlay: &graph.Overlay{Succeeded: []string{"add_cube", "add_cube"}, Failed: []string{"odd"}},
			contains: []string{
				"classDef succeeded",
				"class add_cube succeeded;",
				"class odd failed;",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := graph.GenerateMermaid(intents, tt.route, tt.overlay)
			if !strings.HasPrefix(got, "graph LR\n") {
				t.Errorf("missing header:\n%s", got)
			}
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("expected output to contain %q, got:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("expected output not to contain %q", bad)
				}
			}
			if tt.overlay != nil && strings.Count(got, "class add_cube succeeded;") != 1 {
				t.Errorf("overlay classes must be deduplicated:\n%s", got)
			}
		})
	}
}
