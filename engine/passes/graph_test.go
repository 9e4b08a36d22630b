package passes

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/resources"
)

// TestStandardGraphSchedule builds the full standard frame assembly and
// checks that its declared reads/writes alone produce the expected pass
// order: no pass here names another pass, only resources.
func TestStandardGraphSchedule(t *testing.T) {
	fg := framegraph.NewFrameGraph(nil, nil, resources.Extent2D{Width: 1920, Height: 1080})
	BuildStandardGraph(fg, StandardGraphConfig{
		SwapchainFormat: wgpu.TextureFormatBGRA8Unorm,
		Extent:          resources.Extent2D{Width: 1920, Height: 1080},
		CullWorkers:     1,
	})

	order, err := framegraph.NewCompiler().Schedule(fg.Pool())
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}

	want := []string{
		"SceneUpdate", "Geometry", "Skybox", "Lighting", "Transparent",
		"Bloom", "Postprocess", "UI", "Present",
	}
	if len(order) != len(want) {
		t.Fatalf("scheduled %d nodes, want %d", len(order), len(want))
	}
	nodes := fg.Pool().Nodes()
	for i, h := range order {
		if nodes[h].Name != want[i] {
			got := make([]string, len(order))
			for j, oh := range order {
				got[j] = nodes[oh].Name
			}
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
}

// TestStandardGraphScheduleIsDeterministic rebuilds the assembly twice and
// checks both schedules match.
func TestStandardGraphScheduleIsDeterministic(t *testing.T) {
	build := func() ([]framegraph.NodeHandle, *framegraph.Pool) {
		fg := framegraph.NewFrameGraph(nil, nil, resources.Extent2D{Width: 800, Height: 600})
		BuildStandardGraph(fg, StandardGraphConfig{
			SwapchainFormat: wgpu.TextureFormatBGRA8Unorm,
			Extent:          resources.Extent2D{Width: 800, Height: 600},
			CullWorkers:     1,
		})
		order, err := framegraph.NewCompiler().Schedule(fg.Pool())
		if err != nil {
			t.Fatalf("Schedule: %v", err)
		}
		return order, fg.Pool()
	}

	order1, pool1 := build()
	order2, pool2 := build()
	for i := range order1 {
		if pool1.Nodes()[order1[i]].Name != pool2.Nodes()[order2[i]].Name {
			t.Fatalf("schedules differ at %d", i)
		}
	}
}
