package scene

import (
	"testing"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/duskforge/oxyfg/common"
	"github.com/duskforge/oxyfg/engine/batch"
	"github.com/duskforge/oxyfg/engine/bindless"
	"github.com/duskforge/oxyfg/engine/game_object"
	"github.com/duskforge/oxyfg/engine/model"
	"github.com/duskforge/oxyfg/engine/renderer/material"
)

// testModel builds a minimal Model with a valid mesh handle, one render
// material with a valid bindless handle, and the given bounding radius and
// index count, enough for collectCandidates/buildInstanceLayout to treat it
// as draw-ready.
func testModel(t *testing.T, meshIndex, materialIndex uint32, radius float32, indexCount int) model.Model {
	t.Helper()
	mat := material.NewMaterial()
	mat.SetBindlessHandle(bindless.Pack(materialIndex, 0, bindless.KindUniformBuffer, bindless.ReadOnly))

	mdl := model.NewModel(
		model.WithBoundingRadius(radius),
		model.WithIndexCount(indexCount),
		model.WithRenderMaterials(mat),
	)
	mdl.SetMeshHandle(bindless.Pack(meshIndex, 0, bindless.KindStorageBuffer, bindless.ReadOnly))
	return mdl
}

func testObject(mdl model.Model, x, y, z float32) game_object.GameObject {
	return game_object.NewGameObject(
		game_object.WithEnabled(true),
		game_object.WithModel(mdl),
		game_object.WithPosition(x, y, z),
		game_object.WithScale(1, 1, 1),
	)
}

func TestCollectCandidatesSkipsDisabledAndIncomplete(t *testing.T) {
	mdl := testModel(t, 1, 1, 2.0, 36)

	enabled := testObject(mdl, 0, 0, 0)
	disabled := game_object.NewGameObject(
		game_object.WithModel(mdl),
		game_object.WithScale(1, 1, 1),
	)
	noModel := game_object.NewGameObject(
		game_object.WithEnabled(true),
		game_object.WithScale(1, 1, 1),
	)
	noMeshHandle := testObject(model.NewModel(model.WithRenderMaterials(material.NewMaterial())), 1, 1, 1)

	objs := []game_object.GameObject{enabled, disabled, noModel, noMeshHandle}
	got := collectCandidates(objs)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	if got[0].radius != 2.0 {
		t.Fatalf("expected radius 2.0, got %v", got[0].radius)
	}
}

func TestCullVisibleMarksOutOfFrustum(t *testing.T) {
	mdl := testModel(t, 1, 1, 1.0, 36)
	candidates := []instanceCandidate{
		{obj: testObject(mdl, 0, 0, -0.5), center: [3]float32{0, 0, -0.5}, radius: 0.1},
		{obj: testObject(mdl, 0, 0, 1000), center: [3]float32{0, 0, 1000}, radius: 1},
	}

	// An identity view-projection's extracted frustum bounds roughly
	// [-1, 1] on every axis, so a near-origin sphere falls inside it and a
	// far-away one falls outside, without needing a real projection matrix
	// for this check.
	var identity [16]float32
	common.Identity(identity[:])
	frustum := common.ExtractFrustumFromMatrix(identity[:])

	pool := worker.NewDynamicWorkerPool(2, 16, time.Second)
	visible := cullVisible(frustum, candidates, pool)
	if len(visible) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(visible))
	}
	if !visible[0] {
		t.Fatalf("expected the near candidate to be visible")
	}
	if visible[1] {
		t.Fatalf("expected the far candidate to be culled")
	}
}

func TestBuildInstanceLayoutBatchesByModelAndMaterial(t *testing.T) {
	mdlA := testModel(t, 1, 1, 1.0, 36)
	mdlB := testModel(t, 2, 2, 1.0, 12)

	candidates := []instanceCandidate{
		{obj: testObject(mdlA, 0, 0, 0), center: [3]float32{0, 0, 0}, radius: 1},
		{obj: testObject(mdlA, 1, 0, 0), center: [3]float32{1, 0, 0}, radius: 1},
		{obj: testObject(mdlB, 2, 0, 0), center: [3]float32{2, 0, 0}, radius: 1},
	}
	for i := range candidates {
		common.BuildModelMatrix(candidates[i].model[:], candidates[i].center[0], candidates[i].center[1], candidates[i].center[2], 0, 0, 0, 1, 1, 1)
	}
	visible := []bool{true, true, true}

	registry := batch.NewRegistry()
	instances, repr, truncated := buildInstanceLayout(registry, candidates, visible, MaxDynamicInstances)
	if truncated {
		t.Fatalf("did not expect truncation")
	}
	if len(instances) != 3 {
		t.Fatalf("expected 3 instances, got %d", len(instances))
	}
	if len(repr) != 2 {
		t.Fatalf("expected 2 batches, got %d", len(repr))
	}

	batches := registry.Batches()
	drawBatches := buildDrawBatches(batches, repr)
	if len(drawBatches) != 2 {
		t.Fatalf("expected 2 draw batches, got %d", len(drawBatches))
	}
	total := uint32(0)
	for _, db := range drawBatches {
		total += db.InstanceCount
	}
	if total != 3 {
		t.Fatalf("expected 3 total instances across draw batches, got %d", total)
	}
}

func TestBuildInstanceLayoutTruncatesAtCap(t *testing.T) {
	mdl := testModel(t, 1, 1, 1.0, 36)
	candidates := make([]instanceCandidate, 4)
	visible := make([]bool, 4)
	for i := range candidates {
		candidates[i] = instanceCandidate{obj: testObject(mdl, float32(i), 0, 0), center: [3]float32{float32(i), 0, 0}, radius: 1}
		common.BuildModelMatrix(candidates[i].model[:], float32(i), 0, 0, 0, 0, 0, 1, 1, 1)
		visible[i] = true
	}

	registry := batch.NewRegistry()
	instances, _, truncated := buildInstanceLayout(registry, candidates, visible, 2)
	if !truncated {
		t.Fatalf("expected truncation")
	}
	if len(instances) != 2 {
		t.Fatalf("expected 2 instances after truncation, got %d", len(instances))
	}
}

func TestMarshalBatchMetaRoundTripsCounts(t *testing.T) {
	mdl := testModel(t, 1, 1, 1.0, 36)
	candidates := []instanceCandidate{
		{obj: testObject(mdl, 0, 0, 0), center: [3]float32{0, 0, 0}, radius: 1},
	}
	common.BuildModelMatrix(candidates[0].model[:], 0, 0, 0, 0, 0, 0, 1, 1, 1)
	visible := []bool{true}

	registry := batch.NewRegistry()
	_, _, _ = buildInstanceLayout(registry, candidates, visible, MaxDynamicInstances)

	meta := marshalBatchMeta(registry.Batches())
	if len(meta) != batchMetaRecordSize {
		t.Fatalf("expected one batch meta record, got %d bytes", len(meta))
	}
}
