package scene

import (
	"encoding/binary"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/automation/tools/worker"

	"github.com/duskforge/oxyfg/common"
	"github.com/duskforge/oxyfg/engine/batch"
	"github.com/duskforge/oxyfg/engine/camera"
	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/game_object"
	"github.com/duskforge/oxyfg/engine/light"
	"github.com/duskforge/oxyfg/engine/model"
	"github.com/duskforge/oxyfg/engine/renderer/material"
	"github.com/duskforge/oxyfg/engine/resources"
)

// InstanceFeedResources names the five per-frame buffers the instance feed
// owns within the frame graph pool: a static instance pool uploaded once, a
// double-buffered dynamic instance pool rebuilt every frame, a per-frame
// batch metadata buffer, the camera uniform, and the lights buffer the
// lighting dispatch reads.
type InstanceFeedResources struct {
	StaticInstances  framegraph.LogicalResourceHandle
	DynamicInstances framegraph.LogicalResourceHandle
	BatchMeta        framegraph.LogicalResourceHandle
	Camera           framegraph.LogicalResourceHandle
	Lights           framegraph.LogicalResourceHandle
}

// batchMetaRecordSize is one entry of the GPU-side batch metadata buffer:
// firstInstance and instanceCount, both u32.
const batchMetaRecordSize = 8

// MaxBatches bounds the GPU batch metadata buffer. The registry itself is
// unbounded on the CPU; the buffer declared against BatchMetaSlotSize just
// needs to hold every batch a frame can realistically produce.
const MaxBatches = 4096

// BatchMetaSlotSize is the byte size of one frame slot of the batch
// metadata buffer.
const BatchMetaSlotSize = MaxBatches * batchMetaRecordSize

// InstanceRecordSize is the byte size of one marshaled Instance, for sizing
// the instance buffers at declaration time.
const InstanceRecordSize = instanceSize

// DrawBatch is one batch's CPU-known draw parameters, recomputed every
// frame by InstanceFeed.Execute and consumed by the geometry/transparent
// passes to issue one direct DrawIndexed per batch against the dynamic
// instance buffer. The CPU-known count is used directly rather than read
// back from the GPU batch metadata buffer (which exists for shader-side
// consumption instead, e.g. a GPU culling pass keying off BatchID) since
// the CPU already holds the authoritative count before any GPU work runs
// this frame.
type DrawBatch struct {
	Mesh          *model.Mesh
	IndexCount    uint32
	FirstInstance uint32
	InstanceCount uint32
	Transparent   bool
}

// batchKey groups instances into the same draw batch by (model, material)
// identity: two objects sharing a model and its first render material bind
// their vertex/index buffers identically and so can share one DrawIndexed
// call. Both fields are interfaces backed by pointer-receiver
// implementations (see engine/model, engine/renderer/material), so the
// struct is comparable and usable as a batch.Registry key.
type batchKey struct {
	mesh     model.Model
	material material.Material
}

// InstanceFeed builds the per-frame Instance records the geometry and
// transparent passes draw from (C9). Each Execute walks the scene's
// persisted GameObjects, skips anything disabled or missing a registered
// mesh/material bindless handle, CPU-frustum-culls the rest in parallel
// across a worker pool, assigns survivors to a batchKey-keyed draw batch,
// and uploads the resulting instance array, batch metadata, and camera
// uniform for the frame's slot.
//
// engine/game_object.GameObject carries no static/dynamic flag, so the
// two-pool split works as follows: the dynamic pool is rebuilt from every
// live, enabled object every frame and is what actually drives this frame's
// draws (DrawBatches); the static pool is an upload-once snapshot taken the
// first time Execute runs, using its own independent batch numbering,
// present and ready for a future dirty-tracking pass to route genuinely
// static geometry through instead of rebuilding it every frame.
type InstanceFeed struct {
	scene    Scene
	res      InstanceFeedResources
	cullPool worker.DynamicWorkerPool

	mu             sync.Mutex
	batches        *batch.Registry
	staticUploaded bool
	drawBatches    []DrawBatch

	framegraph.NoResources
}

var _ framegraph.Pass = (*InstanceFeed)(nil)

// NewInstanceFeed creates an instance feed over scene, writing into the
// buffers named by res. cullWorkers fans CPU frustum culling out across
// that many goroutines.
func NewInstanceFeed(scene Scene, res InstanceFeedResources, cullWorkers int) *InstanceFeed {
	if cullWorkers < 1 {
		cullWorkers = 1
	}
	return &InstanceFeed{
		scene:    scene,
		res:      res,
		cullPool: worker.NewDynamicWorkerPool(cullWorkers, 256, time.Second),
		batches:  batch.NewRegistry(),
	}
}

// DrawBatches returns the batch layout built by the most recent Execute
// call, for the geometry/transparent passes to draw from.
func (f *InstanceFeed) DrawBatches() []DrawBatch {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drawBatches
}

// TotalInstanceCount returns the dynamic pool's instance count built by the
// most recent Execute call.
func (f *InstanceFeed) TotalInstanceCount() uint32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.batches.TotalCount()
}

// Info implements framegraph.Pass.
func (f *InstanceFeed) Info() framegraph.NodeInfo {
	r := f.res
	return framegraph.NodeInfo{
		Name: "SceneUpdate",
		Writes: []framegraph.ReadWrite{
			{Handle: r.StaticInstances, Usage: resources.ComputeWriteStorage},
			{Handle: r.DynamicInstances, Usage: resources.ComputeWriteStorage},
			{Handle: r.BatchMeta, Usage: resources.ComputeWriteStorage},
			// The UsageKind table has no dedicated uniform-buffer kind;
			// ComputeWriteStorage is the entry that yields a non-zero
			// buffer usage flag (matches geometry.go's camera read
			// declaring ComputeReadStorage for the same reason).
			{Handle: r.Camera, Usage: resources.ComputeWriteStorage},
			{Handle: r.Lights, Usage: resources.ComputeWriteStorage},
		},
	}
}

// Execute rebuilds this frame's instance/batch layout and writes the
// camera, dynamic instance, and batch metadata buffers for ctx.Slot,
// uploading the static snapshot once on the first call.
func (f *InstanceFeed) Execute(ctx framegraph.ExecuteContext) error {
	pool := ctx.Pool
	queue := pool.Queue()

	cam := f.scene.Camera()
	vp := cam.ViewProjectionMatrix()
	var camX, camY, camZ float32
	if ctrl := cam.Controller(); ctrl != nil {
		camX, camY, camZ = ctrl.Position()
	}
	camUniform := camera.GPUCameraUniform{ViewProj: vp, CameraPosition: [3]float32{camX, camY, camZ}}
	if err := pool.Buffer(f.res.Camera).WriteSlot(queue, ctx.Slot, camUniform.Marshal()); err != nil {
		return fmt.Errorf("scene update: camera: %w", err)
	}

	lightsBuf := pool.Buffer(f.res.Lights)
	lightData := marshalLights(f.scene.Lights(), f.scene.Ambient(), lightsBuf.PerSlotSize())
	if err := lightsBuf.WriteSlot(queue, ctx.Slot, lightData); err != nil {
		return fmt.Errorf("scene update: lights: %w", err)
	}

	candidates := collectCandidates(f.scene.Objects())
	frustum := common.ExtractFrustumFromMatrix(vp[:])
	visible := cullVisible(frustum, candidates, f.cullPool)

	f.mu.Lock()
	defer f.mu.Unlock()

	instances, repr, truncated := buildInstanceLayout(f.batches, candidates, visible, MaxDynamicInstances)
	if truncated {
		slog.Warn("scene update: dynamic instance pool truncated", "cap", MaxDynamicInstances)
	}
	if err := writeInstances(pool.Buffer(f.res.DynamicInstances), queue, ctx.Slot, instances); err != nil {
		return fmt.Errorf("scene update: dynamic instances: %w", err)
	}
	if err := pool.Buffer(f.res.BatchMeta).WriteSlot(queue, ctx.Slot, marshalBatchMeta(f.batches.Batches())); err != nil {
		return fmt.Errorf("scene update: batch meta: %w", err)
	}
	f.drawBatches = buildDrawBatches(f.batches.Batches(), repr)

	if !f.staticUploaded {
		staticReg := batch.NewRegistry()
		staticInstances, _, staticTruncated := buildInstanceLayout(staticReg, candidates, visible, MaxStaticInstances)
		if staticTruncated {
			slog.Warn("scene update: static instance pool truncated", "cap", MaxStaticInstances)
		}
		if err := writeInstances(pool.Buffer(f.res.StaticInstances), queue, 0, staticInstances); err != nil {
			return fmt.Errorf("scene update: static instances: %w", err)
		}
		f.staticUploaded = true
	}

	return nil
}

// instanceCandidate is one enabled, mesh/material-complete object awaiting
// frustum culling and batch assignment.
type instanceCandidate struct {
	obj    game_object.GameObject
	model  [16]float32
	center [3]float32
	radius float32
}

// collectCandidates filters objs down to enabled objects with a registered
// mesh and material bindless handle, building each one's model matrix and
// world-space bounding sphere. Pure aside from reading GameObject/Model
// accessors, so it's exercised directly by unit tests without a GPU
// device.
func collectCandidates(objs []game_object.GameObject) []instanceCandidate {
	out := make([]instanceCandidate, 0, len(objs))
	for _, obj := range objs {
		if !obj.Enabled() {
			continue
		}
		mdl := obj.Model()
		if mdl == nil || !mdl.MeshHandle().IsValid() {
			continue
		}
		mats := mdl.RenderMaterials()
		if len(mats) == 0 || !mats[0].BindlessHandle().IsValid() {
			continue
		}
		pos, scale, rot, _ := obj.TransformData()
		var m [16]float32
		common.BuildModelMatrix(m[:], pos[0], pos[1], pos[2], rot[0], rot[1], rot[2], scale[0], scale[1], scale[2])
		maxScale := scale[0]
		if scale[1] > maxScale {
			maxScale = scale[1]
		}
		if scale[2] > maxScale {
			maxScale = scale[2]
		}
		out = append(out, instanceCandidate{
			obj:    obj,
			model:  m,
			center: pos,
			radius: mdl.BoundingRadius() * maxScale,
		})
	}
	return out
}

// cullVisible frustum-tests every candidate's bounding sphere, fanning the
// work out across pool in fixed-size chunks behind a per-call WaitGroup
// (a pool.Wait call is unsuitable for frame-rate work since it blocks until
// workers idle-exit, not until a single batch of submitted tasks drains).
func cullVisible(frustum common.Frustum, candidates []instanceCandidate, pool worker.DynamicWorkerPool) []bool {
	visible := make([]bool, len(candidates))
	if len(candidates) == 0 {
		return visible
	}
	const chunkSize = 256
	var wg sync.WaitGroup
	taskID := 0
	for start := 0; start < len(candidates); start += chunkSize {
		end := start + chunkSize
		if end > len(candidates) {
			end = len(candidates)
		}
		wg.Add(1)
		s, e := start, end
		id := taskID
		taskID++
		pool.SubmitTask(worker.Task{
			ID: id,
			Do: func() (any, error) {
				defer wg.Done()
				for i := s; i < e; i++ {
					visible[i] = frustum.SphereVisible(candidates[i].center, candidates[i].radius)
				}
				return nil, nil
			},
		})
	}
	wg.Wait()
	return visible
}

// buildInstanceLayout assigns each visible candidate to a batchKey-keyed
// batch in batches, truncating at maxInstances with a logged warning,
// and returns the marshaled Instance slice in
// batch-contiguous order alongside a representative Model per populated
// batch (the geometry pass' source of the mesh to bind for that batch's
// draw). batches' counts are reset (ids and keys kept stable) before
// assignment so ids persist frame to frame even as which objects populate
// them changes.
func buildInstanceLayout(batches *batch.Registry, candidates []instanceCandidate, visible []bool, maxInstances int) (instances []Instance, repr map[uint32]batchRepr, truncated bool) {
	type placed struct {
		candidate instanceCandidate
		batchID   uint32
	}
	batches.ResetCounts()
	placements := make([]placed, 0, len(candidates))
	for i, c := range candidates {
		if !visible[i] {
			continue
		}
		if len(placements) >= maxInstances {
			truncated = true
			continue
		}
		mdl := c.obj.Model()
		key := batchKey{mesh: mdl, material: mdl.RenderMaterials()[0]}
		id := batches.Register(key)
		batches.AddInstance(id)
		placements = append(placements, placed{candidate: c, batchID: id})
	}

	instances = make([]Instance, batches.TotalCount())
	repr = make(map[uint32]batchRepr, len(batches.Batches()))
	local := make(map[uint32]uint32, len(batches.Batches()))
	for _, p := range placements {
		b := batches.Batches()[p.batchID]
		idx := b.FirstInstance + local[p.batchID]
		local[p.batchID]++

		mdl := p.candidate.obj.Model()
		mats := mdl.RenderMaterials()
		mat := mats[0]
		instances[idx] = newInstance(p.candidate.model, mdl.MeshHandle(), mat.BindlessHandle(), p.batchID, p.candidate.radius)
		if _, ok := repr[p.batchID]; !ok {
			repr[p.batchID] = batchRepr{model: mdl, transparent: mat.Transparent()}
		}
	}
	return instances, repr, truncated
}

// batchRepr is the representative model and opaque/transparent partition
// recorded for a batch the first time buildInstanceLayout assigns an
// instance to it this frame; every instance in a batch shares a model and
// its first render material, so one representative is enough to drive the
// batch's draw call.
type batchRepr struct {
	model       model.Model
	transparent bool
}

// buildDrawBatches reduces a batch table plus its representative map into
// the draw parameters the geometry/transparent passes consume, dropping
// any batch left empty this frame. Transparent partitions which pass
// consumes the batch: engine/passes.GeometryPass draws the opaque batches,
// engine/passes.TransparentPass draws the rest.
func buildDrawBatches(batches []batch.Batch, repr map[uint32]batchRepr) []DrawBatch {
	out := make([]DrawBatch, 0, len(batches))
	for _, b := range batches {
		if b.InstanceCount == 0 {
			continue
		}
		r, ok := repr[b.ID]
		if !ok {
			continue
		}
		out = append(out, DrawBatch{
			Mesh:          r.model.Mesh(),
			IndexCount:    uint32(r.model.IndexCount()),
			FirstInstance: b.FirstInstance,
			InstanceCount: b.InstanceCount,
			Transparent:   r.transparent,
		})
	}
	return out
}

// writeInstances marshals instances contiguously and writes them into
// buf's slot via queue.
func writeInstances(buf *resources.Buffer, queue *wgpu.Queue, slot int, instances []Instance) error {
	data := make([]byte, 0, len(instances)*instanceSize)
	for i := range instances {
		data = append(data, instances[i].Marshal()...)
	}
	return buf.WriteSlot(queue, slot, data)
}

// marshalLights serializes the per-frame lights buffer: the header at
// offset 0, then the light array at light.ArrayOffset. Lights past the
// slot's capacity are dropped with a logged warning.
func marshalLights(lights []light.Light, ambient [3]float32, slotSize uint64) []byte {
	capacity := int((slotSize - light.ArrayOffset) / light.GPULightRecordSize)
	if len(lights) > capacity {
		slog.Warn("scene update: light set truncated", "cap", capacity, "requested", len(lights))
		lights = lights[:capacity]
	}

	buf := make([]byte, light.ArrayOffset+len(lights)*light.GPULightRecordSize)
	header := light.GPULightHeader{LightCount: uint32(len(lights)), Ambient: ambient}
	copy(buf, header.Marshal())
	for i, l := range lights {
		gpu := l.ToGPU()
		copy(buf[light.ArrayOffset+i*light.GPULightRecordSize:], gpu.Marshal())
	}
	return buf
}

// marshalBatchMeta serializes the batch table into the GPU-side metadata
// buffer's record format: firstInstance and instanceCount, both u32, per
// batch id in order.
func marshalBatchMeta(batches []batch.Batch) []byte {
	buf := make([]byte, len(batches)*batchMetaRecordSize)
	for i, b := range batches {
		binary.LittleEndian.PutUint32(buf[i*batchMetaRecordSize:], b.FirstInstance)
		binary.LittleEndian.PutUint32(buf[i*batchMetaRecordSize+4:], b.InstanceCount)
	}
	return buf
}
