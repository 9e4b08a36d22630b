package framegraph

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// Compiler turns a declared Pool into a CompiledGraph: resolved references,
// a deterministic topological order, materialized GPU resources, and a
// synthesized barrier payload per node. Each compile stage is its own
// method so it can be tested in isolation.
type Compiler struct{}

// NewCompiler creates a stateless compiler; all state lives on the Pool
// passed to Compile.
func NewCompiler() *Compiler {
	return &Compiler{}
}

// Compile runs every compiler stage over pool in order and returns the
// compiled, executable graph. swapchainExtent is substituted for any
// ImageSpec declared SwapchainRelative.
func (c *Compiler) Compile(pool *Pool, swapchainExtent resources.Extent2D) (*CompiledGraph, error) {
	order, err := c.Schedule(pool)
	if err != nil {
		return nil, err
	}

	if err := c.materialize(pool, swapchainExtent); err != nil {
		return nil, err
	}

	if err := c.synthesizeBarriers(pool, order); err != nil {
		return nil, err
	}

	return &CompiledGraph{pool: pool, order: order, swapchainExtent: swapchainExtent}, nil
}

// Schedule runs the order-determining stages only — reference resolution,
// same-pass validation, adjacency and topological sort — without touching
// the device. Compile uses the same stages; Schedule exists for
// diagnostics and dry-run checks of a declared graph's ordering.
func (c *Compiler) Schedule(pool *Pool) ([]NodeHandle, error) {
	if err := c.resolveReferences(pool); err != nil {
		return nil, err
	}
	if err := c.checkSamePassReadWrite(pool); err != nil {
		return nil, err
	}
	producerMap := c.buildProducerMap()
	adjacency, indegree, err := c.buildAdjacency(pool, producerMap)
	if err != nil {
		return nil, err
	}
	return c.topoSort(pool, adjacency, indegree)
}

// resolveReferences matches every reference resource by name to the unique
// non-reference resource sharing it. Unresolved references are fatal with
// the name reported.
func (c *Compiler) resolveReferences(pool *Pool) error {
	byName := make(map[string]LogicalResourceHandle)
	for i, lr := range pool.resourcesList {
		if lr.IsReference() {
			continue
		}
		h := LogicalResourceHandle(i)
		if existing, ok := byName[lr.Name]; ok {
			return fmt.Errorf("framegraph: duplicate non-reference resource %q (handles %d and %d)", lr.Name, existing, h)
		}
		byName[lr.Name] = h
	}

	for i, lr := range pool.resourcesList {
		if !lr.IsReference() {
			continue
		}
		resolved, ok := byName[lr.Name]
		if !ok {
			return &ErrUnresolvedReference{Name: lr.Name}
		}
		pool.resourcesList[i].resolved = resolved
	}
	return nil
}

// checkSamePassReadWrite rejects a node that both reads and writes the same
// resolved resource; there is no well-defined barrier for that case.
func (c *Compiler) checkSamePassReadWrite(pool *Pool) error {
	for _, n := range pool.nodes {
		writes := make(map[LogicalResourceHandle]bool, len(n.Writes))
		for _, w := range n.Writes {
			writes[pool.Resolve(w.Handle)] = true
		}
		for _, r := range n.Reads {
			resolved := pool.Resolve(r.Handle)
			if writes[resolved] {
				return &ErrSamePassReadWrite{Node: n.Name, Resource: pool.Resource(resolved).Name}
			}
		}
	}
	return nil
}

// buildProducerMap seeds the state for buildAdjacency's incremental walk.
// No resource has a producer yet.
func (c *Compiler) buildProducerMap() map[LogicalResourceHandle]NodeHandle {
	return make(map[LogicalResourceHandle]NodeHandle)
}

// buildAdjacency walks nodes in insertion order; for every read/write R it
// looks up the current producer of resolved(R), and if one exists and
// differs from the current node, adds an edge producer→node. Writes then
// claim the producer slot, which is what orders write-after-write chains.
// A read with no earlier producer is ordered after the resource's last
// writer in the whole graph, so reads declared ahead of their writers can
// form a cycle, which topoSort rejects.
func (c *Compiler) buildAdjacency(pool *Pool, producer map[LogicalResourceHandle]NodeHandle) (adjacency [][]NodeHandle, indegree []int, err error) {
	n := len(pool.nodes)
	adjacency = make([][]NodeHandle, n)
	indegree = make([]int, n)

	lastWriter := make(map[LogicalResourceHandle]NodeHandle)
	for i, node := range pool.nodes {
		for _, w := range node.Writes {
			lastWriter[pool.Resolve(w.Handle)] = NodeHandle(i)
		}
	}

	for i, node := range pool.nodes {
		self := NodeHandle(i)
		seen := make(map[NodeHandle]bool)

		addEdge := func(p NodeHandle) {
			if p == self || seen[p] {
				return
			}
			seen[p] = true
			adjacency[p] = append(adjacency[p], self)
			indegree[self]++
		}

		for _, r := range node.Reads {
			resolved := pool.Resolve(r.Handle)
			if p, ok := producer[resolved]; ok {
				addEdge(p)
			} else if p, ok := lastWriter[resolved]; ok {
				addEdge(p)
			}
		}
		for _, w := range node.Writes {
			resolved := pool.Resolve(w.Handle)
			if p, ok := producer[resolved]; ok {
				addEdge(p)
			}
			producer[resolved] = self
		}
	}
	return adjacency, indegree, nil
}

// topoSort is Kahn's algorithm, picking the lowest-numbered
// (earliest-inserted) ready node at every step so re-running the compiler
// on the same pool always produces the same schedule.
func (c *Compiler) topoSort(pool *Pool, adjacency [][]NodeHandle, indegree []int) ([]NodeHandle, error) {
	n := len(indegree)
	inDeg := append([]int(nil), indegree...)

	var ready []NodeHandle
	for i, d := range inDeg {
		if d == 0 {
			ready = append(ready, NodeHandle(i))
		}
	}

	order := make([]NodeHandle, 0, n)
	for len(ready) > 0 {
		sort.Slice(ready, func(i, j int) bool { return ready[i] < ready[j] })
		next := ready[0]
		ready = ready[1:]
		order = append(order, next)

		for _, m := range adjacency[next] {
			inDeg[m]--
			if inDeg[m] == 0 {
				ready = append(ready, m)
			}
		}
	}

	if len(order) != n {
		var remaining []string
		for i, d := range inDeg {
			if d > 0 {
				remaining = append(remaining, pool.nodes[i].Name)
			}
		}
		return nil, &ErrCycle{Remaining: remaining}
	}
	return order, nil
}

// materialize accumulates the OR of every UsageKind a resource was declared
// with (including via references), then allocates its concrete buffer or
// image.
func (c *Compiler) materialize(pool *Pool, swapchainExtent resources.Extent2D) error {
	c.accumulateUsages(pool)
	return c.materializeResources(pool, swapchainExtent)
}

// accumulateUsages folds every node's declared read/write UsageKinds onto
// the resolved logical resource they target, then folds each reference's
// declare-site usage onto its resolved target. Kept separate from
// materializeResources so the resulting usage union is testable without a
// real device.
func (c *Compiler) accumulateUsages(pool *Pool) {
	for _, node := range pool.nodes {
		for _, r := range node.Reads {
			c.accumulate(pool, r, false)
		}
		for _, w := range node.Writes {
			c.accumulate(pool, w, true)
		}
	}
	for i, lr := range pool.resourcesList {
		if !lr.IsReference() {
			continue
		}
		target := pool.resourcesList[pool.Resolve(LogicalResourceHandle(i))]
		target.declaredUsages = append(target.declaredUsages, lr.declaredUsages...)
	}
}

// materializeResources allocates the concrete buffer or image for every
// non-reference logical resource, using the usage union accumulateUsages
// already folded onto it.
func (c *Compiler) materializeResources(pool *Pool, swapchainExtent resources.Extent2D) error {
	for i, lr := range pool.resourcesList {
		h := LogicalResourceHandle(i)
		if lr.IsReference() {
			continue
		}
		switch {
		case lr.IsBuffer():
			if err := c.materializeBuffer(pool, h); err != nil {
				return err
			}
		case lr.IsImage():
			if err := c.materializeImage(pool, h, swapchainExtent); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Compiler) accumulate(pool *Pool, rw ReadWrite, isWrite bool) {
	resolved := pool.Resolve(rw.Handle)
	lr := pool.resourcesList[resolved]
	lr.declaredUsages = append(lr.declaredUsages, usageDeclaration{kind: rw.Usage, isWrite: isWrite})
}

// unionBufferUsage ORs together the wgpu.BufferUsage flags implied by every
// UsageKind declared against lr so far. Exposed at package scope (not just
// inline in materializeBuffer) so it can be exercised directly in tests
// without a device.
func unionBufferUsage(lr *LogicalResource) (wgpu.BufferUsage, error) {
	usage := lr.Buffer.usage
	for _, d := range lr.declaredUsages {
		u, err := resources.BufferUsageFor(d.kind)
		if err != nil {
			return 0, fmt.Errorf("materializing buffer %q: %w", lr.Name, err)
		}
		usage |= u
	}
	return usage, nil
}

// unionTextureUsage is unionBufferUsage's image-side counterpart.
func unionTextureUsage(lr *LogicalResource) (wgpu.TextureUsage, error) {
	usage := lr.Image.usage
	for _, d := range lr.declaredUsages {
		u, err := resources.TextureUsageFor(d.kind)
		if err != nil {
			return 0, fmt.Errorf("materializing image %q: %w", lr.Name, err)
		}
		usage |= u
	}
	return usage, nil
}

func (c *Compiler) materializeBuffer(pool *Pool, h LogicalResourceHandle) error {
	lr := pool.resourcesList[h]
	usage, err := unionBufferUsage(lr)
	if err != nil {
		return err
	}

	// Every materialized buffer gains CopyDst unconditionally: there are no
	// persistently-mapped host-visible buffers in this engine, so every
	// host write goes through queue.WriteBuffer, which requires the flag.
	buf, err := resources.NewBuffer(pool.device, resources.BufferSpec{
		Size:            lr.Buffer.Size,
		PerFrame:        lr.Buffer.PerFrame,
		AdditionalUsage: usage | wgpu.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("framegraph: materializing buffer %q: %w", lr.Name, err)
	}

	idx := BufferHandle(len(pool.materializedBuffers))
	pool.materializedBuffers = append(pool.materializedBuffers, buf)
	lr.Buffer.materialized = idx
	return nil
}

func (c *Compiler) materializeImage(pool *Pool, h LogicalResourceHandle, swapchainExtent resources.Extent2D) error {
	lr := pool.resourcesList[h]
	usage, err := unionTextureUsage(lr)
	if err != nil {
		return err
	}

	extent := lr.Image.Extent
	if lr.Image.ResizePolicy == resources.SwapchainRelative {
		extent = swapchainExtent
	}

	img, err := resources.NewImage(pool.device, resources.ImageSpec{
		Format:          lr.Image.Format,
		Extent:          extent.To3D(),
		MipLevels:       lr.Image.MipLevels,
		ResizePolicy:    lr.Image.ResizePolicy,
		AdditionalUsage: usage,
	})
	if err != nil {
		return fmt.Errorf("framegraph: materializing image %q: %w", lr.Name, err)
	}

	idx := ImageHandle(len(pool.materializedImages))
	pool.materializedImages = append(pool.materializedImages, img)
	lr.Image.materialized = idx
	return nil
}

// synthesizeBarriers walks the sorted order, maintaining the last writer's
// declared UsageKind per resolved resource, and emits a barrier on every
// read/write whenever a previous usage is known. Only writes update the
// lastUsage map; reads never change what the next barrier transitions from.
func (c *Compiler) synthesizeBarriers(pool *Pool, order []NodeHandle) error {
	type lastUsage struct {
		kind resources.UsageKind
	}
	last := make(map[LogicalResourceHandle]lastUsage)

	for _, nh := range order {
		node := pool.nodes[nh]
		node.ImageBarriers = nil
		node.BufferBarriers = nil
		node.SrcStage = resources.StageNone
		node.DstStage = resources.StageNone

		apply := func(rw ReadWrite, isWrite bool) error {
			resolved := pool.Resolve(rw.Handle)
			lr := pool.resourcesList[resolved]

			prev, hasPrevious := last[resolved]
			var oldKind resources.UsageKind
			if hasPrevious {
				oldKind = prev.kind
			}

			format := wgpu.TextureFormatUndefined
			if lr.IsImage() {
				format = lr.Image.Format
			}

			tr, err := resources.Transit(oldKind, rw.Usage, hasPrevious, format)
			if err != nil {
				return &ErrUnknownTransition{Node: node.Name, Resource: lr.Name, Cause: err}
			}

			// A resource's first use in the schedule needs no barrier;
			// Transit still ran above so format restrictions are checked
			// even on first use.
			if hasPrevious {
				node.SrcStage |= tr.SrcStage
				node.DstStage |= tr.DstStage

				if lr.IsImage() {
					node.ImageBarriers = append(node.ImageBarriers, ImageBarrier{Resource: resolved, Transition: tr})
				} else {
					node.BufferBarriers = append(node.BufferBarriers, BufferBarrier{Resource: resolved, Transition: tr})
				}
			}

			if isWrite {
				last[resolved] = lastUsage{kind: rw.Usage}
			}
			return nil
		}

		for _, r := range node.Reads {
			if err := apply(r, false); err != nil {
				return err
			}
		}
		for _, w := range node.Writes {
			if err := apply(w, true); err != nil {
				return err
			}
		}
	}

	slog.Debug("framegraph: compiled", "nodes", len(order))
	return nil
}
