package framegraph

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/duskforge/oxyfg/engine/resources"
)

// Pool owns every node and logical resource declared against the graph,
// plus the materialized GPU objects the compiler allocates for them. It
// performs no materialization itself; that is the compiler's job.
type Pool struct {
	device        *wgpu.Device
	deletionQueue *resources.DeletionQueue

	nodes         []*Node
	resourcesList []*LogicalResource
	byName        map[string]LogicalResourceHandle

	materializedBuffers []*resources.Buffer
	materializedImages  []*resources.Image
}

// NewPool creates an empty resource pool bound to device for later
// materialization and to q for deferred destruction of resized/replaced
// resources.
func NewPool(device *wgpu.Device, q *resources.DeletionQueue) *Pool {
	return &Pool{
		device:        device,
		deletionQueue: q,
		byName:        make(map[string]LogicalResourceHandle),
	}
}

// AddBuffer declares a named buffer resource with the given spec, returning
// its handle. Declaring the same name twice as a non-reference is rejected
// at compile time, not here, to keep declaration order-independent of
// discovery order.
func (p *Pool) AddBuffer(name string, usage resources.UsageKind, spec BufferSpec) LogicalResourceHandle {
	spec.usage, _ = resources.BufferUsageFor(usage)
	lr := &LogicalResource{Name: name, kind: kindBuffer, Buffer: spec}
	return p.append(lr)
}

// AddImage declares a named image resource with the given spec.
func (p *Pool) AddImage(name string, usage resources.UsageKind, spec ImageSpec) LogicalResourceHandle {
	spec.usage, _ = resources.TextureUsageFor(usage)
	lr := &LogicalResource{Name: name, kind: kindImage, Image: spec}
	return p.append(lr)
}

// AddReference declares "some other pass produces a resource named name; I
// depend on it" without naming the producer. usage is folded into the
// eventual materialized resource's accumulated usage flags.
func (p *Pool) AddReference(name string, usage resources.UsageKind) LogicalResourceHandle {
	lr := &LogicalResource{Name: name, kind: kindReference, resolved: InvalidResource}
	lr.declaredUsages = append(lr.declaredUsages, usageDeclaration{kind: usage})
	return p.append(lr)
}

func (p *Pool) append(lr *LogicalResource) LogicalResourceHandle {
	h := LogicalResourceHandle(len(p.resourcesList))
	p.resourcesList = append(p.resourcesList, lr)
	return h
}

// AddNode registers pass with the pool, consulting its Info() for the
// read/write sets the compiler will schedule against.
func (p *Pool) AddNode(pass Pass) NodeHandle {
	info := pass.Info()
	n := &Node{Name: info.Name, Pass: pass, Reads: info.Reads, Writes: info.Writes}
	h := NodeHandle(len(p.nodes))
	p.nodes = append(p.nodes, n)
	return h
}

// Nodes returns the node table in insertion order.
func (p *Pool) Nodes() []*Node { return p.nodes }

// Resources returns the logical resource table in insertion order.
func (p *Pool) Resources() []*LogicalResource { return p.resourcesList }

// Resource returns the logical resource declaration for h.
func (p *Pool) Resource(h LogicalResourceHandle) *LogicalResource {
	return p.resourcesList[h]
}

// Resolve follows a reference to its concrete (non-reference) handle. Called
// only after a successful compile; panics if h was never resolved, since
// that indicates a compiler bug rather than user error (unresolved
// references are rejected during compilation, not here).
func (p *Pool) Resolve(h LogicalResourceHandle) LogicalResourceHandle {
	lr := p.resourcesList[h]
	if !lr.IsReference() {
		return h
	}
	if lr.resolved == InvalidResource {
		panic(fmt.Sprintf("framegraph: resolve called on unresolved reference %q", lr.Name))
	}
	return lr.resolved
}

// Image returns the materialized image backing handle h (which must resolve
// to an ImageSpec).
func (p *Pool) Image(h LogicalResourceHandle) *resources.Image {
	lr := p.resourcesList[p.Resolve(h)]
	return p.materializedImages[lr.Image.materialized]
}

// Buffer returns the materialized buffer backing handle h (which must
// resolve to a BufferSpec).
func (p *Pool) Buffer(h LogicalResourceHandle) *resources.Buffer {
	lr := p.resourcesList[p.Resolve(h)]
	return p.materializedBuffers[lr.Buffer.materialized]
}

// Device returns the device the pool materializes resources against.
func (p *Pool) Device() *wgpu.Device { return p.device }

// Queue returns the device's submission queue, for passes that need to
// write host data into a buffer via resources.Buffer.WriteSlot (e.g. the
// scene update pass' per-frame instance feed).
func (p *Pool) Queue() *wgpu.Queue { return p.device.GetQueue() }

// DeletionQueue returns the pool's deferred-destruction queue.
func (p *Pool) DeletionQueue() *resources.DeletionQueue { return p.deletionQueue }
