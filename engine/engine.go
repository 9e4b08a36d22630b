// Package engine ties the window, renderer, scene and frame graph into the
// main loop: poll events, update the scene, record the compiled graph into
// one command buffer per in-flight frame, submit, present.
package engine

import (
	"fmt"
	"log"
	"time"

	"github.com/duskforge/oxyfg/engine/bindless"
	"github.com/duskforge/oxyfg/engine/framegraph"
	"github.com/duskforge/oxyfg/engine/passes"
	"github.com/duskforge/oxyfg/engine/renderer"
	"github.com/duskforge/oxyfg/engine/resources"
	"github.com/duskforge/oxyfg/engine/scene"
	"github.com/duskforge/oxyfg/engine/window"
)

// Engine owns the render loop. Everything runs on one thread: the window
// must be polled and commands recorded from the thread that created the
// surface, and the graph executor is a pure interpreter with no
// synchronization of its own beyond the per-slot submission waits.
type Engine struct {
	win      *window.Window
	renderer *renderer.Renderer
	scn      scene.Scene
	table    *bindless.Table

	graph    *framegraph.FrameGraph
	standard *passes.StandardGraph

	frameLimit  time.Duration
	cullWorkers int

	frameCounter uint64
	resizedTo    *[2]int
}

// New creates the window, driver, bindless table and the standard frame
// graph over scn. The graph is compiled by Run.
func New(scn scene.Scene, options ...EngineBuilderOption) (*Engine, error) {
	e := &Engine{
		scn:         scn,
		cullWorkers: 4,
	}
	cfg := builderConfig{title: "oxyfg", width: 1280, height: 720}
	for _, opt := range options {
		opt(&cfg, e)
	}

	win, err := window.New(cfg.title, cfg.width, cfg.height, window.WithResizeCallback(func(w, h int) {
		e.resizedTo = &[2]int{w, h}
	}))
	if err != nil {
		return nil, err
	}
	e.win = win

	width, height := win.Size()
	r, err := renderer.New(win.SurfaceDescriptor(), width, height)
	if err != nil {
		win.Close()
		return nil, err
	}
	e.renderer = r

	table, err := bindless.NewTable(r.Device())
	if err != nil {
		win.Close()
		return nil, err
	}
	e.table = table

	e.graph = framegraph.NewFrameGraph(r.Device(), r.DeletionQueue(), r.Extent())
	e.standard = passes.BuildStandardGraph(e.graph, passes.StandardGraphConfig{
		Scene:           scn,
		Swapchain:       r.CurrentSurfaceTexture,
		SwapchainFormat: r.Format(),
		Extent:          r.Extent(),
		CullWorkers:     e.cullWorkers,
	})
	return e, nil
}

// Window returns the engine's window.
func (e *Engine) Window() *window.Window { return e.win }

// Scene returns the scene the engine renders.
func (e *Engine) Scene() scene.Scene { return e.scn }

// Graph returns the frame graph, for callers that add passes before Run.
func (e *Engine) Graph() *framegraph.FrameGraph { return e.graph }

// BindlessTable returns the bindless descriptor table models and materials
// register against.
func (e *Engine) BindlessTable() *bindless.Table { return e.table }

// Run uploads scene geometry, compiles the frame graph, and drives the
// render loop until the window closes. Compile-time graph errors are fatal.
func (e *Engine) Run() error {
	defer e.shutdown()

	if err := e.uploadSceneResources(); err != nil {
		return err
	}
	if err := e.graph.Compile(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}

	last := time.Now()
	for e.win.Poll() {
		frameStart := time.Now()
		dt := float32(frameStart.Sub(last).Seconds())
		last = frameStart

		e.scn.Update(dt)

		if err := e.renderFrame(); err != nil {
			return err
		}

		// Optional frame cap. Busy-wait rather than sleep: OS sleep
		// granularity overshoots millisecond frame budgets.
		if e.frameLimit > 0 {
			for time.Since(frameStart) < e.frameLimit {
			}
		}
	}
	return nil
}

// renderFrame records and submits one frame: wait the slot's previous
// submission, drain its deletion queue, acquire the swapchain image,
// execute the compiled graph into one command buffer, submit, present.
func (e *Engine) renderFrame() error {
	slot := int(e.frameCounter % resources.MaxFramesInFlight)
	e.renderer.BeginFrame(slot)

	if e.resizedTo != nil {
		size := *e.resizedTo
		e.resizedTo = nil
		if err := e.rebuildSwapchain(slot, size[0], size[1]); err != nil {
			return err
		}
	}

	if _, err := e.renderer.AcquireSurface(); err != nil {
		// Out-of-date surface (resize race, minimize). Rebuild at the
		// window's current size and retry next frame.
		log.Printf("engine: surface acquire failed, rebuilding swapchain: %v", err)
		w, h := e.win.Size()
		return e.rebuildSwapchain(slot, w, h)
	}

	encoder, err := e.renderer.Device().CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("engine: command encoder: %w", err)
	}
	if err := e.graph.Execute(encoder, slot, e.frameCounter); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("engine: finish encoder: %w", err)
	}

	e.renderer.Submit(slot, cmd)
	cmd.Release()
	encoder.Release()
	e.renderer.Present()

	e.frameCounter++
	return nil
}

// rebuildSwapchain reconfigures the surface at the new size and resizes
// every swapchain-relative graph resource in place. The device is drained
// first: the replaced surface may still be referenced by in-flight work.
func (e *Engine) rebuildSwapchain(slot, width, height int) error {
	if width <= 0 || height <= 0 {
		return nil
	}
	e.renderer.WaitIdle()
	e.renderer.Configure(width, height)
	e.standard.Present.SetExtent(e.renderer.Extent())
	if err := e.graph.SwapchainResized(slot, uint32(width), uint32(height)); err != nil {
		return fmt.Errorf("engine: swapchain resize: %w", err)
	}
	return nil
}

// RemoveObject removes the object from the scene and schedules its GPU
// geometry for deferred destruction under the current frame slot; the
// buffers are actually released once that slot's in-flight work has
// finished.
func (e *Engine) RemoveObject(id uint64) {
	for _, obj := range e.scn.Objects() {
		if obj.ID() != id {
			continue
		}
		e.scn.Remove(id)
		if mdl := obj.Model(); mdl != nil && mdl.Mesh() != nil {
			slot := int(e.frameCounter % resources.MaxFramesInFlight)
			mdl.Mesh().Release(e.renderer.DeletionQueue(), slot)
		}
		return
	}
}

// uploadSceneResources uploads every scene model (geometry, materials,
// textures) and flushes the bindless table once, before the first frame.
func (e *Engine) uploadSceneResources() error {
	device := e.renderer.Device()
	queue := e.renderer.Queue()
	for _, obj := range e.scn.Objects() {
		mdl := obj.Model()
		if mdl == nil {
			continue
		}
		if err := mdl.Upload(device, queue, e.table); err != nil {
			return fmt.Errorf("engine: %w", err)
		}
	}
	return e.table.Flush()
}

func (e *Engine) shutdown() {
	e.renderer.WaitIdle()
	e.renderer.Release()
	e.win.Close()
}
