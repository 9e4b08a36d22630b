// Package resources implements the frame graph's resource primitives (C1):
// move-only owners of GPU images, buffers and samplers, plus the
// deferred-destruction queue and the usage-kind transition table that the
// frame graph compiler and executor consult when synthesizing barriers.
package resources

// MaxFramesInFlight is the number of frames permitted to be recording or in
// GPU execution simultaneously.
const MaxFramesInFlight = 2

// Extent3D is a 3D resource extent. Depth is 1 for 2D images.
type Extent3D struct {
	Width, Height, Depth uint32
}

// Extent2D is a 2D resource extent, used for the swapchain and
// swapchain-relative images.
type Extent2D struct {
	Width, Height uint32
}

// To3D expands a 2D extent into a 3D extent with Depth 1.
func (e Extent2D) To3D() Extent3D {
	return Extent3D{Width: e.Width, Height: e.Height, Depth: 1}
}

// ResizePolicy controls how an ImageSpec's extent behaves across swapchain
// resizes.
type ResizePolicy int

const (
	// Fixed images never change extent after creation.
	Fixed ResizePolicy = iota
	// SwapchainRelative images are resized in place whenever the swapchain
	// extent changes.
	SwapchainRelative
)

// Releasable is anything the deletion queue knows how to tear down once its
// frame-in-flight slot is known to be retired.
type Releasable interface {
	releaseNow()
}
