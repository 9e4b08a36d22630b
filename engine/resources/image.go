package resources

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// ImageSpec describes a logical image resource prior to materialization.
type ImageSpec struct {
	Format            wgpu.TextureFormat
	Extent            Extent3D
	MipLevels         uint32
	ResizePolicy      ResizePolicy
	SampleCount       uint32
	AdditionalUsage   wgpu.TextureUsage
}

// Image is a move-only owner of a GPU texture, its default view, format and
// extent. Copying an Image by value is a programmer error this package does
// not guard against.
type Image struct {
	texture   *wgpu.Texture
	view      *wgpu.TextureView
	format    wgpu.TextureFormat
	extent    Extent3D
	mipLevels uint32
	usage     wgpu.TextureUsage
	policy    ResizePolicy
}

// NewImage creates the underlying GPU texture and its default view. Images
// created with more than one mip level automatically gain CopySrc and
// CopyDst usage.
func NewImage(device *wgpu.Device, spec ImageSpec) (*Image, error) {
	usage := spec.AdditionalUsage
	if spec.MipLevels > 1 {
		usage |= wgpu.TextureUsageCopySrc | wgpu.TextureUsageCopyDst
	}

	sampleCount := spec.SampleCount
	if sampleCount == 0 {
		sampleCount = 1
	}

	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              spec.Extent.Width,
			Height:             spec.Extent.Height,
			DepthOrArrayLayers: max32(spec.Extent.Depth, 1),
		},
		MipLevelCount: max32(spec.MipLevels, 1),
		SampleCount:   sampleCount,
		Dimension:     wgpu.TextureDimension2D,
		Format:        spec.Format,
		Usage:         usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}

	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return nil, fmt.Errorf("create image view: %w", err)
	}

	return &Image{
		texture:   tex,
		view:      view,
		format:    spec.Format,
		extent:    spec.Extent,
		mipLevels: max32(spec.MipLevels, 1),
		usage:     usage,
		policy:    spec.ResizePolicy,
	}, nil
}

func max32(v, floor uint32) uint32 {
	if v < floor {
		return floor
	}
	return v
}

func (img *Image) Texture() *wgpu.Texture        { return img.texture }
func (img *Image) View() *wgpu.TextureView       { return img.view }
func (img *Image) Format() wgpu.TextureFormat    { return img.format }
func (img *Image) Extent() Extent3D              { return img.extent }
func (img *Image) MipLevels() uint32             { return img.mipLevels }
func (img *Image) Usage() wgpu.TextureUsage      { return img.usage }
func (img *Image) ResizePolicy() ResizePolicy    { return img.policy }

// addUsage widens the usage flags this image was (or will be) created with.
// The frame graph compiler calls this while OR-ing together every UsageKind
// a resource appears with across the whole graph, before the image is
// actually materialized.
func (img *Image) addUsage(u wgpu.TextureUsage) {
	img.usage |= u
}

// Resize destroys and recreates the underlying texture at a new extent and
// usage, preserving format, mip count and resize policy. The Image value
// itself (and therefore every bindless handle or pool lookup pointing at
// it) keeps working across the call — only the backing wgpu objects change.
func (img *Image) Resize(device *wgpu.Device, q *DeletionQueue, slot int, newExtent Extent3D, newUsage wgpu.TextureUsage) error {
	old := img.texture
	oldView := img.view
	q.Enqueue(slot, releasableFunc(func() {
		oldView.Release()
		old.Release()
	}))

	merged := img.usage | newUsage
	tex, err := device.CreateTexture(&wgpu.TextureDescriptor{
		Size: wgpu.Extent3D{
			Width:              newExtent.Width,
			Height:             newExtent.Height,
			DepthOrArrayLayers: max32(newExtent.Depth, 1),
		},
		MipLevelCount: img.mipLevels,
		SampleCount:   1,
		Dimension:     wgpu.TextureDimension2D,
		Format:        img.format,
		Usage:         merged,
	})
	if err != nil {
		return fmt.Errorf("resize image: %w", err)
	}
	view, err := tex.CreateView(nil)
	if err != nil {
		tex.Release()
		return fmt.Errorf("resize image view: %w", err)
	}

	img.texture = tex
	img.view = view
	img.extent = newExtent
	img.usage = merged
	return nil
}

// FillFromHost uploads raw bytes into the image through the queue's staging
// path.
func (img *Image) FillFromHost(device *wgpu.Device, queue *wgpu.Queue, data []byte) error {
	queue.WriteTexture(
		&wgpu.ImageCopyTexture{Texture: img.texture, MipLevel: 0, Origin: wgpu.Origin3D{}, Aspect: wgpu.TextureAspectAll},
		data,
		&wgpu.TextureDataLayout{
			Offset:       0,
			BytesPerRow:  4 * img.extent.Width,
			RowsPerImage: img.extent.Height,
		},
		&wgpu.Extent3D{Width: img.extent.Width, Height: img.extent.Height, DepthOrArrayLayers: 1},
	)
	return nil
}

// GenerateMipmaps issues a chain of fullscreen-triangle blit passes into the
// caller's command encoder, each sampling mip i into mip i+1. WebGPU has no
// vkCmdBlitImage equivalent; this is the standard WebGPU idiom for mip
// generation.
// The caller supplies the blit pipeline/bind groups; this method only
// tracks which mip levels still need generating.
func (img *Image) GenerateMipmaps(blit func(srcMip, dstMip uint32) error) error {
	for mip := uint32(0); mip+1 < img.mipLevels; mip++ {
		if err := blit(mip, mip+1); err != nil {
			return fmt.Errorf("generate mipmaps at level %d: %w", mip, err)
		}
	}
	return nil
}

// Release schedules the underlying texture and view for deferred
// destruction under the given frame-in-flight slot.
func (img *Image) Release(q *DeletionQueue, slot int) {
	if img.texture != nil {
		q.Enqueue(slot, img)
	}
}

func (img *Image) releaseNow() {
	if img.view != nil {
		img.view.Release()
	}
	if img.texture != nil {
		img.texture.Release()
	}
}

type releasableFunc func()

func (f releasableFunc) releaseNow() { f() }
