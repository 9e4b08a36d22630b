// Package common holds plain shared data types and the matrix/frustum math
// used across the engine.
package common

import (
	"bytes"
	"fmt"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/webp"
)

// ImportedTexture is texture payload extracted from an asset: raw embedded
// image bytes (GLB) or a path to an external file.
type ImportedTexture struct {
	Name string

	// Path is the file path for external textures (empty for embedded).
	Path string

	// Data contains raw image bytes for embedded textures.
	Data []byte

	// MimeType is advisory only; Decode sniffs the actual format from the
	// content.
	MimeType string

	// Width and Height are populated after Decode.
	Width  int
	Height int
}

// Decode decodes the texture to raw RGBA pixel data, from embedded bytes if
// present or from Path otherwise. PNG, JPEG and WebP (glTF's
// EXT_texture_webp) are registered.
func (t *ImportedTexture) Decode() ([]byte, uint32, uint32, error) {
	if t == nil {
		return nil, 0, 0, fmt.Errorf("texture is nil")
	}

	var img image.Image
	var err error

	switch {
	case len(t.Data) > 0:
		img, _, err = image.Decode(bytes.NewReader(t.Data))
		if err != nil {
			return nil, 0, 0, fmt.Errorf("decode embedded image: %w", err)
		}
	case t.Path != "":
		file, fileErr := os.Open(t.Path)
		if fileErr != nil {
			return nil, 0, 0, fmt.Errorf("open texture %s: %w", t.Path, fileErr)
		}
		defer file.Close()
		img, _, err = image.Decode(file)
		if err != nil {
			return nil, 0, 0, fmt.Errorf("decode texture %s: %w", t.Path, err)
		}
	default:
		return nil, 0, 0, fmt.Errorf("texture has neither data nor path")
	}

	bounds := img.Bounds()
	rgba := image.NewRGBA(bounds)
	draw.Draw(rgba, bounds, img, bounds.Min, draw.Src)

	t.Width = bounds.Dx()
	t.Height = bounds.Dy()
	return rgba.Pix, uint32(t.Width), uint32(t.Height), nil
}
