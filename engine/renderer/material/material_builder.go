package material

import "github.com/duskforge/oxyfg/common"

// MaterialBuilderOption configures a material during NewMaterial.
type MaterialBuilderOption func(*material)

// WithName sets the material's identifier.
func WithName(name string) MaterialBuilderOption {
	return func(m *material) {
		m.name = name
	}
}

// WithBaseColor sets the albedo factor (RGBA).
func WithBaseColor(r, g, b, a float32) MaterialBuilderOption {
	return func(m *material) {
		m.baseColor = [4]float32{r, g, b, a}
	}
}

// WithMetallicRoughness sets the metallic and roughness factors.
func WithMetallicRoughness(metallic, roughness float32) MaterialBuilderOption {
	return func(m *material) {
		m.metallic = metallic
		m.roughness = roughness
	}
}

// WithEmissive sets the emissive factor (RGB).
func WithEmissive(r, g, b float32) MaterialBuilderOption {
	return func(m *material) {
		m.emissive = [3]float32{r, g, b}
	}
}

// WithTransparent routes the material's instances through the forward
// alpha-blended pass instead of the G-buffer pass.
func WithTransparent(transparent bool) MaterialBuilderOption {
	return func(m *material) {
		m.transparent = transparent
	}
}

// WithBaseColorTexture attaches an imported texture decoded and uploaded
// during Upload.
func WithBaseColorTexture(tex *common.ImportedTexture) MaterialBuilderOption {
	return func(m *material) {
		m.baseColorTexture = tex
	}
}
