// Package passes implements the standard frame graph passes (C8): geometry,
// skybox, lighting, transparent, bloom, post-process, present, and UI. Each
// pass is a framegraph.Pass that owns its own pipelines and bind group
// layouts, built once in CreateResources and reused every frame.
package passes

import "embed"

// ShaderSources embeds this package's WGSL shader sources so they ship
// inside the compiled binary instead of being read from disk at runtime.
//
//go:embed shaders
var ShaderSources embed.FS
