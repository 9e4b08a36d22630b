package shader

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

const testComputeSource = `
struct Params {
    threshold: f32,
};

@group(0) @binding(0) var src: texture_2d<f32>;
@group(0) @binding(1) var dst: texture_storage_2d<rgba16float, write>;
@group(1) @binding(0) var<uniform> params: Params;
@group(1) @binding(1) var<storage, read> values: array<f32>;
@group(1) @binding(2) var<storage, read_write> results: array<f32>;

@compute @workgroup_size(16, 16, 1)
fn cs_main(@builtin(global_invocation_id) gid: vec3<u32>) {
}
`

func TestParseComputeShader(t *testing.T) {
	s, err := parse("test", ShaderTypeCompute, testComputeSource)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if s.EntryPoint() != "cs_main" {
		t.Errorf("entry point = %q, want cs_main", s.EntryPoint())
	}

	groups := s.BindGroupLayoutDescriptors()
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	g0 := groups[0]
	if len(g0.Entries) != 2 {
		t.Fatalf("group 0: expected 2 entries, got %d", len(g0.Entries))
	}
	if g0.Entries[0].Texture.SampleType != wgpu.TextureSampleTypeFloat {
		t.Errorf("binding 0 should be a sampled texture")
	}
	if g0.Entries[1].StorageTexture.Format != wgpu.TextureFormatRGBA16Float {
		t.Errorf("binding 1 storage format = %v, want RGBA16Float", g0.Entries[1].StorageTexture.Format)
	}
	if g0.Entries[1].StorageTexture.Access != wgpu.StorageTextureAccessWriteOnly {
		t.Errorf("binding 1 access = %v, want WriteOnly", g0.Entries[1].StorageTexture.Access)
	}

	g1 := groups[1]
	if len(g1.Entries) != 3 {
		t.Fatalf("group 1: expected 3 entries, got %d", len(g1.Entries))
	}
	wantBuffer := []wgpu.BufferBindingType{
		wgpu.BufferBindingTypeUniform,
		wgpu.BufferBindingTypeReadOnlyStorage,
		wgpu.BufferBindingTypeStorage,
	}
	for i, want := range wantBuffer {
		if g1.Entries[i].Buffer.Type != want {
			t.Errorf("group 1 binding %d buffer type = %v, want %v", i, g1.Entries[i].Buffer.Type, want)
		}
	}
	for _, e := range g1.Entries {
		if e.Visibility != wgpu.ShaderStageCompute {
			t.Errorf("binding %d visibility = %v, want compute", e.Binding, e.Visibility)
		}
	}
}

func TestParseMissingEntryPoint(t *testing.T) {
	if _, err := parse("test", ShaderTypeVertex, testComputeSource); err == nil {
		t.Fatal("expected an error for a compute-only source parsed as vertex")
	}
}

func TestParseRejectsUnknownBindingType(t *testing.T) {
	src := `
@group(0) @binding(0) var acc: texture_multisampled_2d<f32>;
@vertex
fn vs_main() {}
`
	if _, err := parse("test", ShaderTypeVertex, src); err == nil {
		t.Fatal("expected an error for an unrecognized binding type")
	}
}
