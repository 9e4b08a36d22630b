// Package shader loads WGSL source and reflects the bind group layouts a
// pipeline needs from the declarations in that source, so passes never
// hand-maintain layout descriptors alongside their shaders.
package shader

import (
	"fmt"
	"io/fs"
	"log"
	"regexp"
	"strconv"
	"strings"

	"github.com/cogentcore/webgpu/wgpu"
)

// ShaderType selects which pipeline stage a shader is compiled for, and
// therefore the visibility its reflected bindings carry.
type ShaderType int

const (
	ShaderTypeVertex ShaderType = iota
	ShaderTypeFragment
	ShaderTypeCompute
)

func (t ShaderType) String() string {
	switch t {
	case ShaderTypeVertex:
		return "vertex"
	case ShaderTypeFragment:
		return "fragment"
	case ShaderTypeCompute:
		return "compute"
	default:
		return fmt.Sprintf("ShaderType(%d)", int(t))
	}
}

func (t ShaderType) visibility() wgpu.ShaderStage {
	switch t {
	case ShaderTypeVertex:
		return wgpu.ShaderStageVertex
	case ShaderTypeFragment:
		return wgpu.ShaderStageFragment
	default:
		return wgpu.ShaderStageCompute
	}
}

func (t ShaderType) entryAttr() string {
	switch t {
	case ShaderTypeVertex:
		return "@vertex"
	case ShaderTypeFragment:
		return "@fragment"
	default:
		return "@compute"
	}
}

// Shader is parsed WGSL: its source text, the entry point matching its
// stage, and the bind group layout descriptors reflected from its
// @group/@binding declarations.
type Shader interface {
	Key() string
	Type() ShaderType
	Source() string
	EntryPoint() string
	BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor
}

type shader struct {
	key        string
	shaderType ShaderType
	source     string
	entryPoint string
	groups     map[int]wgpu.BindGroupLayoutDescriptor
}

var _ Shader = (*shader)(nil)

// NewShaderFromFS loads and parses the WGSL file at path inside fsys
// (typically a //go:embed asset directory). A missing shader is fatal:
// nothing downstream can proceed without its pipelines.
func NewShaderFromFS(fsys fs.FS, key string, shaderType ShaderType, path string) Shader {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		log.Fatalf("shader %q: missing source %s: %v", key, path, err)
	}
	s, err := parse(key, shaderType, string(data))
	if err != nil {
		log.Fatalf("shader %q: %v", key, err)
	}
	return s
}

func (s *shader) Key() string        { return s.key }
func (s *shader) Type() ShaderType   { return s.shaderType }
func (s *shader) Source() string     { return s.source }
func (s *shader) EntryPoint() string { return s.entryPoint }

func (s *shader) BindGroupLayoutDescriptors() map[int]wgpu.BindGroupLayoutDescriptor {
	return s.groups
}

var (
	entryRe = regexp.MustCompile(`fn\s+([A-Za-z_][A-Za-z0-9_]*)\s*\(`)
	// @group(G) @binding(B) var<ADDR[, ACCESS]> name: TYPE;  or
	// @group(G) @binding(B) var name: TYPE;
	bindingRe = regexp.MustCompile(`@group\((\d+)\)\s*@binding\((\d+)\)\s*var(?:<([a-z_]+)(?:\s*,\s*([a-z_]+))?>)?\s*[A-Za-z_][A-Za-z0-9_]*\s*:\s*([A-Za-z_][A-Za-z0-9_]*)(?:<([^>]+)>)?`)
)

// parse reflects the entry point and every @group/@binding declaration out
// of src. Only the subset of WGSL this engine's shaders use is recognized;
// an unrecognized binding type is an error rather than a silently missing
// layout entry.
func parse(key string, shaderType ShaderType, src string) (*shader, error) {
	s := &shader{
		key:        key,
		shaderType: shaderType,
		source:     src,
		groups:     make(map[int]wgpu.BindGroupLayoutDescriptor),
	}

	if err := s.parseEntryPoint(); err != nil {
		return nil, err
	}
	if err := s.parseBindings(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *shader) parseEntryPoint() error {
	attr := s.shaderType.entryAttr()
	idx := strings.Index(s.source, attr)
	if idx < 0 {
		return fmt.Errorf("no %s entry point", attr)
	}
	m := entryRe.FindStringSubmatch(s.source[idx:])
	if m == nil {
		return fmt.Errorf("%s attribute with no following fn", attr)
	}
	s.entryPoint = m[1]
	return nil
}

func (s *shader) parseBindings() error {
	vis := s.shaderType.visibility()
	for _, m := range bindingRe.FindAllStringSubmatch(s.source, -1) {
		group, _ := strconv.Atoi(m[1])
		binding, _ := strconv.Atoi(m[2])
		addr, access, typeName, typeArgs := m[3], m[4], m[5], m[6]

		entry := wgpu.BindGroupLayoutEntry{
			Binding:    uint32(binding),
			Visibility: vis,
		}
		switch {
		case addr == "uniform":
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeUniform}
		case addr == "storage" && (access == "" || access == "read"):
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeReadOnlyStorage}
		case addr == "storage" && access == "read_write":
			entry.Buffer = wgpu.BufferBindingLayout{Type: wgpu.BufferBindingTypeStorage}
		case typeName == "sampler":
			entry.Sampler = wgpu.SamplerBindingLayout{Type: wgpu.SamplerBindingTypeFiltering}
		case typeName == "texture_2d":
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case typeName == "texture_cube":
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeFloat,
				ViewDimension: wgpu.TextureViewDimensionCube,
			}
		case typeName == "texture_depth_2d":
			entry.Texture = wgpu.TextureBindingLayout{
				SampleType:    wgpu.TextureSampleTypeDepth,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		case typeName == "texture_storage_2d":
			format, accessMode, err := parseStorageTextureArgs(typeArgs)
			if err != nil {
				return fmt.Errorf("group %d binding %d: %w", group, binding, err)
			}
			entry.StorageTexture = wgpu.StorageTextureBindingLayout{
				Access:        accessMode,
				Format:        format,
				ViewDimension: wgpu.TextureViewDimension2D,
			}
		default:
			return fmt.Errorf("group %d binding %d: unrecognized binding type %q", group, binding, typeName)
		}

		desc := s.groups[group]
		if desc.Label == "" {
			desc.Label = fmt.Sprintf("%s group %d", s.key, group)
		}
		desc.Entries = append(desc.Entries, entry)
		s.groups[group] = desc
	}
	return nil
}

var storageFormats = map[string]wgpu.TextureFormat{
	"rgba8unorm":  wgpu.TextureFormatRGBA8Unorm,
	"rgba16float": wgpu.TextureFormatRGBA16Float,
	"rgba32float": wgpu.TextureFormatRGBA32Float,
	"r32uint":     wgpu.TextureFormatR32Uint,
	"r32float":    wgpu.TextureFormatR32Float,
}

func parseStorageTextureArgs(args string) (wgpu.TextureFormat, wgpu.StorageTextureAccess, error) {
	parts := strings.Split(args, ",")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("texture_storage_2d needs <format, access>, got %q", args)
	}
	formatName := strings.TrimSpace(parts[0])
	accessName := strings.TrimSpace(parts[1])

	format, ok := storageFormats[formatName]
	if !ok {
		return 0, 0, fmt.Errorf("unrecognized storage texture format %q", formatName)
	}

	switch accessName {
	case "write":
		return format, wgpu.StorageTextureAccessWriteOnly, nil
	case "read":
		return format, wgpu.StorageTextureAccessReadOnly, nil
	case "read_write":
		return format, wgpu.StorageTextureAccessReadWrite, nil
	default:
		return 0, 0, fmt.Errorf("unrecognized storage texture access %q", accessName)
	}
}
