package resources

import (
	"testing"

	"github.com/cogentcore/webgpu/wgpu"
)

func TestTransitFirstUseClears(t *testing.T) {
	tr, err := Transit(0, ColorAttachment, false, wgpu.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.LoadOp != LoadOpClear {
		t.Errorf("expected LoadOpClear on first use, got %v", tr.LoadOp)
	}
}

func TestTransitSubsequentUseLoads(t *testing.T) {
	tr, err := Transit(ColorAttachment, FragmentReadSampled, true, wgpu.TextureFormatRGBA8Unorm)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tr.LoadOp != LoadOpLoad {
		t.Errorf("expected LoadOpLoad, got %v", tr.LoadOp)
	}
	if tr.SrcStage != StageColorAttachmentOutput {
		t.Errorf("expected SrcStage ColorAttachmentOutput, got %v", tr.SrcStage)
	}
	if tr.DstStage != StageFragmentShader {
		t.Errorf("expected DstStage FragmentShader, got %v", tr.DstStage)
	}
}

func TestTransitRejectsDepthFormatAsColorAttachment(t *testing.T) {
	_, err := Transit(0, ColorAttachment, false, wgpu.TextureFormatDepth32Float)
	if err == nil {
		t.Fatal("expected error for color attachment on depth format")
	}
}

func TestTransitRejectsColorFormatAsDepthAttachment(t *testing.T) {
	_, err := Transit(0, DepthStencilAttachment, false, wgpu.TextureFormatRGBA8Unorm)
	if err == nil {
		t.Fatal("expected error for depth attachment on color format")
	}
}
