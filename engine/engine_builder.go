package engine

import "time"

type builderConfig struct {
	title  string
	width  int
	height int
}

// EngineBuilderOption configures an engine during New.
type EngineBuilderOption func(*builderConfig, *Engine)

// WithTitle sets the window title.
func WithTitle(title string) EngineBuilderOption {
	return func(cfg *builderConfig, _ *Engine) {
		cfg.title = title
	}
}

// WithSize sets the initial window size in pixels.
func WithSize(width, height int) EngineBuilderOption {
	return func(cfg *builderConfig, _ *Engine) {
		cfg.width = width
		cfg.height = height
	}
}

// WithFrameLimit caps the render loop at fps frames per second (0 =
// uncapped, the default).
func WithFrameLimit(fps float64) EngineBuilderOption {
	return func(_ *builderConfig, e *Engine) {
		if fps > 0 {
			e.frameLimit = time.Duration(float64(time.Second) / fps)
		}
	}
}

// WithCullWorkers sets how many goroutines the scene update pass fans CPU
// frustum culling across.
func WithCullWorkers(workers int) EngineBuilderOption {
	return func(_ *builderConfig, e *Engine) {
		if workers > 0 {
			e.cullWorkers = workers
		}
	}
}
