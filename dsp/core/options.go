package core

// ProcessorConfig carries the sample rate and block size shared by
// block-based processors and generators.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// ApplyProcessorOptions builds a config from the defaults (48 kHz sample
// rate, 1024-sample blocks) and the given options, skipping nil entries.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  1024,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// WithSampleRate overrides the sample rate. Non-positive values are
// ignored.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize overrides the block size. Non-positive values are
// ignored.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}
