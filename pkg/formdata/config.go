package formdata

// Config holds decoder settings loaded from the environment.
//
// Example:
//
//	var cfg formdata.Config
//	if err := config.Load(&cfg); err != nil {
//		return err
//	}
//	dec := formdata.NewDecoderFromConfig(cfg)
type Config struct {
	MaxFileSize    ByteSize `env:"FORMDATA_MAX_FILE_SIZE" envDefault:"10MiB"`    // Budget of file fields without an explicit size.
	MaxValueSize   ByteSize `env:"FORMDATA_MAX_VALUE_SIZE" envDefault:"1MiB"`    // Budget of text fields without an explicit size.
	MaxParts       int      `env:"FORMDATA_MAX_PARTS" envDefault:"1000"`         // Maximum number of parts per body.
	MaxHeaderBytes ByteSize `env:"FORMDATA_MAX_HEADER_BYTES" envDefault:"16KiB"` // Maximum header block per part.
	Strict         bool     `env:"FORMDATA_STRICT" envDefault:"false"`           // Reject undeclared fields.
	LenientScalars bool     `env:"FORMDATA_LENIENT_SCALARS" envDefault:"false"` // Accept on/off and padded Bool and Number values.
}

// NewDecoderFromConfig creates a Decoder from cfg. Zero values keep the defaults;
// opts are applied after the config.
func NewDecoderFromConfig(cfg Config, opts ...Option) *Decoder {
	configOpts := make([]Option, 0, 6+len(opts))
	if cfg.MaxFileSize > 0 {
		configOpts = append(configOpts, WithDefaultFileMaxSize(int64(cfg.MaxFileSize)))
	}
	if cfg.MaxValueSize > 0 {
		configOpts = append(configOpts, WithDefaultValueMaxSize(int64(cfg.MaxValueSize)))
	}
	if cfg.MaxParts > 0 {
		configOpts = append(configOpts, WithMaxParts(cfg.MaxParts))
	}
	if cfg.MaxHeaderBytes > 0 {
		configOpts = append(configOpts, WithMaxHeaderBytes(int(cfg.MaxHeaderBytes)))
	}
	configOpts = append(configOpts, WithStrict(cfg.Strict), WithLenientScalars(cfg.LenientScalars))
	configOpts = append(configOpts, opts...)
	return NewDecoder(configOpts...)
}
