package config

// CompressionCfg
//   - Supported levels (flate):
//     0  no compression
//     1  best speed
//     9  best compression
//     6  default compression
//     -2 huffman only
//
// Values outside the flate range fall back to the default level.
type CompressionCfg struct {
	Level int `yaml:"level"`
}

func (cfg *CompressionCfg) Enabled() bool {
	return cfg != nil
}
