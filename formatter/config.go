// Copyright © 2024 The ELPS authors

package formatter

// Config holds formatting configuration.
type Config struct {
	IndentSize    int // spaces per indent level (default: 2)
	MaxBlankLines int // max consecutive blank lines kept from the source (default: 1)
	MaxWidth      int // expressions longer than this are broken across lines (default: 80)
}

// DefaultConfig returns the default formatting configuration.
func DefaultConfig() *Config {
	return &Config{
		IndentSize:    2,
		MaxBlankLines: 1,
		MaxWidth:      80,
	}
}

// normalize fills zero fields with their defaults.
func (c *Config) normalize() *Config {
	def := DefaultConfig()
	out := *c
	if out.IndentSize <= 0 {
		out.IndentSize = def.IndentSize
	}
	if out.MaxBlankLines < 0 {
		out.MaxBlankLines = 0
	}
	if out.MaxWidth <= 0 {
		out.MaxWidth = def.MaxWidth
	}
	return &out
}
