package config

// LoggingConfig configures the pipeline-stage file logger in
// internal/logging (SPEC_FULL.md section A.1).
type LoggingConfig struct {
	Level      string          `yaml:"level" json:"level,omitempty"`
	Format     string          `yaml:"format" json:"format,omitempty"` // "json" or "text"
	DebugMode  bool            `yaml:"debug_mode" json:"debug_mode,omitempty"`
	Categories map[string]bool `yaml:"categories" json:"categories,omitempty"`
}

// IsCategoryEnabled reports whether logging is enabled for category.
// Returns false unconditionally when DebugMode is false.
func (c *LoggingConfig) IsCategoryEnabled(category string) bool {
	if !c.DebugMode {
		return false
	}
	if c.Categories == nil {
		return true
	}
	enabled, exists := c.Categories[category]
	if !exists {
		return true
	}
	return enabled
}
