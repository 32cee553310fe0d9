// Package config handles tool configuration loading.
package config

// Config holds all tool settings.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Script  ScriptConfig  `yaml:"script"`
	Output  OutputConfig  `yaml:"output"`
	Logging LoggingConfig `yaml:"logging"`
}

// EngineConfig holds boolean engine settings.
type EngineConfig struct {
	Workers int `yaml:"workers"` // parallelism cap, 0 = all CPUs
	Cells   int `yaml:"cells"`   // default tessellation resolution for curved primitives
}

// ScriptConfig holds script evaluation settings.
type ScriptConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"` // wall-clock limit per run, 0 = package default
}

// OutputConfig holds mesh output settings.
type OutputConfig struct {
	Format string `yaml:"format"` // "binary" or "ascii" STL
	Dir    string `yaml:"dir"`    // directory relative save paths resolve against
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level      string `yaml:"level"`
	LogFile    string `yaml:"log_file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Workers: 0,
			Cells:   64,
		},
		Script: ScriptConfig{
			TimeoutSeconds: 30,
		},
		Output: OutputConfig{
			Format: "binary",
			Dir:    ".",
		},
		Logging: LoggingConfig{
			Level:      "info",
			LogFile:    "",
			MaxSizeMB:  50,
			MaxBackups: 3,
			MaxAgeDays: 7,
			Compress:   true,
		},
	}
}
