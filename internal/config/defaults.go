package config

// Default configuration values.
const (
	DefaultTemplatesDir = "sql"
	DefaultTargetType   = "sqlite"
)

// ApplyDefaults applies default values to a ProjectConfig.
func (c *ProjectConfig) ApplyDefaults() {
	if c == nil {
		return
	}
	if c.TemplatesDir == "" {
		c.TemplatesDir = DefaultTemplatesDir
	}
}

// ApplyDefaults applies default values based on the target type.
func (t *TargetConfig) ApplyDefaults() {
	ApplyTargetDefaults(t)
}

// ApplyTargetDefaults applies default values to a TargetConfig based on the target type.
func ApplyTargetDefaults(t *TargetConfig) {
	if t == nil {
		return
	}

	if t.Type == "" {
		t.Type = DefaultTargetType
	}

	switch t.Type {
	case "postgres":
		if t.Port == 0 {
			t.Port = 5432
		}
	case "mysql":
		if t.Port == 0 {
			t.Port = 3306
		}
	case "sqlite", "duckdb":
		if t.Database == "" {
			t.Database = ":memory:"
		}
	}
}
