package loader

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractFrontmatter(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		wantYAML  bool
		wantSQL   string
		wantLines int
		check     func(t *testing.T, c *FrontmatterConfig)
		wantErr   string
	}{
		{
			name:     "no frontmatter",
			content:  "SELECT 1",
			wantSQL:  "SELECT 1",
			wantYAML: false,
		},
		{
			name:      "full frontmatter",
			content:   "/*---\nname: member/search\ndescription: find members\ntags: [a, b]\nparams:\n  pmb:\n    id: 3\nmeta:\n  owner: team\n---*/\nSELECT 1",
			wantYAML:  true,
			wantSQL:   "SELECT 1",
			wantLines: 10,
			check: func(t *testing.T, c *FrontmatterConfig) {
				assert.Equal(t, "member/search", c.Name)
				assert.Equal(t, "find members", c.Description)
				assert.Equal(t, []string{"a", "b"}, c.Tags)
				assert.Equal(t, map[string]any{"pmb": map[string]any{"id": 3}}, c.Params)
				assert.Equal(t, "team", c.Meta["owner"])
			},
		},
		{
			name:     "leading whitespace",
			content:  "\n  /*---\nname: x\n---*/\nSELECT 1\n",
			wantYAML: true,
			wantSQL:  "SELECT 1\n",
		},
		{
			name:     "comment later in file is not frontmatter",
			content:  "SELECT 1\n/*---\nname: x\n---*/",
			wantYAML: false,
			wantSQL:  "SELECT 1\n/*---\nname: x\n---*/",
		},
		{
			name:    "unknown field",
			content: "/*---\nmaterialized: table\n---*/\nSELECT 1",
			wantErr: `unknown field "materialized"`,
		},
		{
			name:    "invalid yaml",
			content: "/*---\nname: [\n---*/\nSELECT 1",
			wantErr: "invalid YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := ExtractFrontmatter(tt.content)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantYAML, result.HasYAML)
			assert.Equal(t, tt.wantSQL, result.SQL)
			if tt.wantLines > 0 {
				assert.Equal(t, tt.wantLines, result.Lines)
			}
			if tt.check != nil {
				tt.check(t, result.Config)
			}
		})
	}
}

func TestFrontmatterConfig_ApplyDefaults(t *testing.T) {
	c := &FrontmatterConfig{}
	c.ApplyDefaults("member/search.sql")
	assert.Equal(t, "member/search", c.Name)

	c = &FrontmatterConfig{Name: "custom"}
	c.ApplyDefaults("member/search.sql")
	assert.Equal(t, "custom", c.Name)
}

func TestFrontmatterErrors(t *testing.T) {
	assert.Equal(t, "a.sql:3: bad", (&FrontmatterParseError{File: "a.sql", Line: 3, Message: "bad"}).Error())
	assert.Equal(t, "a.sql: bad", (&FrontmatterParseError{File: "a.sql", Message: "bad"}).Error())
	assert.Equal(t, "bad", (&FrontmatterParseError{Message: "bad"}).Error())
	assert.Contains(t, (&UnknownFieldError{File: "a.sql", Field: "x"}).Error(), "a.sql: unknown field \"x\"")
}
