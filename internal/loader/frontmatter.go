// Package loader reads SQL template files from a templates directory.
//
// A template file may start with a YAML frontmatter block:
//
//	/*---
//	name: member/search
//	description: Search members by name and status
//	params:
//	  pmb:
//	    memberName: S%
//	---*/
//	SELECT ...
//
// The frontmatter is stripped before the template is parsed. Its params are
// the defaults used when the caller does not supply a value.
package loader

import (
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FrontmatterConfig represents parsed YAML frontmatter.
// Unknown fields cause parse errors (use Meta for extensions).
type FrontmatterConfig struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Params      map[string]any `yaml:"params"`
	Tags        []string       `yaml:"tags"`
	Meta        map[string]any `yaml:"meta"` // Extension point for custom fields
}

// FrontmatterResult holds the result of frontmatter extraction.
type FrontmatterResult struct {
	Config  *FrontmatterConfig
	SQL     string // SQL content after frontmatter
	HasYAML bool   // Whether frontmatter was found
	Lines   int    // Lines taken by the frontmatter block
}

// frontmatterPattern matches /*--- ... ---*/ blocks
var frontmatterPattern = regexp.MustCompile(`(?s)^\s*/\*---\s*\n(.*?)\s*---\*/[ \t]*\n?`)

var knownFields = map[string]bool{
	"name":        true,
	"description": true,
	"params":      true,
	"tags":        true,
	"meta":        true,
}

// ExtractFrontmatter extracts YAML frontmatter from SQL content.
// Returns the parsed config, remaining SQL, and any error.
func ExtractFrontmatter(content string) (*FrontmatterResult, error) {
	result := &FrontmatterResult{
		Config: &FrontmatterConfig{},
		SQL:    content,
	}

	loc := frontmatterPattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return result, nil
	}

	result.HasYAML = true
	block := content[loc[0]:loc[1]]
	result.Lines = strings.Count(block, "\n")
	result.SQL = content[loc[1]:]

	config, err := parseFrontmatterYAML(content[loc[2]:loc[3]])
	if err != nil {
		return nil, err
	}

	result.Config = config
	return result, nil
}

// parseFrontmatterYAML parses YAML content with strict field validation.
func parseFrontmatterYAML(yamlContent string) (*FrontmatterConfig, error) {
	var rawMap map[string]any
	if err := yaml.Unmarshal([]byte(yamlContent), &rawMap); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("invalid YAML: %v", err),
		}
	}

	for field := range rawMap {
		if !knownFields[field] {
			return nil, &UnknownFieldError{
				Field: field,
			}
		}
	}

	var config FrontmatterConfig
	if err := yaml.Unmarshal([]byte(yamlContent), &config); err != nil {
		return nil, &FrontmatterParseError{
			Message: fmt.Sprintf("failed to parse frontmatter: %v", err),
		}
	}

	return &config, nil
}

// ApplyDefaults defaults the name to the template's relative path without
// the .sql extension.
func (c *FrontmatterConfig) ApplyDefaults(relPath string) {
	if c.Name == "" {
		c.Name = NameFromPath(relPath)
	}
}

// NameFromPath turns a slash or OS separated relative path into a template
// name.
func NameFromPath(relPath string) string {
	name := strings.ReplaceAll(relPath, "\\", "/")
	return strings.TrimSuffix(name, ".sql")
}

// FrontmatterParseError represents a frontmatter parsing error.
type FrontmatterParseError struct {
	File    string
	Line    int
	Message string
}

func (e *FrontmatterParseError) Error() string {
	if e.File != "" {
		if e.Line > 0 {
			return fmt.Sprintf("%s:%d: %s", e.File, e.Line, e.Message)
		}
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnknownFieldError represents an error for unknown frontmatter fields.
type UnknownFieldError struct {
	File  string
	Field string
}

func (e *UnknownFieldError) Error() string {
	msg := fmt.Sprintf("unknown field %q in frontmatter, use \"meta\" field for custom fields", e.Field)
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, msg)
	}
	return msg
}
