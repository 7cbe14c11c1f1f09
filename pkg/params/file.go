package params

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// FromYAML decodes a YAML (or JSON) document into a Map.
func FromYAML(data []byte) (Map, error) {
	out := make(map[string]any)
	if err := yaml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("invalid params document: %w", err)
	}
	return Map(out), nil
}

// FromFile reads a YAML or JSON params file.
func FromFile(path string) (Map, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user
	if err != nil {
		return nil, fmt.Errorf("failed to read params file: %w", err)
	}
	m, err := FromYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// Set assigns a value at a dotted path, creating intermediate maps. raw is
// decoded as a YAML scalar or flow value, so 3, true, null and [1, 2] get
// their natural types and an empty value is null; anything else stays a
// string.
func (m Map) Set(path, raw string) error {
	if path == "" {
		return fmt.Errorf("empty parameter path")
	}

	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		v = raw
	}

	segs := strings.Split(path, ".")
	cur := map[string]any(m)
	for _, seg := range segs[:len(segs)-1] {
		if seg == "" {
			return fmt.Errorf("invalid parameter path %q", path)
		}
		next, ok := cur[seg].(map[string]any)
		if !ok {
			next = make(map[string]any)
			cur[seg] = next
		}
		cur = next
	}

	last := segs[len(segs)-1]
	if last == "" {
		return fmt.Errorf("invalid parameter path %q", path)
	}
	cur[last] = v
	return nil
}

// ParseAssignment splits key=value.
func ParseAssignment(s string) (key, value string, err error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || strings.TrimSpace(key) == "" {
		return "", "", fmt.Errorf("invalid parameter %q, expected key=value", s)
	}
	return strings.TrimSpace(key), value, nil
}

// Merge copies src into m, merging nested maps; src wins on conflicts.
func (m Map) Merge(src Map) {
	mergeMaps(m, src)
}

func mergeMaps(dst, src map[string]any) {
	for k, v := range src {
		sv, srcMap := v.(map[string]any)
		dv, dstMap := dst[k].(map[string]any)
		if srcMap && dstMap {
			mergeMaps(dv, sv)
			continue
		}
		dst[k] = v
	}
}
