package output

// RenderOutput is the JSON form of a rendered template.
type RenderOutput struct {
	Template   string `json:"template"`
	SQL        string `json:"sql"`
	Args       []any  `json:"args"`
	DisplaySQL string `json:"display_sql"`
}

// CheckOutput is the JSON form of a template check.
type CheckOutput struct {
	Templates []CheckResult `json:"templates"`
	Summary   CheckSummary  `json:"summary"`
}

// CheckResult reports one checked template.
type CheckResult struct {
	Name   string `json:"name"`
	File   string `json:"file"`
	OK     bool   `json:"ok"`
	Error  string `json:"error,omitempty"`
	Line   int    `json:"line,omitempty"`
	Column int    `json:"column,omitempty"`
}

// CheckSummary counts check results.
type CheckSummary struct {
	Total  int `json:"total"`
	Failed int `json:"failed"`
}

// ExecOutput is the JSON form of an executed template.
type ExecOutput struct {
	Template     string           `json:"template"`
	ExecutionID  string           `json:"execution_id,omitempty"`
	DisplaySQL   string           `json:"display_sql"`
	RowsAffected int64            `json:"rows_affected"`
	Columns      []string         `json:"columns,omitempty"`
	Rows         []map[string]any `json:"rows,omitempty"`
	DurationMS   int64            `json:"duration_ms"`
}

// HistoryEntry is the JSON form of a journal entry.
type HistoryEntry struct {
	ID           string `json:"id"`
	Template     string `json:"template"`
	Target       string `json:"target"`
	Status       string `json:"status"`
	RowsAffected int64  `json:"rows_affected"`
	DurationMS   int64  `json:"duration_ms"`
	ExecutedAt   string `json:"executed_at"`
	DisplaySQL   string `json:"display_sql"`
	Error        string `json:"error,omitempty"`
}

// TemplateInfo is the JSON form of a listed template.
type TemplateInfo struct {
	Name        string   `json:"name"`
	File        string   `json:"file"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Params      []string `json:"params,omitempty"`
}
