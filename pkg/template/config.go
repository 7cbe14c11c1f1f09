package template

import (
	"strings"
	"time"
)

// PlaceholderStyle selects how bound values are written into the prepared
// statement.
type PlaceholderStyle int

// PlaceholderStyle constants.
const (
	PlaceholderQuestion PlaceholderStyle = iota // ?
	PlaceholderDollar                           // $1, $2, ...
)

// String returns the name of the placeholder style.
func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderDollar:
		return "dollar"
	default:
		return "question"
	}
}

// ParsePlaceholderStyle parses "question" / "?" or "dollar" / "$".
func ParsePlaceholderStyle(s string) (PlaceholderStyle, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "question", "?":
		return PlaceholderQuestion, true
	case "dollar", "$", "$n":
		return PlaceholderDollar, true
	default:
		return PlaceholderQuestion, false
	}
}

// Default render settings.
const (
	DefaultDateFormat    = "%Y-%m-%d %H:%M:%S"
	DefaultLoopSeparator = ", "
)

// DefaultConnectors and DefaultClauseKeywords are used when the
// corresponding Config field is nil.
var (
	DefaultConnectors     = []string{"AND", "OR"}
	DefaultClauseKeywords = []string{"WHERE", "HAVING"}
)

// Config controls rendering. The zero value renders with the defaults.
type Config struct {
	// DateFormat is a strftime pattern for time values in the display
	// statement.
	DateFormat string

	// Location converts time values before formatting. Nil means time.Local.
	Location *time.Location

	// LoopSeparator is written between FOR iterations that have no NEXT.
	LoopSeparator string

	// UnsafeEmbed disables the embedded value safety check.
	UnsafeEmbed bool

	// Connectors are the words removed next to elided blocks. Nil means
	// DefaultConnectors; an empty slice disables connector trimming.
	Connectors []string

	// ClauseKeywords are removed when every condition after them elides.
	// Nil means DefaultClauseKeywords.
	ClauseKeywords []string

	// Placeholder selects ? or $n placeholders.
	Placeholder PlaceholderStyle

	// KeepSubQueryMarkers skips relocating sub-query end markers.
	KeepSubQueryMarkers bool
}

// DefaultConfig returns the default render configuration.
func DefaultConfig() Config {
	return Config{
		DateFormat:     DefaultDateFormat,
		LoopSeparator:  DefaultLoopSeparator,
		Connectors:     DefaultConnectors,
		ClauseKeywords: DefaultClauseKeywords,
	}
}

// settings is a Config with defaults applied and keyword sets normalized.
type settings struct {
	Config
	connectors map[string]bool
	clauses    map[string]bool
}

func (c Config) settings() *settings {
	s := &settings{Config: c}
	if s.DateFormat == "" {
		s.DateFormat = DefaultDateFormat
	}
	if s.Location == nil {
		s.Location = time.Local
	}
	if s.LoopSeparator == "" {
		s.LoopSeparator = DefaultLoopSeparator
	}

	connectors := c.Connectors
	if connectors == nil {
		connectors = DefaultConnectors
	}
	clauses := c.ClauseKeywords
	if clauses == nil {
		clauses = DefaultClauseKeywords
	}
	s.connectors = wordSet(connectors)
	s.clauses = wordSet(clauses)
	return s
}

func wordSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(w); w != "" {
			set[strings.ToUpper(w)] = true
		}
	}
	return set
}
