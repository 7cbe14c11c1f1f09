package template

import (
	"strings"
	"unicode/utf8"
)

// TokenType identifies the type of token.
type TokenType int

// TokenType constants for template token types.
const (
	TokenText          TokenType = iota // Literal text (SQL), including ordinary comments
	TokenBind                           // /*path*/test
	TokenEmbedded                       // /*$path*/test
	TokenIf                             // /*IF cond*/
	TokenElse                           // /*ELSE*/ or -- ELSE
	TokenBegin                          // /*BEGIN*/
	TokenEnd                            // /*END*/
	TokenFor                            // /*FOR path*/
	TokenNext                           // /*NEXT 'sep'*/
	TokenSubQueryBegin                  // /*#df:sqbegin#key#df:idterminal#*/
	TokenSubQueryEnd                    // /*#df:sqend#key#df:idterminal#*/
	TokenEOF                            // End of input
)

func (t TokenType) String() string {
	switch t {
	case TokenText:
		return "TEXT"
	case TokenBind:
		return "BIND"
	case TokenEmbedded:
		return "EMBEDDED"
	case TokenIf:
		return "IF"
	case TokenElse:
		return "ELSE"
	case TokenBegin:
		return "BEGIN"
	case TokenEnd:
		return "END"
	case TokenFor:
		return "FOR"
	case TokenNext:
		return "NEXT"
	case TokenSubQueryBegin:
		return "SQ_BEGIN"
	case TokenSubQueryEnd:
		return "SQ_END"
	case TokenEOF:
		return "EOF"
	default:
		return "UNKNOWN"
	}
}

// Token represents a lexical token.
//
// Value holds the text for TEXT, the path for BIND, EMBEDDED and FOR, the
// condition for IF, the unquoted separator for NEXT and the key for
// sub-query markers. Raw holds the skipped test value for BIND and EMBEDDED
// and the full comment for sub-query markers.
type Token struct {
	Type  TokenType
	Value string
	Raw   string
	Pos   Position
}

// Sub-query marker syntax.
const (
	subQueryBeginTag = "#df:sqbegin#"
	subQueryEndTag   = "#df:sqend#"
	identityTerminal = "#df:idterminal#"
)

// Lexer tokenizes a template string.
type Lexer struct {
	input    string
	file     string
	pos      int // current position in input
	line     int // current line number (1-based)
	col      int // current column number (1-based)
	lastPos  int // offset at start of current token
	lastLine int // line at start of current token
	lastCol  int // column at start of current token
}

// NewLexer creates a new lexer for the given input.
func NewLexer(input, file string) *Lexer {
	return &Lexer{
		input: input,
		file:  file,
		pos:   0,
		line:  1,
		col:   1,
	}
}

// Tokenize converts the input into a slice of tokens.
func (l *Lexer) Tokenize() ([]Token, error) {
	var tokens []Token

	for {
		tok, err := l.nextToken()
		if err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
		if tok.Type == TokenEOF {
			break
		}
	}

	return tokens, nil
}

// nextToken returns the next token from the input.
func (l *Lexer) nextToken() (Token, error) {
	if l.pos >= len(l.input) {
		return Token{Type: TokenEOF, Pos: l.position()}, nil
	}

	if l.matchString("/*") {
		return l.scanComment()
	}

	if l.matchString("--") && l.isElseLineComment() {
		l.markStart()
		l.advanceTo(l.lineEnd())
		return Token{Type: TokenElse, Pos: l.startPosition()}, nil
	}

	return l.scanText()
}

// scanText scans literal text until a comment opener, an ELSE line comment
// or EOF. Quoted strings and line comments are consumed whole so comment
// openers inside them stay literal.
func (l *Lexer) scanText() (Token, error) {
	l.markStart()
	start := l.pos

	for l.pos < len(l.input) {
		if l.matchString("/*") {
			break
		}
		switch {
		case l.matchString("--"):
			if l.isElseLineComment() {
				return l.textToken(start), nil
			}
			l.advanceTo(l.lineEnd())
			continue
		case l.peek() == '\'' || l.peek() == '"':
			end, _ := skipQuoted(l.input, l.pos)
			l.advanceTo(end)
			continue
		}
		l.advance()
	}

	if l.pos == start {
		// No text consumed, something is wrong
		return Token{}, NewScanError(l.position(), "unexpected state in lexer")
	}

	return l.textToken(start), nil
}

func (l *Lexer) textToken(start int) Token {
	return Token{
		Type:  TokenText,
		Value: l.input[start:l.pos],
		Pos:   l.startPosition(),
	}
}

// scanComment classifies a /* ... */ comment as a directive or an ordinary
// comment.
func (l *Lexer) scanComment() (Token, error) {
	l.markStart()

	end := strings.Index(l.input[l.pos+2:], "*/")
	if end < 0 {
		return Token{}, NewScanError(l.startPosition(), "unclosed comment: missing '*/'")
	}
	bodyStart := l.pos + 2
	bodyEnd := bodyStart + end
	body := l.input[bodyStart:bodyEnd]
	full := l.input[l.pos : bodyEnd+2]

	l.advanceTo(bodyEnd + 2)
	pos := l.startPosition()

	switch {
	case strings.HasPrefix(body, subQueryBeginTag):
		return l.scanMarker(TokenSubQueryBegin, body[len(subQueryBeginTag):], full, pos)
	case strings.HasPrefix(body, subQueryEndTag):
		return l.scanMarker(TokenSubQueryEnd, body[len(subQueryEndTag):], full, pos)
	case body == "BEGIN":
		return Token{Type: TokenBegin, Pos: pos}, nil
	case body == "END":
		return Token{Type: TokenEnd, Pos: pos}, nil
	case body == "ELSE":
		return Token{Type: TokenElse, Pos: pos}, nil
	}

	if rest, ok := cutKeyword(body, "IF"); ok {
		if rest == "" {
			return Token{}, NewScanError(pos, "IF comment requires a condition")
		}
		return Token{Type: TokenIf, Value: rest, Pos: pos}, nil
	}

	if rest, ok := cutKeyword(body, "FOR"); ok {
		if rest == "" {
			return Token{}, NewScanError(pos, "FOR comment requires a property path")
		}
		if !isPropertyPath(rest) {
			return Token{}, NewScanErrorf(pos, "invalid FOR property path %q", rest)
		}
		return Token{Type: TokenFor, Value: rest, Pos: pos}, nil
	}

	if rest, ok := cutKeyword(body, "NEXT"); ok {
		sep, ok := unquoteSeparator(rest)
		if !ok {
			return Token{}, NewScanErrorf(pos, "NEXT separator must be a quoted string, got %q", rest)
		}
		return Token{Type: TokenNext, Value: sep, Pos: pos}, nil
	}

	if strings.HasPrefix(body, "$") {
		path := body[1:]
		if path == "" {
			return Token{}, NewScanError(pos, "empty embedded variable expression")
		}
		if !isPropertyPath(path) {
			return Token{}, NewScanErrorf(pos, "invalid embedded variable expression %q", path)
		}
		test, err := l.skipTestValue()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenEmbedded, Value: path, Raw: test, Pos: pos}, nil
	}

	if isPropertyPath(body) {
		test, err := l.skipTestValue()
		if err != nil {
			return Token{}, err
		}
		return Token{Type: TokenBind, Value: body, Raw: test, Pos: pos}, nil
	}

	// Ordinary comment, including optimizer hints.
	return Token{Type: TokenText, Value: full, Pos: pos}, nil
}

func (l *Lexer) scanMarker(typ TokenType, rest, full string, pos Position) (Token, error) {
	key, ok := strings.CutSuffix(rest, identityTerminal)
	if !ok {
		return Token{}, NewScanError(pos, "sub-query marker missing identity terminal")
	}
	if !isSubQueryKey(key) {
		return Token{}, NewScanErrorf(pos, "invalid sub-query key %q", key)
	}
	return Token{Type: typ, Value: key, Raw: full, Pos: pos}, nil
}

// skipTestValue consumes the dummy value after a bind or embedded comment:
// a quoted string, a parenthesized list, or a run of characters up to
// whitespace, a comma, a closing parenthesis, a semicolon or a comment.
func (l *Lexer) skipTestValue() (string, error) {
	start := l.pos
	if l.pos >= len(l.input) {
		return "", nil
	}

	switch l.peek() {
	case '\'':
		end, ok := skipQuoted(l.input, l.pos)
		if !ok {
			return "", NewScanError(l.position(), "unclosed quoted test value")
		}
		l.advanceTo(end)
	case '(':
		end, ok := matchParen(l.input, l.pos)
		if !ok {
			return "", NewScanError(l.position(), "unclosed parenthesized test value")
		}
		l.advanceTo(end + 1)
	default:
		for l.pos < len(l.input) {
			c := l.input[l.pos]
			if isSpace(c) || c == ',' || c == ')' || c == '(' || c == ';' || l.matchString("/*") || l.matchString("--") {
				break
			}
			l.advance()
		}
	}

	return l.input[start:l.pos], nil
}

// isElseLineComment reports whether the line comment at the current
// position reads "-- ELSE".
func (l *Lexer) isElseLineComment() bool {
	return strings.TrimSpace(l.input[l.pos+2:l.lineEnd()]) == "ELSE"
}

// lineEnd returns the offset of the next newline, or the input length.
func (l *Lexer) lineEnd() int {
	if i := strings.IndexByte(l.input[l.pos:], '\n'); i >= 0 {
		return l.pos + i
	}
	return len(l.input)
}

// Helper methods

// peek returns the current rune without advancing.
func (l *Lexer) peek() rune {
	if l.pos >= len(l.input) {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(l.input[l.pos:])
	return r
}

// advance moves to the next rune, updating position tracking.
func (l *Lexer) advance() {
	if l.pos >= len(l.input) {
		return
	}

	r, size := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += size

	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
}

// advanceTo advances rune by rune up to offset end.
func (l *Lexer) advanceTo(end int) {
	if end > len(l.input) {
		end = len(l.input)
	}
	for l.pos < end {
		l.advance()
	}
}

// matchString checks if the input at current position matches s.
func (l *Lexer) matchString(s string) bool {
	return strings.HasPrefix(l.input[l.pos:], s)
}

// markStart records the start position for the current token.
func (l *Lexer) markStart() {
	l.lastPos = l.pos
	l.lastLine = l.line
	l.lastCol = l.col
}

// position returns the current position.
func (l *Lexer) position() Position {
	return Position{File: l.file, Offset: l.pos, Line: l.line, Column: l.col}
}

// startPosition returns the position where the current token started.
func (l *Lexer) startPosition() Position {
	return Position{File: l.file, Offset: l.lastPos, Line: l.lastLine, Column: l.lastCol}
}

// cutKeyword splits "KEYWORD rest" and reports whether body starts with the
// keyword followed by whitespace or nothing.
func cutKeyword(body, keyword string) (string, bool) {
	if !strings.HasPrefix(body, keyword) {
		return "", false
	}
	rest := body[len(keyword):]
	if rest != "" && !isSpace(rest[0]) {
		return "", false
	}
	return strings.TrimSpace(rest), true
}

// unquoteSeparator unquotes a NEXT separator written as 'text'.
func unquoteSeparator(s string) (string, bool) {
	if len(s) < 2 || s[0] != '\'' || s[len(s)-1] != '\'' {
		return "", false
	}
	if end, ok := skipQuoted(s, 0); !ok || end != len(s) {
		return "", false
	}
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'"), true
}

// isPropertyPath reports whether s is a dotted path such as pmb.member.name
// or #current.id. Segments are identifiers; the first may carry a '#'.
func isPropertyPath(s string) bool {
	if s == "" {
		return false
	}
	for i, seg := range strings.Split(s, ".") {
		if i == 0 {
			seg = strings.TrimPrefix(seg, "#")
		}
		if !isIdentifier(seg) {
			return false
		}
	}
	return true
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isIdentStart(c) || (i > 0 && c >= '0' && c <= '9') {
			continue
		}
		return false
	}
	return true
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// isSubQueryKey reports whether key matches [A-Za-z0-9_.:-]+.
func isSubQueryKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		if isIdentChar(c) || c == '.' || c == ':' || c == '-' {
			continue
		}
		return false
	}
	return true
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v'
}

// skipQuoted returns the offset just past the quoted string starting at i.
// A doubled quote is an escaped quote. An unterminated string runs to the
// end of s and reports false.
func skipQuoted(s string, i int) (int, bool) {
	q := s[i]
	j := i + 1
	for j < len(s) {
		if s[j] == q {
			if j+1 < len(s) && s[j+1] == q {
				j += 2
				continue
			}
			return j + 1, true
		}
		j++
	}
	return len(s), false
}

// matchParen returns the offset of the ')' matching the '(' at i, skipping
// quoted strings and comments.
func matchParen(s string, i int) (int, bool) {
	depth := 0
	for j := i; j < len(s); {
		switch c := s[j]; {
		case c == '\'' || c == '"':
			j, _ = skipQuoted(s, j)
			continue
		case strings.HasPrefix(s[j:], "/*"):
			end := strings.Index(s[j+2:], "*/")
			if end < 0 {
				return 0, false
			}
			j += end + 4
			continue
		case strings.HasPrefix(s[j:], "--"):
			if nl := strings.IndexByte(s[j:], '\n'); nl >= 0 {
				j += nl
			} else {
				j = len(s)
			}
			continue
		case c == '(':
			depth++
		case c == ')':
			depth--
			if depth == 0 {
				return j, true
			}
		}
		j++
	}
	return 0, false
}
