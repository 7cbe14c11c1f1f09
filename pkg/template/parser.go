package template

import (
	"strings"

	starctx "github.com/leapstack-labs/twowaysql/internal/starlark"
)

// Parser builds the block tree from a token stream.
type Parser struct {
	tokens    []Token
	pos       int
	file      string
	loopDepth int
}

// NewParser creates a new parser for the given tokens.
func NewParser(tokens []Token, file string) *Parser {
	return &Parser{tokens: tokens, file: file}
}

// ParseString tokenizes and parses a template.
func ParseString(input, file string) (*Template, error) {
	tokens, err := NewLexer(input, file).Tokenize()
	if err != nil {
		return nil, err
	}
	tmpl, err := NewParser(tokens, file).Parse()
	if err != nil {
		return nil, err
	}
	tmpl.Source = input
	return tmpl, nil
}

// Parse parses the whole token stream into a Template.
func (p *Parser) Parse() (*Template, error) {
	nodes, stop, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}

	switch stop.Type {
	case TokenEnd:
		return nil, NewStrayDirectiveError(stop.Pos, BlockEnd)
	case TokenElse:
		return nil, NewStrayDirectiveError(stop.Pos, BlockElse)
	}

	return &Template{Nodes: nodes, File: p.file}, nil
}

// parseNodes parses nodes until END, ELSE or EOF and returns the token it
// stopped at. loop is the FOR block whose body is being parsed, if any; NEXT
// is only accepted directly inside it.
func (p *Parser) parseNodes(loop *ForBlock) ([]Node, Token, error) {
	var nodes []Node

	for {
		tok := p.next()

		switch tok.Type {
		case TokenEOF, TokenEnd, TokenElse:
			return nodes, tok, nil

		case TokenText:
			if p.loopDepth > 0 {
				nodes = append(nodes, splitCurrentBinds(tok.Value, tok.Pos)...)
			} else {
				nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: tok.Pos}, Text: tok.Value})
			}

		case TokenBind:
			nodes = append(nodes, &BindNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: tok.Value, TestValue: tok.Raw})

		case TokenEmbedded:
			nodes = append(nodes, &EmbeddedNode{nodeBase: nodeBase{pos: tok.Pos}, Expr: tok.Value, TestValue: tok.Raw})

		case TokenSubQueryBegin:
			nodes = append(nodes, &MarkerNode{nodeBase: nodeBase{pos: tok.Pos}, Kind: MarkerSubQueryBegin, Key: tok.Value, Text: tok.Raw})

		case TokenSubQueryEnd:
			nodes = append(nodes, &MarkerNode{nodeBase: nodeBase{pos: tok.Pos}, Kind: MarkerSubQueryEnd, Key: tok.Value, Text: tok.Raw})

		case TokenNext:
			if loop == nil {
				return nil, tok, NewStrayDirectiveError(tok.Pos, BlockNext)
			}
			if loop.HasSeparator {
				return nil, tok, NewDuplicateDirectiveError(tok.Pos, BlockNext)
			}
			loop.Separator = tok.Value
			loop.HasSeparator = true

		case TokenIf:
			block, err := p.parseIf(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, block)

		case TokenFor:
			block, err := p.parseFor(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, block)

		case TokenBegin:
			block, err := p.parseBegin(tok)
			if err != nil {
				return nil, tok, err
			}
			nodes = append(nodes, block)
		}
	}
}

// parseIf parses an IF block. The IF token has been consumed.
func (p *Parser) parseIf(start Token) (*IfBlock, error) {
	cond, err := starctx.Compile(start.Value)
	if err != nil {
		return nil, NewScanErrorf(start.Pos, "invalid IF condition: %v", err)
	}

	block := &IfBlock{
		nodeBase:  nodeBase{pos: start.Pos},
		Condition: start.Value,
		cond:      cond,
	}
	p.absorbBegin()

	body, stop, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}
	block.Body = body

	if stop.Type == TokenElse {
		block.HasElse = true
		block.Else, stop, err = p.parseNodes(nil)
		if err != nil {
			return nil, err
		}
		if stop.Type == TokenElse {
			return nil, NewDuplicateDirectiveError(stop.Pos, BlockElse)
		}
	}

	if stop.Type != TokenEnd {
		return nil, NewUnclosedBlockError(start.Pos, BlockIf)
	}
	return block, nil
}

// parseFor parses a FOR block. The FOR token has been consumed.
func (p *Parser) parseFor(start Token) (*ForBlock, error) {
	block := &ForBlock{
		nodeBase: nodeBase{pos: start.Pos},
		IterExpr: start.Value,
	}
	p.absorbBegin()

	p.loopDepth++
	body, stop, err := p.parseNodes(block)
	p.loopDepth--
	if err != nil {
		return nil, err
	}
	block.Body = body

	switch stop.Type {
	case TokenEnd:
		return block, nil
	case TokenElse:
		return nil, NewStrayDirectiveError(stop.Pos, BlockElse)
	default:
		return nil, NewUnclosedBlockError(start.Pos, BlockFor)
	}
}

// parseBegin parses a standalone BEGIN block.
func (p *Parser) parseBegin(start Token) (*BeginBlock, error) {
	body, stop, err := p.parseNodes(nil)
	if err != nil {
		return nil, err
	}

	switch stop.Type {
	case TokenEnd:
		return &BeginBlock{nodeBase: nodeBase{pos: start.Pos}, Body: body}, nil
	case TokenElse:
		return nil, NewStrayDirectiveError(stop.Pos, BlockElse)
	default:
		return nil, NewUnclosedBlockError(start.Pos, BlockBegin)
	}
}

// absorbBegin consumes a BEGIN directly after IF or FOR, with only
// whitespace in between. Such a BEGIN shares the enclosing block's END.
func (p *Parser) absorbBegin() {
	switch {
	case p.peek(0).Type == TokenBegin:
		p.pos++
	case p.peek(0).Type == TokenText && strings.TrimSpace(p.peek(0).Value) == "" && p.peek(1).Type == TokenBegin:
		p.pos += 2
	}
}

func (p *Parser) next() Token {
	tok := p.peek(0)
	if p.pos < len(p.tokens) {
		p.pos++
	}
	return tok
}

func (p *Parser) peek(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return Token{Type: TokenEOF}
	}
	return p.tokens[p.pos+n]
}

// splitCurrentBinds splits loop body text at each bare '?' outside quoted
// strings and comments. Each '?' becomes a CurrentBindNode.
func splitCurrentBinds(text string, pos Position) []Node {
	var nodes []Node
	start := 0

	for i := 0; i < len(text); {
		switch c := text[i]; {
		case c == '\'' || c == '"':
			i, _ = skipQuoted(text, i)
			continue
		case strings.HasPrefix(text[i:], "/*"):
			if end := strings.Index(text[i+2:], "*/"); end >= 0 {
				i += end + 4
			} else {
				i = len(text)
			}
			continue
		case strings.HasPrefix(text[i:], "--"):
			if nl := strings.IndexByte(text[i:], '\n'); nl >= 0 {
				i += nl
			} else {
				i = len(text)
			}
			continue
		case c == '?':
			if i > start {
				nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: advancePos(pos, text[:start])}, Text: text[start:i]})
			}
			nodes = append(nodes, &CurrentBindNode{nodeBase: nodeBase{pos: advancePos(pos, text[:i])}})
			start = i + 1
		}
		i++
	}

	if start < len(text) {
		nodes = append(nodes, &TextNode{nodeBase: nodeBase{pos: advancePos(pos, text[:start])}, Text: text[start:]})
	}
	return nodes
}

// advancePos returns the position reached after consuming s from pos.
func advancePos(pos Position, s string) Position {
	pos.Offset += len(s)
	for _, r := range s {
		if r == '\n' {
			pos.Line++
			pos.Column = 1
		} else {
			pos.Column++
		}
	}
	return pos
}
