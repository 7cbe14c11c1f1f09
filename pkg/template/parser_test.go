package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_ValidInput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantNodes int
		checkFunc func(t *testing.T, tmpl *Template)
	}{
		{
			name:      "plain text",
			input:     "SELECT * FROM users",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				text, ok := tmpl.Nodes[0].(*TextNode)
				require.True(t, ok, "expected TextNode, got %T", tmpl.Nodes[0])
				assert.Equal(t, "SELECT * FROM users", text.Text)
			},
		},
		{
			name:      "bind variable",
			input:     "WHERE ID = /*pmb.id*/3",
			wantNodes: 2,
			checkFunc: func(t *testing.T, tmpl *Template) {
				bind, ok := tmpl.Nodes[1].(*BindNode)
				require.True(t, ok, "node[1]: expected BindNode, got %T", tmpl.Nodes[1])
				assert.Equal(t, "pmb.id", bind.Expr)
				assert.Equal(t, "3", bind.TestValue)
			},
		},
		{
			name:      "if with else",
			input:     "/*IF pmb.flag*/A/*ELSE*/B/*END*/",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				ifBlock, ok := tmpl.Nodes[0].(*IfBlock)
				require.True(t, ok, "expected IfBlock, got %T", tmpl.Nodes[0])
				assert.Equal(t, "pmb.flag", ifBlock.Condition)
				assert.True(t, ifBlock.HasElse)
				require.Len(t, ifBlock.Body, 1)
				require.Len(t, ifBlock.Else, 1)
				assert.Equal(t, "B", ifBlock.Else[0].(*TextNode).Text)
			},
		},
		{
			name:      "begin absorbed by if",
			input:     "/*IF pmb.flag*/ /*BEGIN*/A/*END*/",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				ifBlock, ok := tmpl.Nodes[0].(*IfBlock)
				require.True(t, ok, "expected IfBlock, got %T", tmpl.Nodes[0])
				require.Len(t, ifBlock.Body, 1)
				assert.Equal(t, "A", ifBlock.Body[0].(*TextNode).Text)
			},
		},
		{
			name:      "standalone begin",
			input:     "/*BEGIN*/WHERE /*IF a*/A/*END*//*END*/",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				begin, ok := tmpl.Nodes[0].(*BeginBlock)
				require.True(t, ok, "expected BeginBlock, got %T", tmpl.Nodes[0])
				require.Len(t, begin.Body, 2)
				_, ok = begin.Body[1].(*IfBlock)
				assert.True(t, ok, "body[1]: expected IfBlock, got %T", begin.Body[1])
			},
		},
		{
			name:      "for with separator and current binds",
			input:     "/*FOR pmb.ids*//*NEXT ' OR '*/ID = ? AND '?' = ?/*END*/",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				forBlock, ok := tmpl.Nodes[0].(*ForBlock)
				require.True(t, ok, "expected ForBlock, got %T", tmpl.Nodes[0])
				assert.Equal(t, "pmb.ids", forBlock.IterExpr)
				assert.True(t, forBlock.HasSeparator)
				assert.Equal(t, " OR ", forBlock.Separator)
				require.Len(t, forBlock.Body, 4)
				assert.Equal(t, "ID = ", forBlock.Body[0].(*TextNode).Text)
				assert.IsType(t, &CurrentBindNode{}, forBlock.Body[1])
				assert.Equal(t, " AND '?' = ", forBlock.Body[2].(*TextNode).Text)
				assert.IsType(t, &CurrentBindNode{}, forBlock.Body[3])
			},
		},
		{
			name:      "question mark outside loop stays literal",
			input:     "SELECT ? FROM t",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				assert.Equal(t, "SELECT ? FROM t", tmpl.Nodes[0].(*TextNode).Text)
			},
		},
		{
			name:      "nested blocks",
			input:     "/*FOR pmb.rows*//*IF #current.on*/X/*END*//*END*/",
			wantNodes: 1,
			checkFunc: func(t *testing.T, tmpl *Template) {
				forBlock := tmpl.Nodes[0].(*ForBlock)
				require.Len(t, forBlock.Body, 1)
				ifBlock, ok := forBlock.Body[0].(*IfBlock)
				require.True(t, ok, "expected IfBlock, got %T", forBlock.Body[0])
				assert.Equal(t, "#current.on", ifBlock.Condition)
			},
		},
		{
			name:      "sub-query markers",
			input:     "(" + SubQueryBeginMark("k") + "SELECT 1" + SubQueryEndMark("k") + ")",
			wantNodes: 5,
			checkFunc: func(t *testing.T, tmpl *Template) {
				begin, ok := tmpl.Nodes[1].(*MarkerNode)
				require.True(t, ok, "expected MarkerNode, got %T", tmpl.Nodes[1])
				assert.Equal(t, MarkerSubQueryBegin, begin.Kind)
				assert.Equal(t, "k", begin.Key)
				end := tmpl.Nodes[3].(*MarkerNode)
				assert.Equal(t, MarkerSubQueryEnd, end.Kind)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := ParseString(tt.input, "test.sql")
			require.NoError(t, err)
			require.Len(t, tmpl.Nodes, tt.wantNodes)
			assert.Equal(t, tt.input, tmpl.Source)
			if tt.checkFunc != nil {
				tt.checkFunc(t, tmpl)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		kind  BlockKind
	}{
		{name: "unclosed begin", input: "/*BEGIN*/WHERE x", kind: BlockBegin},
		{name: "unclosed if", input: "/*IF a*/x", kind: BlockIf},
		{name: "unclosed for", input: "/*FOR a*/x", kind: BlockFor},
		{name: "stray end", input: "x/*END*/", kind: BlockEnd},
		{name: "stray else", input: "x/*ELSE*/y", kind: BlockElse},
		{name: "else in for", input: "/*FOR a*/x/*ELSE*/y/*END*/", kind: BlockElse},
		{name: "else in begin", input: "/*BEGIN*/x/*ELSE*/y/*END*/", kind: BlockElse},
		{name: "duplicate else", input: "/*IF a*/x/*ELSE*/y/*ELSE*/z/*END*/", kind: BlockElse},
		{name: "stray next", input: "/*NEXT ','*/", kind: BlockNext},
		{name: "next nested in if", input: "/*FOR a*//*IF b*//*NEXT ','*//*END*//*END*/", kind: BlockNext},
		{name: "duplicate next", input: "/*FOR a*//*NEXT ','*//*NEXT ';'*/x/*END*/", kind: BlockNext},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseString(tt.input, "test.sql")
			require.Error(t, err)

			var structErr *StructureError
			require.ErrorAs(t, err, &structErr)
			assert.Equal(t, tt.kind, structErr.Kind)
		})
	}
}

func TestParser_UnclosedBeginIsDeterministic(t *testing.T) {
	inputs := []string{
		"/*BEGIN*/",
		"/*BEGIN*/WHERE /*IF a*/A/*END*/",
		"SELECT 1 /*BEGIN*/ /*BEGIN*/x/*END*/",
	}

	for _, input := range inputs {
		for i := 0; i < 3; i++ {
			_, err := ParseString(input, "test.sql")
			var structErr *StructureError
			require.ErrorAs(t, err, &structErr, "input %q", input)
			assert.Equal(t, BlockBegin, structErr.Kind, "input %q", input)
		}
	}
}

func TestParser_InvalidCondition(t *testing.T) {
	_, err := ParseString("WHERE /*IF pmb.name ==*/x/*END*/", "test.sql")
	require.Error(t, err)

	var scanErr *ScanError
	require.ErrorAs(t, err, &scanErr)
	assert.Equal(t, 7, scanErr.Position().Column)
}
