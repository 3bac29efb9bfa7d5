package mathtex

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	// KindMathInline is the node kind of $...$ and $$...$$ inside a paragraph.
	KindMathInline = ast.NewNodeKind("MathInline")
	// KindMathBlock is the node kind of a $$ block on its own lines.
	KindMathBlock = ast.NewNodeKind("MathBlock")
)

// MathInline is a math run inside inline content.
type MathInline struct {
	ast.BaseInline
	Expr string
	Mode Mode
}

// Kind implements ast.Node.
func (n *MathInline) Kind() ast.NodeKind { return KindMathInline }

// Dump implements ast.Node.
func (n *MathInline) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Expr": n.Expr, "Mode": n.Mode.String()}, nil)
}

// MathBlock is display math delimited by $$ lines.
type MathBlock struct {
	ast.BaseBlock
	Expr   []byte
	closed bool
}

// Kind implements ast.Node.
func (n *MathBlock) Kind() ast.NodeKind { return KindMathBlock }

// IsRaw implements ast.Node.
func (n *MathBlock) IsRaw() bool { return true }

// Dump implements ast.Node.
func (n *MathBlock) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, map[string]string{"Expr": string(n.Expr)}, nil)
}

type inlineParser struct{}

func (p *inlineParser) Trigger() []byte {
	return []byte{'$'}
}

func (p *inlineParser) Parse(_ ast.Node, block text.Reader, _ parser.Context) ast.Node {
	line, _ := block.PeekLine()
	expr, n, mode, ok := scanDelimited(line)
	if !ok {
		return nil
	}
	block.Advance(n)
	return &MathInline{Expr: string(expr), Mode: mode}
}

type blockParser struct{}

func (b *blockParser) Trigger() []byte {
	return []byte{'$'}
}

func (b *blockParser) Open(_ ast.Node, reader text.Reader, pc parser.Context) (ast.Node, parser.State) {
	line, _ := reader.PeekLine()
	pos := pc.BlockOffset()
	if pos < 0 || !bytes.HasPrefix(line[pos:], []byte("$$")) {
		return nil, parser.NoChildren
	}

	body := line[pos+2:]
	node := &MathBlock{}
	if idx := bytes.Index(body, []byte("$$")); idx >= 0 {
		// $$...$$ followed by prose stays inline math in a paragraph
		if !util.IsBlank(body[idx+2:]) {
			return nil, parser.NoChildren
		}
		node.Expr = append(node.Expr, body[:idx]...)
		node.closed = true
	} else if !opensDisplayBlock(line[pos:]) {
		// "$$5 fee" is prose, not an opener
		return nil, parser.NoChildren
	}
	reader.Advance(lineLength(line))
	return node, parser.NoChildren
}

func (b *blockParser) Continue(node ast.Node, reader text.Reader, _ parser.Context) parser.State {
	n := node.(*MathBlock)
	if n.closed {
		return parser.Close
	}

	line, _ := reader.PeekLine()
	if util.IsBlank(line) {
		// unclosed: the blank line ends the block and stays with the document
		return parser.Close
	}
	if idx := bytes.Index(line, []byte("$$")); idx >= 0 {
		n.Expr = append(n.Expr, line[:idx]...)
		n.closed = true
		reader.Advance(lineLength(line))
		return parser.Close
	}

	n.Expr = append(n.Expr, line...)
	reader.Advance(lineLength(line))
	return parser.Continue | parser.NoChildren
}

func (b *blockParser) Close(ast.Node, text.Reader, parser.Context) {}

func (b *blockParser) CanInterruptParagraph() bool { return true }

func (b *blockParser) CanAcceptIndentedLine() bool { return false }

func lineLength(line []byte) int {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	return n
}

type nodeRenderer struct {
	math *Renderer
}

func (r *nodeRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(KindMathInline, r.renderInline)
	reg.Register(KindMathBlock, r.renderBlock)
}

func (r *nodeRenderer) renderInline(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathInline)
	_, _ = w.WriteString(string(r.math.RenderInlineElement(n.Expr, n.Mode)))
	return ast.WalkSkipChildren, nil
}

func (r *nodeRenderer) renderBlock(w util.BufWriter, _ []byte, node ast.Node, entering bool) (ast.WalkStatus, error) {
	if !entering {
		return ast.WalkContinue, nil
	}
	n := node.(*MathBlock)
	if n.closed {
		_, _ = w.WriteString(string(r.math.Render(string(n.Expr), Display)))
	} else {
		_, _ = w.WriteString(string(r.math.RenderUnclosed(string(n.Expr))))
	}
	_ = w.WriteByte('\n')
	return ast.WalkSkipChildren, nil
}

type extension struct {
	math *Renderer
}

// Extension returns a goldmark extender that parses $...$ and $$...$$ and
// renders them through r. A nil r uses a renderer without hooks.
func Extension(r *Renderer) goldmark.Extender {
	if r == nil {
		r = defaultRenderer
	}
	return &extension{math: r}
}

func (e *extension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(
		parser.WithBlockParsers(util.Prioritized(&blockParser{}, 701)),
		parser.WithInlineParsers(util.Prioritized(&inlineParser{}, 150)),
	)
	m.Renderer().AddOptions(
		renderer.WithNodeRenderers(util.Prioritized(&nodeRenderer{math: e.math}, 500)),
	)
}
