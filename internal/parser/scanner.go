package parser

import (
	"regexp"
	"strings"

	"github.com/mvp-joe/phptdd/internal/entity"
	"github.com/mvp-joe/phptdd/internal/tokenizer"
)

var (
	identifierPattern = regexp.MustCompile(`^[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*$`)
	namePattern       = regexp.MustCompile(`^\\?[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*(\\[A-Za-z_\x{80}-\x{10FFFF}][A-Za-z0-9_\x{80}-\x{10FFFF}]*)*$`)
)

// modifiers may sit between a doc comment and the declaration it documents.
var modifiers = map[string]bool{
	"abstract":  true,
	"final":     true,
	"public":    true,
	"protected": true,
	"private":   true,
	"static":    true,
	"readonly":  true,
}

// frame is an entity whose closing brace has not been seen yet.
type frame struct {
	entity    *entity.Entity
	bodyOpen  bool
	anonymous bool // new class { ... }, not recorded in the tree
}

// scanner holds the state of one left-to-right pass.
type scanner struct {
	tokens []tokenizer.Token
	pos    int

	line    int // line the next bare token starts on
	tokLine int // line of the token just consumed

	depth     int
	stack     []*frame
	pending   *entity.Comment
	namespace string
	prev      string // lowercased text of the last significant token

	// Interpolated strings, heredocs and attributes are opaque.
	quote   string
	heredoc string
	interp  int
	attr    int

	tree *Tree
}

// BuildTree scans tokens once and returns the declarations found.
//
// Brace depth counts every structural brace outside string literals. A
// class or function is pushed when its keyword and name are read, and popped
// with its end line when a closing brace brings depth back to the depth it
// was declared at. Declarations whose closing brace never arrives stay open.
func BuildTree(tokens []tokenizer.Token) *Tree {
	s := &scanner{
		tokens: tokens,
		line:   1,
		tree:   &Tree{Entities: []*entity.Entity{}},
	}
	s.scan()
	return s.tree
}

func (s *scanner) scan() {
	for {
		tok, ok := s.next()
		if !ok {
			return
		}

		if s.quote != "" || s.heredoc != "" {
			s.scanString(tok)
			continue
		}
		if s.attr > 0 {
			s.scanAttribute(tok)
			continue
		}

		switch {
		case tok.IsWhitespace():
			continue
		case tok.IsComment():
			// Only the most recent comment is kept.
			s.pending = entity.NewComment(tok.Text, s.tokLine)
			continue
		}

		s.handle(tok)
		s.prev = strings.ToLower(tok.Text)
	}
}

// next consumes one token and keeps line tracking current. Bare tokens carry
// no line, so they inherit the line where the previous token ended.
func (s *scanner) next() (tokenizer.Token, bool) {
	if s.pos >= len(s.tokens) {
		return tokenizer.Token{}, false
	}
	tok := s.tokens[s.pos]
	s.pos++

	if !tok.IsBare() && tok.Line > 0 {
		s.line = tok.Line
	}
	s.tokLine = s.line
	s.line += strings.Count(tok.Text, "\n")
	return tok, true
}

// seek consumes tokens until index i is the next to be read.
func (s *scanner) seek(i int) {
	for s.pos < i {
		if _, ok := s.next(); !ok {
			return
		}
	}
}

// peek returns the next token at or after from that is neither whitespace
// nor a comment.
func (s *scanner) peek(from int) (int, tokenizer.Token, bool) {
	for i := from; i < len(s.tokens); i++ {
		tok := s.tokens[i]
		if tok.IsWhitespace() || tok.IsComment() {
			continue
		}
		return i, tok, true
	}
	return len(s.tokens), tokenizer.Token{}, false
}

func (s *scanner) top() *frame {
	if len(s.stack) == 0 {
		return nil
	}
	return s.stack[len(s.stack)-1]
}

func (s *scanner) handle(tok tokenizer.Token) {
	switch {
	case tok.Is("{"):
		s.openBrace()
		s.pending = nil
	case tok.Is("}"):
		s.closeBrace()
		s.pending = nil
	case tok.Is(";"):
		s.endStatement()
		s.pending = nil
	case tok.Is(`"`), tok.Is(`b"`), tok.Is(`B"`):
		s.quote = `"`
		s.pending = nil
	case tok.Is("`"):
		s.quote = "`"
		s.pending = nil
	case !tok.IsBare() && strings.HasPrefix(tok.Text, "<<<"):
		s.heredoc = heredocLabel(tok.Text)
		s.pending = nil
	case !tok.IsBare() && tok.Text == "#[":
		s.attr = 1
	case !tok.IsBare() && identifierPattern.MatchString(tok.Text):
		s.keyword(tok)
	default:
		s.pending = nil
	}
}

// scanString skips string contents. Inside "{$...}" and "${...}"
// interpolations the closing brace is a bare "}", counted separately so
// structural depth is untouched.
func (s *scanner) scanString(tok tokenizer.Token) {
	switch {
	case !tok.IsBare() && (tok.Text == "{" || tok.Text == "${"):
		s.interp++
	case tok.Is("}") && s.interp > 0:
		s.interp--
	case s.interp > 0:
	case s.heredoc != "":
		if !tok.IsBare() && strings.TrimSpace(tok.Text) == s.heredoc {
			s.heredoc = ""
		}
	case tok.IsBare() && tok.Text == s.quote:
		s.quote = ""
	}
}

// scanAttribute skips a #[...] attribute without disturbing the pending
// comment.
func (s *scanner) scanAttribute(tok tokenizer.Token) {
	switch {
	case tok.Is("["), !tok.IsBare() && tok.Text == "#[":
		s.attr++
	case tok.Is("]"):
		s.attr--
	}
}

func heredocLabel(text string) string {
	label := strings.TrimSpace(strings.TrimPrefix(text, "<<<"))
	return strings.Trim(label, `"'`)
}

func (s *scanner) openBrace() {
	if top := s.top(); top != nil && !top.bodyOpen && top.entity.Depth == s.depth {
		top.bodyOpen = true
	}
	s.depth++
}

func (s *scanner) closeBrace() {
	if s.depth > 0 {
		s.depth--
	}

	for len(s.stack) > 0 {
		top := s.top()
		if top.entity.Depth < s.depth {
			return
		}
		s.stack = s.stack[:len(s.stack)-1]
		if top.bodyOpen && top.entity.Depth == s.depth {
			top.entity.EndLine = s.tokLine
			return
		}
		// A declaration whose body never opened stays open.
	}
}

// endStatement closes a body-less function such as an abstract or interface
// method.
func (s *scanner) endStatement() {
	top := s.top()
	if top == nil || top.bodyOpen {
		return
	}
	if top.entity.Kind == entity.KindFunction && top.entity.Depth == s.depth {
		top.entity.EndLine = s.tokLine
		s.stack = s.stack[:len(s.stack)-1]
	}
}

func (s *scanner) keyword(tok tokenizer.Token) {
	// Member names such as $x->class or Foo::class are not declarations.
	switch s.prev {
	case "->", "?->", "::":
		s.pending = nil
		return
	}

	word := strings.ToLower(tok.Text)
	switch word {
	case "namespace":
		s.parseNamespace()
	case "use":
		s.parseUse()
	case "class", "interface", "trait", "enum":
		if s.prev == "new" {
			s.parseAnonymousClass()
			return
		}
		s.parseClass(word)
	case "function":
		s.parseFunction()
	default:
		if !modifiers[word] {
			s.pending = nil
		}
	}
}

func (s *scanner) parseClass(keyword string) {
	line := s.tokLine
	i, tok, ok := s.peek(s.pos)
	if !ok || tok.IsBare() || !identifierPattern.MatchString(tok.Text) {
		s.pending = nil
		return
	}
	switch strings.ToLower(tok.Text) {
	case "extends", "implements":
		s.pending = nil
		return
	}

	s.seek(i + 1)
	s.declare(&entity.Entity{
		Kind:      entity.KindClass,
		Keyword:   keyword,
		Name:      tok.Text,
		StartLine: line,
	})
}

// parseAnonymousClass pushes an unnamed class so its closing brace is
// matched. Its methods are recorded as nested functions.
func (s *scanner) parseAnonymousClass() {
	s.pending = nil
	s.stack = append(s.stack, &frame{
		entity: &entity.Entity{
			Kind:      entity.KindClass,
			Keyword:   "class",
			StartLine: s.tokLine,
			Depth:     s.depth,
			Namespace: s.namespace,
		},
		anonymous: true,
	})
}

func (s *scanner) parseFunction() {
	line := s.tokLine
	i, tok, ok := s.peek(s.pos)
	if ok && tok.Is("&") {
		i, tok, ok = s.peek(i + 1)
	}
	if !ok || tok.IsBare() || !identifierPattern.MatchString(tok.Text) {
		// Closure: its braces are ordinary depth.
		s.pending = nil
		return
	}

	s.seek(i + 1)
	s.declare(&entity.Entity{
		Kind:      entity.KindFunction,
		Name:      tok.Text,
		StartLine: line,
	})
}

// declare records a class or function at the current depth, hands it the
// pending comment, links it to its class when the innermost open entity is a
// class body, and pushes it.
func (s *scanner) declare(e *entity.Entity) {
	e.Depth = s.depth
	e.Namespace = s.namespace
	e.Comment = s.pending
	s.pending = nil

	top := s.top()
	switch {
	case top == nil:
		s.tree.Entities = append(s.tree.Entities, e)
	case e.Kind == entity.KindFunction && top.entity.Kind == entity.KindClass && top.bodyOpen && !top.anonymous:
		e.ClassName = top.entity.Name
		top.entity.Methods = append(top.entity.Methods, e)
	default:
		s.tree.Nested = append(s.tree.Nested, e)
	}

	s.stack = append(s.stack, &frame{entity: e})
}

// parseNamespace records the namespace for subsequent declarations. Both
// "namespace Foo;" and "namespace Foo { ... }" forms end immediately; the
// terminator is left for the main loop.
func (s *scanner) parseNamespace() {
	s.pending = nil

	i, tok, ok := s.peek(s.pos)
	if ok && !tok.IsBare() && tok.Text == `\` {
		// namespace\foo() is a relative name, not a declaration
		return
	}

	var name strings.Builder
	for ok && !tok.IsBare() && (tok.Text == `\` || namePattern.MatchString(tok.Text)) {
		name.WriteString(tok.Text)
		s.seek(i + 1)
		i, tok, ok = s.peek(s.pos)
	}
	s.namespace = strings.TrimPrefix(name.String(), `\`)
}

// parseUse reads an import statement: plain, comma-separated, aliased, and
// grouped forms, with optional function/const qualifiers. A use that is not
// followed by a name (a closure's use list) declares nothing. A trait
// adaptation block is left to the main loop.
func (s *scanner) parseUse() {
	line := s.tokLine
	comment := s.pending
	s.pending = nil

	i, tok, ok := s.peek(s.pos)
	if ok && !tok.IsBare() {
		switch strings.ToLower(tok.Text) {
		case "function", "const":
			i, tok, ok = s.peek(i + 1)
		}
	}
	if !ok || tok.IsBare() || !namePattern.MatchString(tok.Text) {
		return
	}
	s.seek(i)

	var (
		names  []string
		buf    strings.Builder
		prefix string
		group  bool
	)
	flush := func() {
		if buf.Len() > 0 {
			names = append(names, prefix+buf.String())
			buf.Reset()
		}
	}

loop:
	for {
		j, tok, ok := s.peek(s.pos)
		if !ok {
			break loop
		}
		lower := strings.ToLower(tok.Text)

		switch {
		case tok.Is(";"):
			s.seek(j + 1)
			break loop
		case tok.Is(","):
			s.seek(j + 1)
			flush()
		case tok.Is("{"):
			if group || !strings.HasSuffix(buf.String(), `\`) {
				break loop
			}
			s.seek(j + 1)
			prefix = buf.String()
			buf.Reset()
			group = true
		case tok.Is("}") && group:
			s.seek(j + 1)
			flush()
			prefix = ""
			group = false
		case !tok.IsBare() && lower == "as":
			s.seek(j + 1)
			if k, alias, ok := s.peek(s.pos); ok && !alias.IsBare() && identifierPattern.MatchString(alias.Text) {
				s.seek(k + 1)
			}
		case !tok.IsBare() && group && (lower == "function" || lower == "const"):
			s.seek(j + 1)
		case !tok.IsBare() && (tok.Text == `\` || namePattern.MatchString(tok.Text)):
			s.seek(j + 1)
			buf.WriteString(tok.Text)
		default:
			break loop
		}
	}
	flush()

	for n, full := range names {
		full = strings.TrimPrefix(full, `\`)
		e := &entity.Entity{
			Kind:      entity.KindUse,
			Name:      full,
			StartLine: line,
			EndLine:   s.tokLine,
			Depth:     s.depth,
		}
		if k := strings.LastIndex(full, `\`); k >= 0 {
			e.Namespace = full[:k]
			e.Name = full[k+1:]
		}
		if n == 0 {
			e.Comment = comment
		}
		s.tree.Imports = append(s.tree.Imports, e)
	}
}
