package assembler

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

type frameKind int

const (
	frameBottom frameKind = iota
	frameIf
	frameRep
	frameMacro
)

// frame is one open conditional, repetition or macro body.
type frame struct {
	kind frameKind
	// active frames pass their lines on to the assembler.
	active bool
	// skipRest is set once a branch of an if chain has been taken.
	skipRest bool
	// remaining counts replays still owed by a rep frame.
	remaining int
	// lines captured for rep and macro frames, replayed from cursor.
	lines     []*TokenLine
	cursor    int
	replaying bool
	global    string
}

func (f *frame) capture(l *TokenLine) {
	if f.kind == frameRep || f.kind == frameMacro {
		f.lines = append(f.lines, l.Clone())
	}
}

func (f *frame) next() *TokenLine {
	if f.cursor >= len(f.lines) {
		return nil
	}
	l := f.lines[f.cursor].Clone()
	f.cursor++
	return l
}

// flowDirectives are evaluated even inside skipped blocks, to keep nesting.
var flowDirectives = map[string]bool{
	"if": true, "ifdef": true, "ifndef": true,
	"elif": true, "elsif": true, "elseif": true, "else": true,
	"rep": true, "macro": true, "end": true,
}

// lexer runs the preprocessor over one file. Included files get their own
// lexer sharing the same run.
type lexer struct {
	r       *run
	tok     *tokenizer
	frames  []*frame
	sources []*frame
}

func (lx *lexer) top() *frame {
	return lx.frames[len(lx.frames)-1]
}

func (lx *lexer) source() *frame {
	if len(lx.sources) == 0 {
		return nil
	}
	return lx.sources[len(lx.sources)-1]
}

func (lx *lexer) push(f *frame) {
	f.global = lx.top().global
	lx.frames = append(lx.frames, f)
}

// pop removes the top frame. Labels defined in if and rep bodies stay in
// effect; a macro's namespace ends with it.
func (lx *lexer) pop() {
	f := lx.top()
	lx.frames = lx.frames[:len(lx.frames)-1]
	if f.kind != frameMacro {
		lx.top().global = f.global
	}
	if lx.source() == f {
		lx.sources = lx.sources[:len(lx.sources)-1]
	}
}

// lex preprocesses src, adding every accepted line to the run.
func (r *run) lex(src, file, global string) error {
	lx := &lexer{
		r:      r,
		tok:    newTokenizer(src, file),
		frames: []*frame{{kind: frameBottom, active: true, global: global}},
	}
	var last *TokenLine
	for {
		top := lx.top()
		var l *TokenLine
		if s := lx.source(); s != nil {
			l = s.next()
			if l == nil {
				return located(last, fmt.Errorf("%w: replay ran out of lines", ErrUnterminated))
			}
		} else {
			next, ok, err := lx.tok.next()
			if err != nil {
				return err
			}
			if !ok {
				break
			}
			l = next
		}
		l.Global = top.global
		last = l

		for i := len(lx.frames) - 1; i >= 0; i-- {
			if lx.frames[i].replaying {
				break
			}
			lx.frames[i].capture(l)
		}
		if err := lx.handle(l, top); err != nil {
			return located(l, err)
		}
	}

	if len(lx.frames) > 1 {
		err := fmt.Errorf("%w: %d block(s) still open", ErrUnterminated, len(lx.frames)-1)
		if last == nil {
			return &SourceError{File: file, Err: err}
		}
		return located(last, err)
	}
	return nil
}

func (lx *lexer) handle(l *TokenLine, top *frame) error {
	first := l.Tokens[0]
	name, directive := isDirective(first)
	if !top.active && !(directive && flowDirectives[name]) {
		return nil
	}
	if directive {
		return lx.directive(name, l, top)
	}
	if strings.Contains(first, "(") {
		return lx.invoke(l)
	}
	if isLabelToken(first) {
		g, err := lx.r.sym.AddLabel(strings.TrimSuffix(strings.TrimPrefix(first, ":"), ":"), l.Scope, top.global, len(lx.r.nodes), lx.r.org)
		if err != nil {
			return err
		}
		top.global = g
		return nil
	}
	if !isDataToken(first) && len(l.Tokens) > 3 {
		return fmt.Errorf("%w: %d", ErrTooManyTokens, len(l.Tokens))
	}
	return lx.r.add(l)
}

func (lx *lexer) invoke(l *TokenLine) error {
	name, args, err := macroParts(l.Tokens)
	if err != nil {
		return err
	}
	m, ok := lx.r.macros[strings.ToUpper(name)]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUndefinedMacro, name)
	}
	f, err := m.expand(args, l.Scope)
	if err != nil {
		return err
	}
	lx.push(f)
	lx.sources = append(lx.sources, f)
	return nil
}

func wantTokens(l *TokenLine, n int) error {
	if len(l.Tokens) != n {
		return fmt.Errorf("%w: want %d, got %d", ErrTokenCount, n, len(l.Tokens))
	}
	return nil
}

func (lx *lexer) directive(name string, l *TokenLine, top *frame) error {
	r := lx.r
	switch name {
	case "include":
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		data, path, ok, err := r.readInclude(l, l.Tokens[1])
		if err != nil || !ok {
			return err
		}
		glog.V(2).Infof("including %s", path)
		return r.lex(string(data), path, top.global)

	case "incbin":
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		data, _, ok, err := r.readInclude(l, l.Tokens[1])
		if err != nil || !ok {
			return err
		}
		return r.add(incbinLine(l, data))

	case "def", "define", "equ":
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		fields := strings.Fields(l.Tokens[1])
		value := 1
		if len(fields) > 1 {
			v, err := r.literal(l, strings.TrimSpace(strings.TrimPrefix(l.Tokens[1], fields[0])))
			if err != nil {
				return err
			}
			value = v
		}
		return r.sym.Define(fields[0], value)

	case "undef":
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		r.sym.Undefine(l.Tokens[1])
		return nil

	case "echo":
		_, err := fmt.Fprintln(r.echo(), strings.Join(l.Tokens[1:], ", "))
		return err

	case "error":
		return fmt.Errorf("%w: %s", ErrUser, strings.Join(l.Tokens[1:], ", "))

	case "if", "ifdef", "ifndef":
		if !top.active {
			lx.push(&frame{kind: frameIf, skipRest: true})
			return nil
		}
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		cond := l.Tokens[1]
		switch name {
		case "ifdef":
			cond = "isdef(" + cond + ")"
		case "ifndef":
			cond = "!isdef(" + cond + ")"
		}
		v, err := r.literal(l, cond)
		if err != nil {
			return err
		}
		lx.push(&frame{kind: frameIf, active: v != 0, skipRest: v != 0})
		return nil

	case "elif", "elsif", "elseif":
		if top.kind != frameIf {
			return fmt.Errorf("%w: %s without if", ErrContext, name)
		}
		if top.skipRest {
			top.active = false
			return nil
		}
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		v, err := r.literal(l, l.Tokens[1])
		if err != nil {
			return err
		}
		top.active = v != 0
		top.skipRest = v != 0
		return nil

	case "else":
		if top.kind != frameIf {
			return fmt.Errorf("%w: else without if", ErrContext)
		}
		top.active = !top.skipRest
		top.skipRest = true
		return nil

	case "rep":
		if !top.active {
			lx.push(&frame{kind: frameRep})
			return nil
		}
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		n, err := r.literal(l, l.Tokens[1])
		if err != nil {
			return err
		}
		lx.push(&frame{kind: frameRep, remaining: n})
		return nil

	case "macro":
		f := &frame{kind: frameMacro}
		if top.active {
			mname, params, err := macroParts(l.Tokens[1:])
			if err != nil {
				return err
			}
			r.macros[strings.ToUpper(mname)] = &macro{name: mname, params: params, body: f}
		}
		lx.push(f)
		return nil

	case "end":
		if top.kind == frameBottom {
			return ErrTooManyEnds
		}
		if top.kind == frameRep && top.remaining > 0 {
			top.remaining--
			top.cursor = 0
			if !top.replaying {
				top.replaying = true
				top.active = true
				lx.sources = append(lx.sources, top)
			}
			return nil
		}
		lx.pop()
		return nil

	case "org":
		if err := wantTokens(l, 2); err != nil {
			return err
		}
		v, err := r.literal(l, l.Tokens[1])
		if err != nil {
			return err
		}
		r.org = v
		return nil

	case "dw", "dp", "ascii", "fill", "align":
		l.Tokens[0] = "." + strings.ToUpper(name)
		return r.add(l)
	}
	return fmt.Errorf("%w: %s", ErrUnknownDirective, name)
}
