package assembler

import (
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/golang/glog"
)

// DefaultMaxPasses bounds the finalizing layout passes.
const DefaultMaxPasses = 8

// Assembler holds configuration. Each Assemble call works on fresh state, so
// an Assembler may be reused, but not concurrently.
type Assembler struct {
	// Optimize enables the peephole substitutions.
	Optimize bool
	// MaxPasses is the number of finalizing passes allowed before giving up.
	MaxPasses int
	// IncludeDirs are searched for <bracketed> include paths.
	IncludeDirs []string
	// Includer reads source and binary files. Nil means the OS file system.
	Includer Includer
	// Echo receives the output of .echo. Nil means standard output.
	Echo io.Writer
}

// New creates an Assembler with optimization on.
func New() *Assembler {
	return &Assembler{
		Optimize:  true,
		MaxPasses: DefaultMaxPasses,
	}
}

// run is the state of one assembly.
type run struct {
	*Assembler
	sym     *Symbols
	macros  map[string]*macro
	nodes   []*Node
	emitted [][]uint16
	org     int
}

func (a *Assembler) newRun() *run {
	return &run{
		Assembler: a,
		sym:       NewSymbols(),
		macros:    make(map[string]*macro),
	}
}

func (a *Assembler) includer() Includer {
	if a.Includer == nil {
		return OSIncluder{}
	}
	return a.Includer
}

func (a *Assembler) echo() io.Writer {
	if a.Echo == nil {
		return os.Stdout
	}
	return a.Echo
}

// AssembleFile reads path through the Includer and assembles it.
func (a *Assembler) AssembleFile(path string) (*Program, error) {
	src, err := a.includer().ReadFile(path)
	if err != nil {
		return nil, err
	}
	return a.Assemble(string(src), path)
}

// Assemble preprocesses src and lays it out. filename is used in errors and
// to resolve quoted include paths.
func (a *Assembler) Assemble(src, filename string) (*Program, error) {
	r := a.newRun()
	if err := r.lex(src, filename, ""); err != nil {
		return nil, err
	}
	if err := r.layout(); err != nil {
		return nil, err
	}
	return r.program(), nil
}

// position returns the word offset of line i, if every earlier line has
// been emitted.
func (r *run) position(i int) (int, bool) {
	if i == 0 {
		return 0, true
	}
	if i > len(r.emitted) || r.emitted[i-1] == nil {
		return 0, false
	}
	pos := 0
	for _, w := range r.emitted[:i] {
		pos += len(w)
	}
	return pos, true
}

// pass emits every line once and reports whether any output changed.
func (r *run) pass(finalize bool) (bool, error) {
	changed := false
	pos := 0
	for i, n := range r.nodes {
		old := r.emitted[i]
		words, err := n.emit(r, pos, finalize, old)
		if err != nil {
			return false, located(n.Line, err)
		}
		if old == nil || !slices.Equal(old, words) {
			changed = true
		}
		r.emitted[i] = words
		pos += len(words)
	}
	return changed, nil
}

// layout runs one provisional pass, then finalizing passes until nothing
// changes.
func (r *run) layout() error {
	r.emitted = make([][]uint16, len(r.nodes))
	if _, err := r.pass(false); err != nil {
		return err
	}
	passes := r.MaxPasses
	if passes <= 0 {
		passes = DefaultMaxPasses
	}
	for i := 1; i <= passes; i++ {
		changed, err := r.pass(true)
		if err != nil {
			return err
		}
		glog.V(2).Infof("layout pass %d: changed=%v", i, changed)
		if !changed {
			glog.V(1).Infof("layout converged after %d finalizing passes", i)
			return nil
		}
	}
	return fmt.Errorf("%w after %d passes; check for instructions that change size based on a later label", ErrNotConverged, passes)
}
