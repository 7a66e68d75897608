package assembler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Urethramancer/dcpu16/cpu"
)

// Line is the listing entry of one output-producing source line.
type Line struct {
	Source   string
	Resolved string
	File     string
	Number   int
	Position int
	Words    []uint16
}

// Program is the result of a converged assembly.
type Program struct {
	Words  []uint16
	Lines  []Line
	labels map[string]int
}

func (r *run) program() *Program {
	p := &Program{labels: make(map[string]int)}
	for i, n := range r.nodes {
		pos, _ := r.position(i)
		p.Lines = append(p.Lines, Line{
			Source:   n.Line.String(),
			Resolved: n.lastString(),
			File:     n.Line.File,
			Number:   n.Line.Line,
			Position: pos,
			Words:    r.emitted[i],
		})
		p.Words = append(p.Words, r.emitted[i]...)
	}
	for key, l := range r.sym.labels {
		if pos, ok := r.position(l.line); ok {
			p.labels[key] = pos + l.offset
		}
	}
	return p
}

// Bytes serializes the program big-endian.
func (p *Program) Bytes() []byte {
	return cpu.WordsToBytes(p.Words)
}

// Hex returns the words as space-separated upper-case hex.
func (p *Program) Hex() string {
	return cpu.HexWords(p.Words)
}

// Labels returns every label by its qualified, upper-case name.
func (p *Program) Labels() map[string]int {
	out := make(map[string]int, len(p.labels))
	for k, v := range p.labels {
		out[k] = v
	}
	return out
}

// Label looks up one qualified label.
func (p *Program) Label(name string) (int, bool) {
	v, ok := p.labels[strings.ToUpper(name)]
	return v, ok
}

// LabelNames returns the label names sorted by position, then name.
func (p *Program) LabelNames() []string {
	names := make([]string, 0, len(p.labels))
	for k := range p.labels {
		names = append(names, k)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := p.labels[names[i]], p.labels[names[j]]
		if a != b {
			return a < b
		}
		return names[i] < names[j]
	})
	return names
}

// Listing pairs each line with its last resolved form, position and words.
func (p *Program) Listing() string {
	w1, w2 := 0, 0
	for _, l := range p.Lines {
		w1 = max(w1, len(l.Source))
		w2 = max(w2, len(l.Resolved))
	}
	var b strings.Builder
	for _, l := range p.Lines {
		fmt.Fprintf(&b, " %-*s ; %-*s ; %5d %04X: %s\n", w1, l.Source, w2, l.Resolved, l.Position, l.Position, cpu.HexWords(l.Words))
	}
	return b.String()
}
