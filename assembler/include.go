package assembler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/golang/glog"

	"github.com/Urethramancer/dcpu16/cpu"
)

// Includer reads files named by include and incbin directives, as well as
// the main file given to AssembleFile.
type Includer interface {
	ReadFile(name string) ([]byte, error)
}

// OSIncluder reads from the operating system's file system.
type OSIncluder struct{}

// ReadFile implements Includer.
func (OSIncluder) ReadFile(name string) ([]byte, error) {
	return os.ReadFile(name)
}

// FSIncluder reads from an fs.FS, e.g. an embed.FS or fstest.MapFS.
type FSIncluder struct {
	FS fs.FS
}

// ReadFile implements Includer.
func (i FSIncluder) ReadFile(name string) ([]byte, error) {
	return fs.ReadFile(i.FS, filepath.ToSlash(filepath.Clean(name)))
}

// candidates lists where a quoted or bracketed include path may be found.
// Quoted paths are relative to the including file.
func (r *run) candidates(l *TokenLine, token string) ([]string, error) {
	switch {
	case len(token) > 1 && token[0] == '"':
		p := strings.Trim(token, `"`)
		if filepath.IsAbs(p) {
			return []string{p}, nil
		}
		return []string{filepath.Join(filepath.Dir(l.File), p)}, nil
	case len(token) > 1 && token[0] == '<':
		p := strings.TrimSuffix(strings.TrimPrefix(token, "<"), ">")
		var out []string
		for _, dir := range r.IncludeDirs {
			out = append(out, filepath.Join(dir, p))
		}
		if len(out) == 0 {
			out = append(out, p)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrIncludePath, token)
}

// readInclude returns the first candidate that exists. A missing file is not
// an error: it is logged and ok is false.
func (r *run) readInclude(l *TokenLine, token string) (data []byte, name string, ok bool, err error) {
	paths, err := r.candidates(l, token)
	if err != nil {
		return nil, "", false, err
	}
	for _, p := range paths {
		data, err := r.includer().ReadFile(p)
		if err == nil {
			return data, p, true, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, "", false, fmt.Errorf("reading %s: %w", p, err)
		}
	}
	glog.Warningf("%s:%d: %s does not exist, skipping", l.File, l.Line, token)
	return nil, "", false, nil
}

// incbin synthesizes a DAT line holding the file's contents as words.
func incbinLine(l *TokenLine, data []byte) *TokenLine {
	out := l.Clone()
	out.Tokens = []string{"DAT"}
	for _, w := range cpu.BytesToWords(data) {
		out.Tokens = append(out.Tokens, fmt.Sprintf("0x%04X", w))
	}
	return out
}
