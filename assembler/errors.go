package assembler

import (
	"errors"
	"fmt"
)

// Preprocessor errors.
var (
	ErrTokenCount       = errors.New("wrong token count")
	ErrContext          = errors.New("directive in wrong context")
	ErrUnterminated     = errors.New("not enough ends")
	ErrTooManyEnds      = errors.New("too many ends")
	ErrMacroSyntax      = errors.New("malformed macro")
	ErrUndefinedMacro   = errors.New("undefined macro")
	ErrUnknownDirective = errors.New("preprocessor directive not handled")
	ErrIncludePath      = errors.New("path not understood")
	ErrLabel            = errors.New("malformed label")
	ErrUser             = errors.New("error directive")
)

// Semantic errors.
var (
	ErrRedefined          = errors.New("cannot redefine symbol")
	ErrUndefinedLabel     = errors.New("undefined label")
	ErrTooManyTokens      = errors.New("too many tokens on line")
	ErrUnknownInstruction = errors.New("instruction not recognized")
	ErrOperand            = errors.New("operand not understood")
	ErrRegisterForm       = errors.New("cannot rearrange into [register+literal] form")
	ErrNotLiteral         = errors.New("expression does not simplify to a literal")
)

// ErrNotConverged is returned when line lengths keep changing after the last layout pass.
var ErrNotConverged = errors.New("the code won't stay put")

// SourceError ties a failure to the line that caused it.
type SourceError struct {
	File   string
	Line   int
	Global string
	Scope  Scope
	Text   string
	Err    error
}

func (e *SourceError) Error() string {
	loc := fmt.Sprintf("%s:%d", e.File, e.Line)
	if e.Global != "" {
		loc += " in " + e.Global
	}
	if len(e.Scope) > 0 {
		loc += " (" + e.Scope.String() + ")"
	}
	if e.Text == "" {
		return fmt.Sprintf("%s: %v", loc, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", loc, e.Text, e.Err)
}

func (e *SourceError) Unwrap() error {
	return e.Err
}

// located wraps err with the location of l, keeping the innermost location
// when err already carries one.
func located(l *TokenLine, err error) error {
	if err == nil {
		return nil
	}
	var se *SourceError
	if errors.As(err, &se) {
		return err
	}
	return &SourceError{
		File:   l.File,
		Line:   l.Line,
		Global: l.Global,
		Scope:  l.Scope,
		Text:   l.String(),
		Err:    err,
	}
}
