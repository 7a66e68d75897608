package assembler_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/Urethramancer/dcpu16/assembler"
	"github.com/Urethramancer/dcpu16/expr"
)

// Assembles source and checks the words against an expected hex dump.
func assembleAndMatchHex(t *testing.T, name, src, expectedHex string) *assembler.Program {
	t.Helper()

	expected := strings.ToUpper(strings.Join(strings.Fields(expectedHex), " "))
	asm := assembler.New()
	p, err := asm.Assemble(src, name+".dasm")
	if err != nil {
		t.Fatalf("[%s] failed to assemble:\n%s\nerror: %v", name, src, err)
	}
	if got := p.Hex(); got != expected {
		t.Errorf("[%s] mismatch\nexpected: %s\ngot:      %s", name, expected, got)
	}
	return p
}

func TestScenarios(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"SET_A_literal", "SET A, 0x30", "7C01 0030"},
		{"JSR_start", ":start\nJSR start", "8010"},
		{"DAT_string", `DAT 1, "AB"`, "0001 0041 0042"},
		{"if_else", ".if 0\nDAT 1\n.else\nDAT 2\n.end", "0002"},
		{"rep", ".rep 3\nDAT 5\n.end", "0005 0005 0005"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestStartLabel(t *testing.T) {
	p := assembleAndMatchHex(t, "start", ":start\nJSR start", "8010")
	if v, ok := p.Label("start"); !ok || v != 0 {
		t.Errorf("start = %d, %v", v, ok)
	}
}

func TestOperandEncodings(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"registers", "SET I, J", "1C61"},
		{"register_indirect", "SET PUSH, [A]", "21A1"},
		{"pop", "SET A, POP", "6001"},
		{"stack_aliases", "SET [--SP], [SP++]", "61A1"},
		{"peek", "SET B, [SP]", "6411"},
		{"special_registers", "SET O, SP", "6DD1"},
		{"short_literal", "SET A, 0x1F", "FC01"},
		{"short_literal_zero", "IFE X, 0", "803C"},
		{"next_word", "SET A, 0x20", "7C01 0020"},
		{"negative", "SET A, -1", "7C01 FFFF"},
		{"indirect_next", "SET [0x8000], A", "01E1 8000"},
		{"register_plus", "SET [A+1], 2", "8901 0001"},
		{"literal_plus_register", "SET A, [0x1000 + I]", "5801 1000"},
		{"register_minus", "SET [B - 1], A", "0111 FFFF"},
		{"rearranged", "SET X, [2 * (3 + 1) + Y - 1]", "5031 0007"},
		{"both_extra", "SET [0x1000], 0x2000", "7DE1 1000 2000"},
		{"jsr_long", "JSR 0x100", "7C10 0100"},
		{"case_insensitive", "set a, b", "0401"},
		{"constant", ".def SCREEN 0x8000\nSET [SCREEN + 2], 'A'", "7DE1 8002 0041"},
		{"char_literal", "SET A, 'a'", "7C01 0061"},
		{"expression", "SET A, (1 << 4) | 3", "CC01"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestLabels(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"forward", "JSR end\nSET A, 1\n:end", "8810 8401"},
		{"forward_long", "SET A, end\n.fill 0x30\n:end", "7C01 0032" + strings.Repeat(" 0000", 0x30)},
		{"trailing_colon", "loop: SET PC, loop", "81C1"},
		{"local", ":main\nSET A, 1\n:_x\nSET PC, _x\n:other\n:_x\nSET PC, _x", "8401 85C1 89C1"},
		{"org", ".org 0x100\n:here\nSET A, here", "7C01 0100"},
		{"label_arithmetic", ":aa\nDAT bb - aa\n:bb", "0001"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestLocalLabelNames(t *testing.T) {
	p := assembleAndMatchHex(t, "locals", ":main\nSET A, 1\n:_x\nSET PC, _x\n:other\n:_x\nSET PC, _x", "8401 85C1 89C1")
	want := map[string]int{"MAIN": 0, "MAIN::_X": 1, "OTHER": 2, "OTHER::_X": 2}
	got := p.Labels()
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s = %d, want %d (%v)", k, got[k], v, got)
		}
	}
}

func TestPreprocessor(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"elif", ".def V 2\n.if V == 1\nDAT 1\n.elif V == 2\nDAT 2\n.else\nDAT 3\n.end", "0002"},
		{"elif_taken_once", ".if 1\nDAT 1\n.elif 1\nDAT 2\n.else\nDAT 3\n.end", "0001"},
		{"ifdef", ".def DEBUG\n.ifdef DEBUG\nDAT 1\n.end\n.ifndef DEBUG\nDAT 2\n.end", "0001"},
		{"ifdef_label", ":here\n.if isdef(here)\nDAT 7\n.end", "0007"},
		{"undef", ".def XV 1\n.undef XV\n.def XV 2\nDAT XV", "0002"},
		{"nested_skip", ".if 0\n.if 1\nDAT 1\n.else\nDAT 2\n.end\n.rep 2\nDAT 3\n.end\n.else\nDAT 4\n.end", "0004"},
		{"nested_rep", ".rep 2\n.rep 2\nDAT 1\n.end\nDAT 2\n.end", "0001 0001 0002 0001 0001 0002"},
		{"rep_zero", ".rep 0\nDAT 1\n.end\nDAT 2", "0002"},
		{"rep_if", ".def N 3\n.rep N\n.if N > 2\nDAT 9\n.end\n.end", "0009 0009 0009"},
		{"braces", ".if 0 {\nDAT 1\n} .else {\nDAT 2\n}", "0002"},
		{"braces_inline", ".if 1 { DAT 1 }\nDAT 2", "0001 0002"},
		{"def_expression", ".def XV 2 + 3 * 4\nDAT XV", "000E"},
		{"comments", "; nothing here\nSET A, 1 ; set a\n", "8401"},
		{"dw", ".dw 1, 2", "0001 0002"},
		{"ascii", `.ascii "hi"`, "0068 0069"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestHashDirectives(t *testing.T) {
	assembleAndMatchHex(t, "hash", "#define XV 4\n#if XV\nDAT XV\n#end", "0004")
}

func TestMacros(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"no_args", ".macro nop()\nSET A, A\n.end\nnop()\nnop()", "0001 0001"},
		{"token_args", ".macro set(r, v)\nSET r, v\n.end\nset(B, 3)", "8C11"},
		{"expression_args", ".macro clear(dst, n)\nSET [dst+n], 0\n.end\nclear(A, 2)", "8101 0002"},
		{"word_boundaries", ".macro f(x)\nDAT 0x10 + x\n.end\nf(1)", "0011"},
		{"nested", ".macro one(v)\nDAT v\n.end\n.macro two(v)\none(v)\none(v+1)\n.end\ntwo(4)", "0004 0005"},
		{"braces", ".macro d(v) {\nDAT v\n}\nd(6)", "0006"},
		{"in_rep", ".macro d(v)\nDAT v\n.end\n.rep 2\nd(1)\n.end", "0001 0001"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestMacroHygiene(t *testing.T) {
	src := `
.macro wait()
:_loop
SET PC, _loop
.end
:main
wait()
wait()
`
	p := assembleAndMatchHex(t, "hygiene", src, "81C1 85C1")
	labels := p.Labels()
	first, ok1 := labels["WAIT_1::MAIN::_LOOP"]
	second, ok2 := labels["WAIT_2::MAIN::_LOOP"]
	if !ok1 || !ok2 {
		t.Fatalf("missing macro labels: %v", labels)
	}
	if first == second {
		t.Errorf("both invocations share address %d", first)
	}
	if _, ok := labels["MAIN::_LOOP"]; ok {
		t.Errorf("macro label leaked into the caller: %v", labels)
	}
}

func TestMacroGlobalLabelRestored(t *testing.T) {
	src := `
.macro sub()
:inner
DAT 1
.end
:outer
sub()
:_after
SET PC, _after
`
	p := assembleAndMatchHex(t, "restore", src, "0001 85C1")
	if _, ok := p.Label("OUTER::_AFTER"); !ok {
		t.Errorf("local label should belong to OUTER: %v", p.Labels())
	}
}

func TestData(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"escapes", `DAT "a\n\"\\"`, "0061 000A 0022 005C"},
		{"zero_terminated", `DAT z"AB"`, "0041 0042 0000"},
		{"pascal", `DAT p"AB"`, "0002 0041 0042"},
		{"packed", `DAT k"ABC"`, "4142 4300"},
		{"swapped", `DAT s"AB"`, "4241"},
		{"packed_pascal", `DAT ka"AB"`, "0241 4200"},
		{"packed_word_terminator", `DAT kx"AB"`, "4142 0000"},
		{"mask", `DAT <0x80>"A"`, "00C1"},
		{"mask_constant", ".def RED 0x4000\nDAT <RED>\"A\"", "4041"},
		{"dp", `.dp "ABC"`, "4142 4300"},
		{"dp_values", ".dp 1, 2, 0x1FF", "0102 FF00"},
		{"dp_packed_string", `.dp k"AB", 1`, "4142 0100"},
		{"dp_packed_after_byte", `.dp 1, k"AB"`, "0100 4142"},
		{"comma_in_string", `DAT "a,b;c"`, "0061 002C 0062 003B 0063"},
		{"forward_label", "DAT end\n:end", "0001"},
		{"truncated", "DAT 0x12345", "2345"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestFillAlign(t *testing.T) {
	tests := []struct {
		name, src, hex string
	}{
		{"fill", ".fill 3, 0xAB", "00AB 00AB 00AB"},
		{"fill_zero", ".fill 2", "0000 0000"},
		{"fill_forward", ".fill end - start, 1\n:start\nDAT 5, 6\n:end", "0001 0001 0005 0006"},
		{"align", "DAT 1\n.align 4\nDAT 2", "0001 0000 0000 0000 0002"},
		{"align_aligned", "DAT 1, 2\n.align 2\nDAT 3", "0001 0002 0003"},
	}
	for _, tc := range tests {
		assembleAndMatchHex(t, tc.name, tc.src, tc.hex)
	}
}

func TestErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want error
	}{
		{"too_many_ends", ".end", assembler.ErrTooManyEnds},
		{"unterminated_if", ".if 1\nDAT 1", assembler.ErrUnterminated},
		{"unterminated_macro", ".macro m()\nDAT 1", assembler.ErrUnterminated},
		{"else_outside_if", ".else", assembler.ErrContext},
		{"elif_in_rep", ".rep 1\n.elif 1\n.end", assembler.ErrContext},
		{"unknown_instruction", "MOVE A, 1", assembler.ErrUnknownInstruction},
		{"too_many_tokens", "SET A, 1, 2", assembler.ErrTooManyTokens},
		{"missing_operand", "SET A", assembler.ErrTokenCount},
		{"if_token_count", ".if", assembler.ErrTokenCount},
		{"undefined_label", "JSR nowhere", assembler.ErrUndefinedLabel},
		{"label_redefined", ":xx\n:xx", assembler.ErrRedefined},
		{"def_redefined", ".def XV 1\n.def XV 2", assembler.ErrRedefined},
		{"label_over_constant", ".def XV 1\n:xv", assembler.ErrRedefined},
		{"not_literal", ".if later\n.end\n:later", assembler.ErrNotLiteral},
		{"user_error", ".error stop here", assembler.ErrUser},
		{"undefined_macro", "m(1)", assembler.ErrUndefinedMacro},
		{"macro_arity", ".macro m(a)\n.end\nm(1, 2)", assembler.ErrMacroSyntax},
		{"macro_syntax", ".macro m\n.end", assembler.ErrMacroSyntax},
		{"two_registers", "SET [A+B], 1", assembler.ErrRegisterForm},
		{"sp_plus", "SET [SP+1], 0", assembler.ErrRegisterForm},
		{"register_arithmetic", "SET A+1, 1", assembler.ErrOperand},
		{"label_position", "SET A, 1 here:", assembler.ErrLabel},
		{"register_label", ":A", assembler.ErrLabel},
		{"register_constant", ".def X 1", assembler.ErrLabel},
		{"register_constant_hash", "#define sp 2", assembler.ErrLabel},
		{"isdef_literal", ".if isdef(5)\n.end", assembler.ErrOperand},
		{"unknown_directive", ".frobnicate", assembler.ErrUnknownDirective},
		{"include_path", ".include main.asm", assembler.ErrIncludePath},
		{"string_flags", `DAT sk"b"`, assembler.ErrOperand},
		{"align_zero", ".align 0", assembler.ErrOperand},
	}
	for _, tc := range tests {
		_, err := assembler.New().Assemble(tc.src, tc.name+".dasm")
		if !errors.Is(err, tc.want) {
			t.Errorf("[%s] got %v, want %v", tc.name, err, tc.want)
		}
	}
}

func TestSourceError(t *testing.T) {
	src := "SET A, 1\n:main\n\nJSR missing\n"
	_, err := assembler.New().Assemble(src, "prog.dasm")
	var se *assembler.SourceError
	if !errors.As(err, &se) {
		t.Fatalf("expected a SourceError, got %v", err)
	}
	if se.File != "prog.dasm" || se.Line != 4 || se.Global != "MAIN::" {
		t.Errorf("wrong location: %+v", se)
	}
	if !strings.Contains(se.Error(), "JSR missing") {
		t.Errorf("error text lacks the line: %v", se)
	}
}

func TestParseErrorPropagates(t *testing.T) {
	_, err := assembler.New().Assemble("SET A, 1 +", "p.dasm")
	var pe *expr.ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected a parse error, got %v", err)
	}
	if !strings.Contains(err.Error(), "p.dasm:1") {
		t.Errorf("missing location: %v", err)
	}
}

func TestNotConverged(t *testing.T) {
	asm := assembler.New()
	asm.MaxPasses = 1
	_, err := asm.Assemble("JSR end\n:end", "slow.dasm")
	if !errors.Is(err, assembler.ErrNotConverged) {
		t.Errorf("got %v", err)
	}
	asm.MaxPasses = assembler.DefaultMaxPasses
	if _, err := asm.Assemble("JSR end\n:end", "slow.dasm"); err != nil {
		t.Errorf("reused assembler failed: %v", err)
	}
}

func TestListing(t *testing.T) {
	p := assembleAndMatchHex(t, "listing", ".def XV 3\nSET A, XV + 0x30\n:l\nDAT l", "7C01 0033 0002")
	lines := strings.Split(strings.TrimRight(p.Listing(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("listing has %d lines:\n%s", len(lines), p.Listing())
	}
	if !strings.HasPrefix(lines[0], " SET A, XV + 0x30 ; SET A, 51") || !strings.HasSuffix(lines[0], "    0 0000: 7C01 0033") {
		t.Errorf("line 0: %q", lines[0])
	}
	if !strings.Contains(lines[1], "; DAT 2") || !strings.HasSuffix(lines[1], "    2 0002: 0002") {
		t.Errorf("line 1: %q", lines[1])
	}
}

func TestBytes(t *testing.T) {
	p := assembleAndMatchHex(t, "bytes", "SET A, 0x30", "7C01 0030")
	b := p.Bytes()
	want := []byte{0x7C, 0x01, 0x00, 0x30}
	if string(b) != string(want) {
		t.Errorf("% X", b)
	}
}
