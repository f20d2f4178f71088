// Copyright 2024, Jason S. McMullan <jason.mcmullan@gmail.com>

package cpu

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"
	"log"
	"maps"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/tinyvm/internal"
)

// Assembler passes.
const (
	PASS_ADDRESS = 1 // Compute label addresses, emit nothing.
	PASS_EMIT    = 2 // Emit bytes, resolving labels.
)

// Predefined system equates
var sysEquate = map[string]string{
	"ORIGIN":      fmt.Sprintf("%#x", DEFAULT_ORIGIN),
	"MEMORY_SIZE": fmt.Sprintf("%#x", MEMORY_SIZE),
	"SYS_NOP":     fmt.Sprintf("%#x", SYS_NOP),
	"SYS_WAIT":    fmt.Sprintf("%#x", SYS_WAIT),
	"SYS_PRINTB":  fmt.Sprintf("%#x", SYS_PRINTB),
	"SYS_PRINTC":  fmt.Sprintf("%#x", SYS_PRINTC),
	"SYS_EXIT":    fmt.Sprintf("%#x", SYS_EXIT),
	"INT_PUTC":    fmt.Sprintf("%#x", INT_PUTC),
	"INT_PRINTB":  fmt.Sprintf("%#x", INT_PRINTB),
	"INT_WAIT":    fmt.Sprintf("%#x", INT_WAIT),
	"INT_RESET":   fmt.Sprintf("%#x", INT_RESET),
}

// Assembler is a two pass assembler for the tinyvm instruction set.
//
// The first pass walks the source advancing an address cursor to find the
// address of every label. The second pass walks the same source again and
// emits bytes into a new, zero-filled Memory.
//
// Problems are collected as Diagnostics and never stop assembly; a line
// that cannot be encoded contributes zero bytes in place of its bad
// operands so that addresses never drift between the passes.
type Assembler struct {
	Verbose bool   // If set, verbosely logs the assembler actions.
	Origin  uint16 // Address at which both passes start.

	Symbols     map[string]uint16 // Map of labels to addresses, built by the first pass.
	Equate      map[string]string // Map of equates.
	Diagnostics []ErrSyntax       // Warnings and errors of the last run.

	predefine map[string]string
	mem       *Memory
	pass      int
	cursor    uint16
	lineno    int
	line      string
	emitted   []byte
	low, high int
	listing   []Line
	origins   map[int]uint16 // Cursor after each .org line, by line number, from the first pass.
}

// NewAssembler returns an assembler starting at DEFAULT_ORIGIN.
func NewAssembler() *Assembler {
	return &Assembler{Origin: DEFAULT_ORIGIN}
}

// Predefine defines a new equate or redefines an existing one, for all
// following runs.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// Defines returns the predefined equates.
func (asm *Assembler) Defines() map[string]string {
	return maps.Collect(internal.Concat2(maps.All(sysEquate), maps.All(asm.predefine)))
}

// Parse reads source lines from input and assembles them.
func (asm *Assembler) Parse(input io.Reader) (img *Image, err error) {
	var lines []string

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	err = scanner.Err()
	if err != nil {
		return
	}

	return asm.Assemble(lines)
}

// Assemble runs the address pass, then the emit pass, over lines.
//
// The returned image owns a new Memory. The error joins every error
// severity diagnostic; the image is complete even when it is not nil.
func (asm *Assembler) Assemble(lines []string) (img *Image, err error) {
	asm.Diagnostics = nil
	asm.mem = &Memory{}
	defer func() { asm.mem = nil }()

	asm.runPass(PASS_ADDRESS, lines)
	if asm.Verbose {
		for label, addr := range asm.Labels() {
			log.Printf("asm: %v = 0x%04x", label, addr)
		}
	}

	asm.runPass(PASS_EMIT, lines)

	img = &Image{
		Memory:  asm.mem,
		Origin:  asm.Origin,
		End:     int(asm.Origin),
		Symbols: maps.Clone(asm.Symbols),
		Listing: asm.listing,
	}
	if asm.high > asm.low {
		img.Origin = uint16(asm.low)
		img.End = asm.high
	}

	var errs []error
	for _, diag := range asm.Diagnostics {
		if diag.Severity == SEVERITY_ERROR {
			errs = append(errs, diag)
		}
	}
	err = errors.Join(errs...)

	return
}

// Labels returns the symbol table ordered by address.
func (asm *Assembler) Labels() iter.Seq2[string, uint16] {
	return internal.SortedByValue(asm.Symbols)
}

// runPass resets the cursor and the equates, then processes every line.
func (asm *Assembler) runPass(pass int, lines []string) {
	asm.pass = pass
	asm.cursor = asm.Origin
	asm.Equate = asm.Defines()
	asm.Equate["ORIGIN"] = fmt.Sprintf("%#x", asm.Origin)

	switch pass {
	case PASS_ADDRESS:
		asm.Symbols = make(map[string]uint16, 16)
		asm.origins = make(map[int]uint16)
	case PASS_EMIT:
		asm.listing = nil
		asm.low = MEMORY_SIZE
		asm.high = 0
	}

	for n, line := range lines {
		asm.lineno = n + 1
		asm.line = line
		asm.emitted = nil
		start := asm.cursor

		words := asm.parseLine(line)

		if pass == PASS_EMIT && len(asm.emitted) > 0 {
			asm.listing = append(asm.listing, Line{
				LineNo:  asm.lineno,
				Address: start,
				Words:   words,
				Bytes:   asm.emitted,
			})
		}
	}
}

// report records a diagnostic raised during pass.
// Problems that both passes find are reported by PASS_EMIT only.
func (asm *Assembler) report(pass int, severity Severity, err error) {
	if asm.pass != pass {
		return
	}

	diag := ErrSyntax{LineNo: asm.lineno, Line: asm.line, Severity: severity, Err: err}
	asm.Diagnostics = append(asm.Diagnostics, diag)
	if asm.Verbose {
		log.Printf("asm: %v", diag)
	}
}

// stripComment removes ';' and '//' comments, then surrounding whitespace.
func stripComment(line string) string {
	if n := strings.Index(line, ";"); n >= 0 {
		line = line[:n]
	}
	if n := strings.Index(line, "//"); n >= 0 {
		line = line[:n]
	}
	return strings.TrimSpace(line)
}

// splitLabel splits "label: rest" at the first colon.
func splitLabel(line string) (label string, rest string, ok bool) {
	label, rest, ok = strings.Cut(line, ":")
	if !ok {
		return "", line, false
	}
	return strings.TrimSpace(label), stripComment(rest), true
}

var (
	reCharacter  = regexp.MustCompile(`'\\?[^']'`)
	reExpression = regexp.MustCompile(`\$\([^\$]*\)`)
)

// parseLine processes one source line in the current pass, and returns the
// words of the statement it held.
func (asm *Assembler) parseLine(line string) (words []string) {
	text := stripComment(expandCharacters(line))
	if len(text) == 0 {
		return
	}

	label, text, ok := splitLabel(text)
	if ok {
		asm.defineLabel(label)
		if len(text) == 0 {
			return
		}
	}

	if asm.pass == PASS_EMIT && asm.Verbose {
		log.Printf("%v: %04x %v", asm.lineno, asm.cursor, text)
	}

	text = asm.expandExpressions(text)

	words = strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})
	if len(words) == 0 {
		return
	}

	for n, word := range words {
		if n == 1 && strings.EqualFold(words[0], ".equ") {
			// Never substitute the name being defined.
			continue
		}
		equate, ok := asm.Equate[word]
		if ok {
			words[n] = equate
		}
	}

	switch strings.ToLower(words[0]) {
	case ".equ":
		asm.directiveEquate(words)
	case ".org":
		asm.directiveOrigin(words)
	case ".db":
		asm.directiveData(words)
	default:
		asm.instruction(words)
	}

	return
}

// defineLabel records the cursor for label during the address pass.
func (asm *Assembler) defineLabel(label string) {
	if asm.pass != PASS_ADDRESS {
		return
	}

	if len(label) == 0 || strings.ContainsAny(label, " \t") {
		asm.report(PASS_ADDRESS, SEVERITY_ERROR, ErrLabelInvalid)
		return
	}

	if _, ok := asm.Symbols[label]; ok {
		asm.report(PASS_ADDRESS, SEVERITY_WARNING, ErrLabelDuplicate)
	}
	asm.Symbols[label] = asm.cursor
}

// expandCharacters replaces 'x' character literals by their decimal values.
func expandCharacters(text string) string {
	return reCharacter.ReplaceAllStringFunc(text, func(word string) string {
		str := word[1 : len(word)-1]
		if str[0] == '\\' {
			switch str[1:] {
			case "\\":
				str = "\\"
			case "n":
				str = "\n"
			case "r":
				str = "\r"
			case "t":
				str = "\t"
			case "0":
				str = "\000"
			case "e":
				str = "\033"
			default:
				return word
			}
		} else if len(str) != 1 {
			return word
		}
		return fmt.Sprintf("%v", str[0])
	})
}

// expandExpressions replaces $(...) expressions by their values.
func (asm *Assembler) expandExpressions(text string) string {
	return reExpression.ReplaceAllStringFunc(text, func(str string) string {
		value, err := asm.parenEval(str[2 : len(str)-1])
		if err != nil {
			asm.report(PASS_EMIT, SEVERITY_ERROR, err)
			return "0"
		}
		return fmt.Sprintf("%#x", value)
	})
}

// parenEval does compile-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value uint16, err error) {
	thread := starlark.Thread{Name: "asm"}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for label, addr := range asm.Symbols {
		pred[label] = starlark.MakeInt(int(addr))
	}
	for key, str := range asm.Equate {
		var v uint64
		v, err = strconv.ParseUint(str, 0, 64)
		if err != nil {
			// Ignore non-integer equates. They may be registers
			// or something else.
			err = nil
			continue
		}
		pred[key] = starlark.MakeUint64(v)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := dict["rc"].(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = uint16(st_int64)
	return
}

// directiveEquate handles ".equ NAME VALUE".
func (asm *Assembler) directiveEquate(words []string) {
	if len(words) != 3 {
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrEquateSyntax)
		return
	}
	_, ok := asm.Equate[words[1]]
	if ok {
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrEquateDuplicate)
		return
	}
	asm.Equate[words[1]] = words[2]
}

// directiveOrigin handles ".org ADDR"; the address is hexadecimal.
func (asm *Assembler) directiveOrigin(words []string) {
	defer asm.checkOrigin()

	if len(words) != 2 {
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrOriginSyntax)
		return
	}

	addr, err := parseHex(words[1], 16)
	if err != nil {
		asm.report(PASS_EMIT, SEVERITY_ERROR, errors.Join(ErrOriginSyntax, err))
		return
	}
	asm.cursor = uint16(addr)
}

// checkOrigin keeps the cursor after an origin directive identical in both
// passes. A value that moved, such as an expression over a label defined
// later, is an error, and the first pass address is kept.
func (asm *Assembler) checkOrigin() {
	switch asm.pass {
	case PASS_ADDRESS:
		asm.origins[asm.lineno] = asm.cursor
	case PASS_EMIT:
		addr, ok := asm.origins[asm.lineno]
		if ok && addr != asm.cursor {
			asm.report(PASS_EMIT, SEVERITY_ERROR, ErrOriginMoved{Address: addr, Moved: asm.cursor})
			asm.cursor = addr
		}
	}
}

// directiveData handles ".db BYTE[,BYTE...]".
func (asm *Assembler) directiveData(words []string) {
	if len(words) < 2 {
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrDataSyntax)
		return
	}

	for _, word := range words[1:] {
		if asm.pass == PASS_ADDRESS {
			asm.cursor++
			continue
		}
		value, err := parseImmediate(word, 8)
		if err != nil {
			asm.report(PASS_EMIT, SEVERITY_ERROR, errors.Join(ErrDataSyntax, err))
		}
		asm.emit(uint8(value))
	}
}

// instruction sizes or encodes one instruction.
func (asm *Assembler) instruction(words []string) {
	ins, ok := Lookup(words[0])
	if !ok {
		asm.report(PASS_ADDRESS, SEVERITY_WARNING, ErrInstructionSize)
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrInstructionInvalid)
		// Skipping a byte keeps both passes aligned.
		asm.cursor++
		return
	}

	if asm.pass == PASS_ADDRESS {
		asm.cursor += uint16(ins.Length())
		return
	}

	asm.emit(uint8(ins.Op))

	operands := words[1:]
	for n, od := range ins.Shape.Operands() {
		if n >= len(operands) {
			asm.report(PASS_EMIT, SEVERITY_ERROR, ErrOperandMissing)
			for range od.Width() {
				asm.emit(0)
			}
			continue
		}
		asm.operand(od, operands[n])
	}

	if len(operands) > len(ins.Shape.Operands()) {
		asm.report(PASS_EMIT, SEVERITY_ERROR, ErrOperandExtra)
	}
}

// operand encodes one operand word.
func (asm *Assembler) operand(od Operand, word string) {
	var value uint64
	var err error

	switch od {
	case OPERAND_REG:
		if len(word) != 1 || !strings.Contains("abc", word) {
			asm.report(PASS_EMIT, SEVERITY_ERROR, errors.Join(ErrRegisterInvalid, ErrRegister(word[0])))
		}
		asm.emit(word[0])
		return
	case OPERAND_TARGET:
		value, err = asm.target(word)
	case OPERAND_ADDR:
		value, err = asm.address(word)
	case OPERAND_IMM16:
		value, err = parseImmediate(word, 16)
	case OPERAND_IMM8:
		value, err = parseImmediate(word, 8)
	case OPERAND_HEX8:
		value, err = parseHex(word, 8)
	}

	if err != nil {
		asm.report(PASS_EMIT, SEVERITY_ERROR, err)
		value = 0
	}

	if od.Width() == 2 {
		asm.emit(uint8(value >> 8))
	}
	asm.emit(uint8(value))
}

// target resolves a jump or call target: a 0x literal, or a label.
func (asm *Assembler) target(word string) (value uint64, err error) {
	if hasHexPrefix(word) {
		return parseHex(word, 16)
	}

	addr, ok := asm.Symbols[word]
	if !ok {
		err = ErrLabelMissing(word)
		return
	}
	return uint64(addr), nil
}

// address resolves a memory operand: a 0x literal, a label, or bare hex.
func (asm *Assembler) address(word string) (value uint64, err error) {
	if hasHexPrefix(word) {
		return parseHex(word, 16)
	}

	addr, ok := asm.Symbols[word]
	if ok {
		return uint64(addr), nil
	}

	value, err = parseHex(word, 16)
	if err != nil {
		err = ErrLabelMissing(word)
	}
	return
}

// emit writes one byte at the cursor and advances it.
func (asm *Assembler) emit(value uint8) {
	addr := asm.cursor
	asm.mem[addr] = value
	asm.emitted = append(asm.emitted, value)
	asm.cursor++

	asm.low = min(asm.low, int(addr))
	asm.high = max(asm.high, int(addr)+1)
}

func hasHexPrefix(word string) bool {
	return strings.HasPrefix(word, "0x") || strings.HasPrefix(word, "0X")
}

// parseHex parses a hexadecimal word, with or without 0x.
func parseHex(word string, bits int) (value uint64, err error) {
	digits := word
	if hasHexPrefix(word) {
		digits = word[2:]
	}
	value, err = strconv.ParseUint(digits, 16, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			err = ErrValueRange{Word: word, Bits: bits}
		} else {
			err = ErrParseNumber(word)
		}
	}
	return
}

// parseImmediate parses a decimal word, or hexadecimal with 0x. Negative
// decimals are stored in two's complement.
func parseImmediate(word string, bits int) (value uint64, err error) {
	if hasHexPrefix(word) {
		return parseHex(word, bits)
	}

	if strings.HasPrefix(word, "-") {
		var v int64
		v, err = strconv.ParseInt(word, 10, bits)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				err = ErrValueRange{Word: word, Bits: bits}
			} else {
				err = ErrParseNumber(word)
			}
			return
		}
		value = uint64(v) & (1<<bits - 1)
		return
	}

	value, err = strconv.ParseUint(word, 10, bits)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			err = ErrValueRange{Word: word, Bits: bits}
		} else {
			err = ErrParseNumber(word)
		}
	}
	return
}

// Mnemonics returns every mnemonic of the instruction set, sorted.
func Mnemonics() []string {
	return slices.Sorted(maps.Keys(byMnemonic))
}
