package config

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	fixedIndicator   = "fixed"
	commentChar      = "#"
	xCoordToken      = "X0"
	yCoordToken      = "Y0"
	functionToken    = "FUNCTION"
	maxLineLength    = 1024 * 1024
	initialLineBytes = 64 * 1024
)

// line is a non-empty, comment-stripped input line
type line struct {
	text   string
	num    int // original 1-based line number
	fields []string
}

func (l line) firstToken() string {
	if len(l.fields) == 0 {
		return ""
	}
	return l.fields[0]
}

// Parse reads a configuration including parameter limits.
// Every parameter gets a ParameterBound; LimitsFound reports whether any
// "fixed" or "lower,upper" spec was present.
func Parse(r io.Reader, opts ParseOptions) (*ParsedModelSpec, error) {
	p := &parser{opts: opts, withLimits: true}
	return p.run(r)
}

// ParseValues reads a configuration ignoring parameter limits.
// The returned spec has nil Bounds.
func ParseValues(r io.Reader, opts ParseOptions) (*ParsedModelSpec, error) {
	p := &parser{opts: opts}
	return p.run(r)
}

// ParseFile is Parse on a named file
func ParseFile(path string, opts ParseOptions) (*ParsedModelSpec, error) {
	return parseFile(path, opts, Parse)
}

// ParseValuesFile is ParseValues on a named file
func ParseValuesFile(path string, opts ParseOptions) (*ParsedModelSpec, error) {
	return parseFile(path, opts, ParseValues)
}

func parseFile(path string, opts ParseOptions, parse func(io.Reader, ParseOptions) (*ParsedModelSpec, error)) (*ParsedModelSpec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	spec, err := parse(f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

type parser struct {
	opts       ParseOptions
	withLimits bool
	spec       *ParsedModelSpec

	// index into spec.Functions of the function receiving parameter lines,
	// -1 while inside a coordinate declaration
	current int
}

func (p *parser) run(r io.Reader) (*ParsedModelSpec, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}

	start, err := vet(lines, p.opts.Mode2D)
	if err != nil {
		return nil, err
	}

	p.spec = &ParsedModelSpec{
		Options:    parseOptionSection(lines[:start]),
		Parameters: []float64{},
		SetStarts:  []int{},
	}
	if p.withLimits {
		p.spec.Bounds = []ParameterBound{}
	}
	p.current = -1

	if err := p.parseFunctionSection(lines[start:]); err != nil {
		return nil, err
	}

	slog.Debug("Parsed configuration",
		"options", len(p.spec.Options),
		"functions", len(p.spec.Functions),
		"sets", len(p.spec.SetStarts),
		"parameters", len(p.spec.Parameters),
		"limits_found", p.spec.LimitsFound,
	)
	return p.spec, nil
}

// readLines strips comments and whitespace and drops empty lines,
// remembering the original line numbers.
func readLines(r io.Reader) ([]line, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, initialLineBytes), maxLineLength)

	var lines []line
	num := 0
	for scanner.Scan() {
		num++
		text := scanner.Text()
		if i := strings.Index(text, commentChar); i >= 0 {
			text = text[:i]
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		lines = append(lines, line{text: text, num: num, fields: strings.Fields(text)})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return lines, nil
}

// vet locates the function section and checks that it is usable.
// It returns the index of the first X0 line.
func vet(lines []line, mode2D bool) (int, error) {
	start := -1
	for i, l := range lines {
		if l.firstToken() == xCoordToken {
			start = i
			break
		}
	}
	if start < 0 {
		return -1, ErrNoFunctionSection
	}

	if mode2D && !followedByY0(lines, start) {
		return -1, &LineError{Line: lines[start].num, Err: ErrIncompleteXY}
	}

	for _, l := range lines[start:] {
		if l.firstToken() == functionToken {
			return start, nil
		}
	}
	return -1, ErrNoFunctions
}

func followedByY0(lines []line, i int) bool {
	return i+1 < len(lines) && lines[i+1].firstToken() == yCoordToken
}

// parseOptionSection collects KEYWORD value pairs.
// Lines without exactly two tokens are skipped.
func parseOptionSection(lines []line) []GlobalOption {
	options := make([]GlobalOption, 0, len(lines))
	for _, l := range lines {
		if len(l.fields) != 2 {
			slog.Warn("Ignoring malformed option line", "line", l.num, "text", l.text)
			continue
		}
		options = append(options, GlobalOption{Name: l.fields[0], Value: l.fields[1], Line: l.num})
	}
	return options
}

func (p *parser) parseFunctionSection(lines []line) error {
	for i := 0; i < len(lines); i++ {
		l := lines[i]

		switch l.firstToken() {
		case xCoordToken:
			p.spec.SetStarts = append(p.spec.SetStarts, len(p.spec.Functions))
			p.current = -1
			if err := p.addParameter(l); err != nil {
				return err
			}
			if !p.opts.Mode2D {
				continue
			}
			if !followedByY0(lines, i) {
				return &LineError{Line: l.num, Err: ErrIncompleteXY}
			}
			i++
			if err := p.addParameter(lines[i]); err != nil {
				return err
			}

		case functionToken:
			if len(l.fields) < 2 {
				return &LineError{Line: l.num, Err: ErrMalformedLine, Msg: "FUNCTION line has no function name"}
			}
			p.spec.Functions = append(p.spec.Functions, ParsedFunction{
				Name:        l.fields[1],
				Line:        l.num,
				ParamOffset: len(p.spec.Parameters),
			})
			p.current = len(p.spec.Functions) - 1

		default:
			if err := p.addParameter(l); err != nil {
				return err
			}
			if p.current >= 0 {
				p.spec.Functions[p.current].NParams++
			}
		}
	}
	return nil
}

// addParameter handles a "<name> <value> [<limit-spec>]" line
func (p *parser) addParameter(l line) error {
	if len(l.fields) < 2 {
		return &LineError{Line: l.num, Token: l.text, Err: ErrMalformedLine, Msg: "expected <name> <value> [limits]"}
	}
	name := l.fields[0]

	value, err := p.parseNumber(l, name, l.fields[1], ErrInvalidNumber)
	if err != nil {
		return err
	}
	p.spec.Parameters = append(p.spec.Parameters, value)

	if !p.withLimits {
		return nil
	}

	bound := FreeBound()
	if len(l.fields) > 2 {
		p.spec.LimitsFound = true
		bound, err = p.parseLimit(l, name, value, l.fields[2])
		if err != nil {
			return err
		}
	}
	p.spec.Bounds = append(p.spec.Bounds, bound)
	return nil
}

func (p *parser) parseLimit(l line, name string, value float64, token string) (ParameterBound, error) {
	if token == fixedIndicator {
		return FixedBound(), nil
	}

	pieces := strings.Split(token, ",")
	if len(pieces) != 2 {
		return ParameterBound{}, &LineError{
			Line: l.num, Param: name, Token: token, Err: ErrInvalidLimit,
			Msg: "expected \"fixed\" or \"lower,upper\"",
		}
	}

	lower, err := p.parseNumber(l, name, pieces[0], ErrInvalidLimit)
	if err != nil {
		return ParameterBound{}, err
	}
	upper, err := p.parseNumber(l, name, pieces[1], ErrInvalidLimit)
	if err != nil {
		return ParameterBound{}, err
	}

	if lower > upper {
		return ParameterBound{}, &LineError{
			Line: l.num, Param: name, Token: token, Err: ErrInvalidLimit,
			Msg: fmt.Sprintf("lower limit (%g) must be <= upper limit (%g)", lower, upper),
		}
	}
	if value < lower || value > upper {
		return ParameterBound{}, &LineError{
			Line: l.num, Param: name, Token: token, Err: ErrInvalidLimit,
			Msg: fmt.Sprintf("initial value (%g) must lie between the limits (%g,%g)", value, lower, upper),
		}
	}
	return LimitedBound(lower, upper), nil
}

// parseNumber parses a finite number. NaN and infinities are rejected with
// nonFinite even in lenient mode.
func (p *parser) parseNumber(l line, name, token string, nonFinite error) (float64, error) {
	v, err := strconv.ParseFloat(token, 64)
	if err == nil {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, &LineError{Line: l.num, Param: name, Token: token, Err: nonFinite, Msg: "value must be finite"}
		}
		return v, nil
	}
	if p.opts.Lenient {
		slog.Warn("Malformed number treated as zero", "line", l.num, "parameter", name, "token", token)
		return 0, nil
	}
	return 0, &LineError{Line: l.num, Param: name, Token: token, Err: ErrInvalidNumber}
}
