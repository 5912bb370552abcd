package sampling

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// CVSpec is a parsed "cv" directive.
type CVSpec struct {
	Type   string `json:"type"`
	Group1 []int  `json:"group1"`
	Group2 []int  `json:"group2"`
}

// Settings selects the sampling method and collective variables.
//
// The file is line oriented and case-folded. Blank lines and lines starting
// with '#' are skipped. Recognised directives:
//
//	method <name>               exactly once
//	method_args <key> <value>   one pair per line, keys unique
//	cv distance <g1> <g2>       groups as [0,1,2] or 0,1,2
//
// Any other line is rejected with ErrUnrecognizedDirective.
type Settings struct {
	Method     string            `json:"method"`
	MethodArgs map[string]string `json:"method_args"`
	CVs        []CVSpec          `json:"cvs"`
}

func LoadSettings(path string) (*Settings, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseSettings(f)
}

func ParseSettings(r io.Reader) (*Settings, error) {
	s := &Settings{MethodArgs: map[string]string{}}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Text()
		line := strings.ToLower(strings.TrimSpace(raw))
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if err := s.apply(strings.Fields(line)); err != nil {
			return nil, &SettingsError{Line: lineNo, Text: raw, Err: err}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	if s.Method == "" {
		return nil, ErrMissingMethod
	}
	return s, nil
}

func (s *Settings) apply(fields []string) error {
	switch fields[0] {
	case "method":
		if len(fields) != 2 {
			return fmt.Errorf("%w: want \"method <name>\"", ErrMalformedDirective)
		}
		if s.Method != "" {
			return fmt.Errorf("%w: method already set to %q", ErrDuplicateDirective, s.Method)
		}
		s.Method = fields[1]

	case "method_args":
		if len(fields) != 3 {
			return fmt.Errorf("%w: want \"method_args <key> <value>\"", ErrMalformedDirective)
		}
		key, value := fields[1], fields[2]
		if _, ok := s.MethodArgs[key]; ok {
			return fmt.Errorf("%w: method_args %q", ErrDuplicateDirective, key)
		}
		s.MethodArgs[key] = value

	case "cv":
		return s.applyCV(fields[1:])

	default:
		return fmt.Errorf("%w: %q", ErrUnrecognizedDirective, fields[0])
	}
	return nil
}

func (s *Settings) applyCV(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: cv without type", ErrMalformedDirective)
	}
	switch args[0] {
	case "distance":
		if len(args) != 3 {
			return fmt.Errorf("%w: want \"cv distance <group1> <group2>\"", ErrMalformedDirective)
		}
		g1, err := parseGroup(args[1])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDirective, err)
		}
		g2, err := parseGroup(args[2])
		if err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedDirective, err)
		}
		s.CVs = append(s.CVs, CVSpec{Type: "distance", Group1: g1, Group2: g2})
	default:
		return fmt.Errorf("%w: cv type %q", ErrUnrecognizedDirective, args[0])
	}
	return nil
}

// Build instantiates the method and collective variables.
func (s *Settings) Build() (Method, []CV, error) {
	method, err := NewMethod(s.Method, s.MethodArgs)
	if err != nil {
		return nil, nil, err
	}

	cvs := make([]CV, 0, len(s.CVs))
	for _, cs := range s.CVs {
		switch cs.Type {
		case "distance":
			cv, err := NewDistance(cs.Group1, cs.Group2)
			if err != nil {
				return nil, nil, err
			}
			cvs = append(cvs, cv)
		default:
			return nil, nil, fmt.Errorf("%w: cv type %q", ErrUnrecognizedDirective, cs.Type)
		}
	}
	return method, cvs, nil
}

// Validate checks every CV index against a system of n particles.
func (s *Settings) Validate(n int) error {
	for _, cs := range s.CVs {
		for _, g := range [][]int{cs.Group1, cs.Group2} {
			for _, i := range g {
				if i >= n {
					return fmt.Errorf("%w: cv %s uses particle %d, system has %d", ErrCVIndex, cs.Type, i, n)
				}
			}
		}
	}
	return nil
}
