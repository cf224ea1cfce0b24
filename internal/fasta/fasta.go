package fasta

// Package fasta parses FASTA formatted or plain sequence text into
// validated records. It intentionally keeps parsing simple and
// conservative: one pass, input order preserved, whole-batch failure on
// the first invalid record.

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
)

// Mode selects how raw input is interpreted.
type Mode int

const (
	// ModeAuto inspects the first non-whitespace character: '>' selects
	// FASTA, anything else plain text.
	ModeAuto Mode = iota
	ModeFasta
	ModePlain
)

func (m Mode) String() string {
	switch m {
	case ModeAuto:
		return "auto"
	case ModeFasta:
		return "fasta"
	case ModePlain:
		return "plain"
	default:
		return "unknown"
	}
}

// ParseMode converts a user-supplied mode name to a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "fasta":
		return ModeFasta, nil
	case "plain":
		return ModePlain, nil
	default:
		return ModeAuto, fmt.Errorf("unknown parse mode %q", s)
	}
}

// AmbiguityPolicy decides what happens when a base is an IUPAC
// ambiguity code rather than A, C, G or T.
type AmbiguityPolicy int

const (
	// AmbiguityCount tolerates ambiguity codes; they stay in the
	// sequence and are counted separately downstream.
	AmbiguityCount AmbiguityPolicy = iota
	// AmbiguityReject fails validation on any ambiguity code.
	AmbiguityReject
)

// ParseAmbiguityPolicy converts a config value ("count"/"strict") to a policy.
func ParseAmbiguityPolicy(s string) (AmbiguityPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "count", "tolerate":
		return AmbiguityCount, nil
	case "strict", "reject":
		return AmbiguityReject, nil
	default:
		return AmbiguityCount, fmt.Errorf("unknown ambiguity policy %q", s)
	}
}

// Options controls parsing behavior.
type Options struct {
	Ambiguity AmbiguityPolicy
}

// Record represents a single validated sequence (header and bases).
// Bases are uppercase and restricted to the IUPAC nucleotide alphabet.
type Record struct {
	Identifier string `json:"identifier"`
	Bases      string `json:"bases"`
}

var (
	// ErrEmptyInput is returned when the raw input is blank after trimming.
	ErrEmptyInput = errors.New("empty input")
	// ErrMalformedFasta is returned when a FASTA block has no sequence lines.
	ErrMalformedFasta = errors.New("malformed fasta")
)

// InvalidCharError reports a character outside the accepted alphabet,
// with its 0-based position within the record.
type InvalidCharError struct {
	Identifier string
	Char       rune
	Position   int
}

func (e *InvalidCharError) Error() string {
	return fmt.Sprintf("invalid character %q at position %d in %q", e.Char, e.Position, e.Identifier)
}

// IsCanonical reports whether b is one of the four unambiguous bases.
func IsCanonical(b rune) bool {
	switch b {
	case 'A', 'C', 'G', 'T':
		return true
	}
	return false
}

// IsAmbiguous reports whether b is an IUPAC ambiguity code.
func IsAmbiguous(b rune) bool {
	switch b {
	case 'N', 'R', 'Y', 'S', 'W', 'K', 'M', 'B', 'D', 'H', 'V':
		return true
	}
	return false
}

// Parse converts raw pasted or uploaded text into records. Records come
// back in input order; same-named records are not merged.
func Parse(raw string, mode Mode, opts Options) ([]Record, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, ErrEmptyInput
	}

	if mode == ModeAuto {
		if trimmed[0] == '>' {
			mode = ModeFasta
		} else {
			mode = ModePlain
		}
	}

	var records []Record
	var err error
	switch mode {
	case ModeFasta:
		records, err = parseFasta(trimmed)
	case ModePlain:
		records, err = parsePlain(trimmed)
	default:
		return nil, fmt.Errorf("unsupported parse mode %d", mode)
	}
	if err != nil {
		return nil, err
	}

	for i := range records {
		normalized, err := normalize(records[i].Identifier, records[i].Bases, opts)
		if err != nil {
			return nil, err
		}
		records[i].Bases = normalized
	}
	return records, nil
}

// parseFasta splits '>'-delimited blocks. The remainder of the header
// line (trimmed) is the identifier; sequence lines are concatenated
// with whitespace stripped.
func parseFasta(raw string) ([]Record, error) {
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var records []Record
	var header string
	var seq strings.Builder
	inRecord := false

	flush := func() error {
		if !inRecord {
			return nil
		}
		if seq.Len() == 0 {
			return fmt.Errorf("%w: record %q has no sequence", ErrMalformedFasta, header)
		}
		records = append(records, Record{Identifier: header, Bases: seq.String()})
		seq.Reset()
		return nil
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(); err != nil {
				return nil, err
			}
			header = strings.TrimSpace(line[1:])
			inRecord = true
			continue
		}
		if !inRecord {
			return nil, fmt.Errorf("%w: sequence data before first header", ErrMalformedFasta)
		}
		seq.WriteString(stripSpaces(line))
	}
	if err := flush(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records found", ErrMalformedFasta)
	}
	return records, nil
}

// parsePlain treats each non-blank line as one sequence. Commas split
// additional sequences within a line, matching how pasted plain input
// is commonly delimited. Identifiers are generated as sequence_<n>.
func parsePlain(raw string) ([]Record, error) {
	var records []Record
	n := 0
	scanner := bufio.NewScanner(strings.NewReader(raw))
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		for _, part := range strings.Split(line, ",") {
			part = stripSpaces(part)
			if part == "" {
				continue
			}
			n++
			records = append(records, Record{
				Identifier: fmt.Sprintf("sequence_%d", n),
				Bases:      part,
			})
		}
	}
	if len(records) == 0 {
		return nil, ErrEmptyInput
	}
	return records, nil
}

// normalize uppercases bases and validates every character against the
// IUPAC alphabet, honoring the ambiguity policy.
func normalize(identifier, bases string, opts Options) (string, error) {
	upper := strings.ToUpper(bases)
	for i, b := range upper {
		if IsCanonical(b) {
			continue
		}
		if IsAmbiguous(b) && opts.Ambiguity == AmbiguityCount {
			continue
		}
		return "", &InvalidCharError{Identifier: identifier, Char: b, Position: i}
	}
	return upper, nil
}

func stripSpaces(s string) string {
	return strings.Join(strings.Fields(s), "")
}
