package composition

// Package composition computes per-sequence base composition (GC%, AT%,
// per-base counts) and aggregates the results into an ordered table
// with summary statistics.

import (
	"errors"
	"math"

	"github.com/montanaflynn/stats"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
)

// DefaultPrecision is the number of decimal places percentages are
// rounded to when no precision is configured.
const DefaultPrecision = 2

// Options controls analysis behavior.
type Options struct {
	// Precision is the number of decimal places for GC%/AT%. Values
	// below zero fall back to DefaultPrecision.
	Precision int
}

func (o Options) precision() int {
	if o.Precision < 0 {
		return DefaultPrecision
	}
	return o.Precision
}

// DefaultOptions returns the options used when callers pass none.
func DefaultOptions() Options {
	return Options{Precision: DefaultPrecision}
}

// Stats holds the composition of one sequence. Counts sum to Length;
// percentages are relative to Length, so a record with ambiguous bases
// cannot reach 100% GC even if every unambiguous base is G or C.
type Stats struct {
	Identifier     string  `json:"identifier"`
	Length         int     `json:"length"`
	CountG         int     `json:"count_g"`
	CountC         int     `json:"count_c"`
	CountA         int     `json:"count_a"`
	CountT         int     `json:"count_t"`
	CountAmbiguous int     `json:"count_ambiguous"`
	GCPercent      float64 `json:"gc_percent"`
	ATPercent      float64 `json:"at_percent"`
}

// Summary holds statistics computed across a table's GC percentages.
type Summary struct {
	MeanGC float64 `json:"mean_gc"`
	MinGC  float64 `json:"min_gc"`
	MaxGC  float64 `json:"max_gc"`
}

// Table is the ordered result of one analysis batch. Row order equals
// input order.
type Table struct {
	Rows    []Stats `json:"rows"`
	Summary Summary `json:"summary"`
}

// ErrEmptyResult is returned when there is nothing to analyze.
var ErrEmptyResult = errors.New("nothing to analyze")

// Analyze computes composition stats for a single record in one pass.
// The record is assumed to be validated by the parser; unknown
// characters are counted as ambiguous rather than rejected here.
func Analyze(rec fasta.Record, opts Options) Stats {
	s := Stats{Identifier: rec.Identifier}
	for _, b := range rec.Bases {
		switch b {
		case 'G':
			s.CountG++
		case 'C':
			s.CountC++
		case 'A':
			s.CountA++
		case 'T':
			s.CountT++
		default:
			s.CountAmbiguous++
		}
		s.Length++
	}
	if s.Length == 0 {
		// defensive: zero-length records are rejected upstream
		s.GCPercent = math.NaN()
		s.ATPercent = math.NaN()
		return s
	}
	p := opts.precision()
	s.GCPercent = RoundPercent(float64(s.CountG+s.CountC)/float64(s.Length)*100, p)
	s.ATPercent = RoundPercent(float64(s.CountA+s.CountT)/float64(s.Length)*100, p)
	return s
}

// Aggregate analyzes every record in order and computes the summary in
// a single pass over the finished rows.
func Aggregate(recs []fasta.Record, opts Options) (*Table, error) {
	if len(recs) == 0 {
		return nil, ErrEmptyResult
	}
	t := &Table{Rows: make([]Stats, 0, len(recs))}
	gc := make([]float64, 0, len(recs))
	for _, rec := range recs {
		row := Analyze(rec, opts)
		t.Rows = append(t.Rows, row)
		gc = append(gc, row.GCPercent)
	}

	p := opts.precision()
	mean, err := stats.Mean(gc)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(gc)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(gc)
	if err != nil {
		return nil, err
	}
	t.Summary = Summary{
		MeanGC: RoundPercent(mean, p),
		MinGC:  min,
		MaxGC:  max,
	}
	return t, nil
}

// RoundPercent rounds v to the given number of decimal places using
// round-half-to-even, so repeated runs on identical input produce
// identical output.
func RoundPercent(v float64, precision int) float64 {
	if math.IsNaN(v) {
		return v
	}
	shift := math.Pow(10, float64(precision))
	return math.RoundToEven(v*shift) / shift
}
