package composition

import (
	"errors"
	"math"
	"testing"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
)

func TestAnalyzeAllGC(t *testing.T) {
	s := Analyze(fasta.Record{Identifier: "seq1", Bases: "GGCC"}, DefaultOptions())
	if s.Length != 4 || s.CountG != 2 || s.CountC != 2 {
		t.Fatalf("unexpected counts: %+v", s)
	}
	if s.GCPercent != 100.00 {
		t.Fatalf("expected gc 100.00, got %v", s.GCPercent)
	}
	if s.ATPercent != 0 {
		t.Fatalf("expected at 0, got %v", s.ATPercent)
	}
}

func TestAnalyzeAllAT(t *testing.T) {
	s := Analyze(fasta.Record{Identifier: "sequence_1", Bases: "ATAT"}, DefaultOptions())
	if s.GCPercent != 0 || s.ATPercent != 100 {
		t.Fatalf("unexpected percentages: %+v", s)
	}
}

func TestAnalyzeCountsSumToLength(t *testing.T) {
	s := Analyze(fasta.Record{Identifier: "s", Bases: "GCATNNRY"}, DefaultOptions())
	sum := s.CountG + s.CountC + s.CountA + s.CountT + s.CountAmbiguous
	if sum != s.Length || s.Length != 8 {
		t.Fatalf("counts do not sum to length: %+v", s)
	}
	if s.CountAmbiguous != 4 {
		t.Fatalf("expected 4 ambiguous, got %d", s.CountAmbiguous)
	}
}

func TestAnalyzeAmbiguousLowersPercentages(t *testing.T) {
	// 2 of 4 bases are G/C, the other two ambiguous: GC% is 50, not 100.
	s := Analyze(fasta.Record{Identifier: "s", Bases: "GCNN"}, DefaultOptions())
	if s.GCPercent != 50 {
		t.Fatalf("expected gc 50, got %v", s.GCPercent)
	}
	if s.ATPercent != 0 {
		t.Fatalf("expected at 0, got %v", s.ATPercent)
	}
}

func TestAnalyzeRounding(t *testing.T) {
	// 1 GC base of 3: 33.333...% rounds to 33.33 at precision 2.
	s := Analyze(fasta.Record{Identifier: "s", Bases: "GAT"}, DefaultOptions())
	if s.GCPercent != 33.33 {
		t.Fatalf("expected 33.33, got %v", s.GCPercent)
	}
	if s.ATPercent != 66.67 {
		t.Fatalf("expected 66.67, got %v", s.ATPercent)
	}
	s = Analyze(fasta.Record{Identifier: "s", Bases: "GAT"}, Options{Precision: 0})
	if s.GCPercent != 33 || s.ATPercent != 67 {
		t.Fatalf("precision 0: got %v / %v", s.GCPercent, s.ATPercent)
	}
}

func TestRoundPercentHalfToEven(t *testing.T) {
	if got := RoundPercent(0.125, 2); got != 0.12 {
		t.Fatalf("expected 0.12, got %v", got)
	}
	if got := RoundPercent(0.135, 2); got != 0.14 {
		t.Fatalf("expected 0.14, got %v", got)
	}
}

func TestAnalyzeZeroLengthDefensive(t *testing.T) {
	s := Analyze(fasta.Record{Identifier: "empty"}, DefaultOptions())
	if !math.IsNaN(s.GCPercent) || !math.IsNaN(s.ATPercent) {
		t.Fatalf("expected NaN percentages for empty record: %+v", s)
	}
}

func TestAggregateOrderAndSummary(t *testing.T) {
	recs := []fasta.Record{
		{Identifier: "a", Bases: "GGCC"}, // 100
		{Identifier: "b", Bases: "ATAT"}, // 0
		{Identifier: "c", Bases: "GATC"}, // 50
	}
	table, err := Aggregate(recs, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, rec := range recs {
		if table.Rows[i].Identifier != rec.Identifier {
			t.Fatalf("row %d out of order: %q", i, table.Rows[i].Identifier)
		}
	}
	if table.Summary.MeanGC != 50 || table.Summary.MinGC != 0 || table.Summary.MaxGC != 100 {
		t.Fatalf("unexpected summary: %+v", table.Summary)
	}
}

func TestAggregateMeanOfTwo(t *testing.T) {
	recs := []fasta.Record{
		{Identifier: "x", Bases: "GGCA"}, // 75
		{Identifier: "y", Bases: "GCTA"}, // 50
	}
	table, err := Aggregate(recs, DefaultOptions())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (table.Rows[0].GCPercent + table.Rows[1].GCPercent) / 2
	if math.Abs(table.Summary.MeanGC-want) > 0.01 {
		t.Fatalf("mean %v, want %v", table.Summary.MeanGC, want)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if _, err := Aggregate(nil, DefaultOptions()); !errors.Is(err, ErrEmptyResult) {
		t.Fatalf("expected ErrEmptyResult, got %v", err)
	}
}

func TestPercentagesSumWithoutAmbiguous(t *testing.T) {
	seqs := []string{"GATTACA", "GGGCCCAT", "ACGTACGTACG", "TTTT", "G"}
	for _, seq := range seqs {
		s := Analyze(fasta.Record{Identifier: "s", Bases: seq}, DefaultOptions())
		if math.Abs(s.GCPercent+s.ATPercent-100) > 0.01 {
			t.Fatalf("%q: GC%%+AT%% = %v, want 100±0.01", seq, s.GCPercent+s.ATPercent)
		}
	}
}
