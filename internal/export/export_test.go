package export

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/fasta"
)

func sampleTable(t *testing.T) *composition.Table {
	t.Helper()
	recs := []fasta.Record{
		{Identifier: "seq1", Bases: "GGCC"},
		{Identifier: "seq2", Bases: "GATNNC"},
		{Identifier: "seq3", Bases: "ATAT"},
	}
	table, err := composition.Aggregate(recs, composition.DefaultOptions())
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	return table
}

func TestEncodeCSVHeaderAndRows(t *testing.T) {
	data, err := EncodeCSV(sampleTable(t))
	if err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d lines", len(lines))
	}
	wantHeader := "identifier,length,count_g,count_c,count_a,count_t,count_ambiguous,gc_percent,at_percent"
	if lines[0] != wantHeader {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "seq1,4,2,2,0,0,0,100.00,0.00" {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.HasSuffix(string(data), "\n") || strings.HasSuffix(string(data), "\n\n") {
		t.Fatalf("rows must be newline-terminated with no trailing blank line")
	}
}

func TestEncodeCSVDeterministic(t *testing.T) {
	table := sampleTable(t)
	a, err := EncodeCSV(table)
	if err != nil {
		t.Fatalf("first encode failed: %v", err)
	}
	b, err := EncodeCSV(table)
	if err != nil {
		t.Fatalf("second encode failed: %v", err)
	}
	if !bytes.Equal(a, b) {
		t.Fatalf("CSV encoding is not byte-identical across runs")
	}
}

func TestCSVRoundTrip(t *testing.T) {
	table := sampleTable(t)
	data, err := EncodeCSV(table)
	if err != nil {
		t.Fatalf("EncodeCSV failed: %v", err)
	}
	rows, err := DecodeCSV(data)
	if err != nil {
		t.Fatalf("DecodeCSV failed: %v", err)
	}
	if len(rows) != len(table.Rows) {
		t.Fatalf("row count changed: %d != %d", len(rows), len(table.Rows))
	}
	for i, row := range rows {
		orig := table.Rows[i]
		if row.Identifier != orig.Identifier {
			t.Fatalf("row %d identifier %q != %q", i, row.Identifier, orig.Identifier)
		}
		if math.Abs(float64(row.GCPercent)-orig.GCPercent) > 0.01 {
			t.Fatalf("row %d gc %v != %v", i, row.GCPercent, orig.GCPercent)
		}
		if math.Abs(float64(row.ATPercent)-orig.ATPercent) > 0.01 {
			t.Fatalf("row %d at %v != %v", i, row.ATPercent, orig.ATPercent)
		}
		// recompute percentages from the decoded counts
		gc := composition.RoundPercent(float64(row.CountG+row.CountC)/float64(row.Length)*100, 2)
		if math.Abs(gc-orig.GCPercent) > 0.01 {
			t.Fatalf("row %d recomputed gc %v != %v", i, gc, orig.GCPercent)
		}
	}
}

func TestEncodeXLSX(t *testing.T) {
	data, err := EncodeXLSX(sampleTable(t))
	if err != nil {
		t.Fatalf("EncodeXLSX failed: %v", err)
	}
	// xlsx is a zip container
	if len(data) < 4 || data[0] != 'P' || data[1] != 'K' {
		t.Fatalf("output does not look like an xlsx (zip) file")
	}
}

func TestEncodeDispatch(t *testing.T) {
	table := sampleTable(t)
	if _, err := Encode(table, FormatCSV); err != nil {
		t.Fatalf("csv dispatch failed: %v", err)
	}
	if _, err := Encode(table, FormatXLSX); err != nil {
		t.Fatalf("xlsx dispatch failed: %v", err)
	}
	if _, err := Encode(table, Format("pdf")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, "XLSX": FormatXLSX, "spreadsheet": FormatXLSX, "excel": FormatXLSX} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("pdf"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("expected ErrUnsupportedFormat, got %v", err)
	}
}

func TestWriteChartHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteChartHTML(&buf, sampleTable(t)); err != nil {
		t.Fatalf("WriteChartHTML failed: %v", err)
	}
	html := buf.String()
	if !strings.Contains(html, "GC% per Sequence") {
		t.Fatalf("chart page missing bar chart title")
	}
	if !strings.Contains(html, "seq1") {
		t.Fatalf("chart page missing sequence name")
	}
}
