package export

import (
	"strconv"

	"github.com/gocarina/gocsv"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

// percentDecimals is the fixed number of decimals percent columns carry
// in CSV output. Fixed-point, never scientific notation.
const percentDecimals = 2

// Percent is a float64 that marshals to CSV with fixed decimals.
type Percent float64

// MarshalCSV implements gocsv.TypeMarshaller.
func (p Percent) MarshalCSV() (string, error) {
	return strconv.FormatFloat(float64(p), 'f', percentDecimals, 64), nil
}

// UnmarshalCSV implements gocsv.TypeUnmarshaller.
func (p *Percent) UnmarshalCSV(s string) error {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = Percent(v)
	return nil
}

// Row is one CSV line. Field order is the contract: it fixes the header
// and column order of every export.
type Row struct {
	Identifier     string  `csv:"identifier"`
	Length         int     `csv:"length"`
	CountG         int     `csv:"count_g"`
	CountC         int     `csv:"count_c"`
	CountA         int     `csv:"count_a"`
	CountT         int     `csv:"count_t"`
	CountAmbiguous int     `csv:"count_ambiguous"`
	GCPercent      Percent `csv:"gc_percent"`
	ATPercent      Percent `csv:"at_percent"`
}

func tableRows(t *composition.Table) []Row {
	rows := make([]Row, 0, len(t.Rows))
	for _, s := range t.Rows {
		rows = append(rows, Row{
			Identifier:     s.Identifier,
			Length:         s.Length,
			CountG:         s.CountG,
			CountC:         s.CountC,
			CountA:         s.CountA,
			CountT:         s.CountT,
			CountAmbiguous: s.CountAmbiguous,
			GCPercent:      Percent(s.GCPercent),
			ATPercent:      Percent(s.ATPercent),
		})
	}
	return rows
}

// EncodeCSV serializes the table as CSV: fixed header, one row per
// record, LF-terminated rows, no trailing blank line. Identical tables
// produce byte-identical output.
func EncodeCSV(t *composition.Table) ([]byte, error) {
	rows := tableRows(t)
	out, err := gocsv.MarshalString(&rows)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}

// DecodeCSV parses a previous CSV export back into rows.
func DecodeCSV(data []byte) ([]Row, error) {
	var rows []Row
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
