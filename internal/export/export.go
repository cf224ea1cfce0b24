package export

// Package export serializes a composition table to CSV or XLSX and
// renders an HTML chart page for the web UI. CSV output is
// byte-deterministic; XLSX is not required to be because the container
// embeds timestamps.

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Mahrukh-Haseeb/gc-content-analyzer/internal/composition"
)

// Format names a supported export encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrUnsupportedFormat is returned for formats outside the recognized set.
var ErrUnsupportedFormat = errors.New("unsupported export format")

// ParseFormat converts a user-supplied format name to a Format.
// "spreadsheet" is accepted as an alias for xlsx.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "xlsx", "excel", "spreadsheet":
		return FormatXLSX, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, s)
	}
}

// Encode serializes the table in the given format.
func Encode(t *composition.Table, format Format) ([]byte, error) {
	switch format {
	case FormatCSV:
		return EncodeCSV(t)
	case FormatXLSX:
		return EncodeXLSX(t)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// ContentType returns the MIME type for a format, for download responses.
func ContentType(format Format) string {
	switch format {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}
