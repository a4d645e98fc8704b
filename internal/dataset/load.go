package dataset

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format identifies a supported source encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatFromName picks a format from a file extension. Unknown extensions
// are treated as CSV.
func FormatFromName(name string) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xlsx", ".xlsm":
		return FormatXLSX
	default:
		return FormatCSV
	}
}

// Read parses r in the given format.
func Read(name string, r io.Reader, format Format) (*Dataset, error) {
	switch format {
	case FormatXLSX:
		return ParseXLSX(name, r, "")
	case FormatCSV, "":
		return ParseCSV(name, r)
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

// Load opens path and parses it according to its extension.
func Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	ds, err := Read(filepath.Base(path), f, FormatFromName(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return ds, nil
}
