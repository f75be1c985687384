package export

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/iksnae/datachat/internal"
)

// DefaultCSVFilename is used when the caller does not name the output file
const DefaultCSVFilename = "data_export.csv"

// WriteTableCSV writes a header line of the first non-null row's columns
// followed by one line per row. Absent cells are empty. Fields are quoted when
// they contain a delimiter, quote or line break, or start with a space or tab.
func WriteTableCSV(w io.Writer, table internal.Table) error {
	columns := table.Columns()
	if len(columns) == 0 {
		return nil
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return &internal.ExportError{Format: "csv", Err: err}
	}

	record := make([]string, len(columns))
	for i := range table {
		for j, col := range columns {
			record[j] = internal.FormatCell(table.Cell(i, col))
		}
		if err := cw.Write(record); err != nil {
			return &internal.ExportError{Format: "csv", Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &internal.ExportError{Format: "csv", Err: err}
	}
	return nil
}

// TableCSV renders table as CSV text without a trailing newline. An empty
// table renders as "".
func TableCSV(table internal.Table) (string, error) {
	var sb strings.Builder
	if err := WriteTableCSV(&sb, table); err != nil {
		return "", err
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}
