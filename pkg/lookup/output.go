package lookup

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gocarina/gocsv"
	"github.com/kr/pretty"
	"github.com/liip/sheriff"
)

type Format string

const (
	FormatTable  Format = "table"
	FormatJSON   Format = "json"
	FormatCSV    Format = "csv"
	FormatPretty Format = "pretty"
)

func ParseFormat(s string) (Format, error) {
	switch format := Format(s); format {
	case FormatTable, FormatJSON, FormatCSV, FormatPretty:
		return format, nil
	}

	return "", fmt.Errorf("unknown output format %q", s)
}

// Write prints detail as JSON or with pretty, and rows, a slice of csv tagged structs, as CSV or a table
func Write(w io.Writer, format Format, detail any, rows any) error {
	switch format {
	case FormatJSON:
		reduced, err := sheriff.Marshal(&sheriff.Options{
			Groups: []string{"detail"},
		}, detail)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		return encoder.Encode(reduced)
	case FormatPretty:
		_, err := pretty.Fprintf(w, "%# v\n", detail)
		return err
	case FormatCSV:
		return gocsv.Marshal(rows, w)
	default:
		table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

		csvWriter := csv.NewWriter(table)
		csvWriter.Comma = '\t'

		if err := gocsv.MarshalCSV(rows, gocsv.NewSafeCSVWriter(csvWriter)); err != nil {
			return err
		}

		return table.Flush()
	}
}
