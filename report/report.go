// Package report renders validation results.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/jszwec/csvutil"
	"gopkg.in/yaml.v3"

	"github.com/pgavlin/abicheck/abi"
)

// Format is a report encoding.
type Format string

const (
	FormatText Format = "text"
	FormatCSV  Format = "csv"
	FormatYAML Format = "yaml"
)

// ParseFormat parses a report format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatText, FormatCSV, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("report: unknown format %q", s)
	}
}

// Report is the result of validating one target.
type Report struct {
	Target     string
	Mismatches []abi.Mismatch
}

// Record is the flat form of a mismatch used by the CSV and YAML encodings.
type Record struct {
	Target   string `csv:"target,omitempty" yaml:"target,omitempty"`
	Symbol   string `csv:"symbol" yaml:"symbol"`
	Field    string `csv:"field,omitempty" yaml:"field,omitempty"`
	Category string `csv:"category" yaml:"category"`
	Declared string `csv:"declared,omitempty" yaml:"declared,omitempty"`
	Truth    string `csv:"truth,omitempty" yaml:"truth,omitempty"`
}

// Records flattens reports into records, preserving report and mismatch order.
func Records(reports ...Report) []Record {
	var records []Record
	for _, r := range reports {
		for _, m := range r.Mismatches {
			records = append(records, Record{
				Target:   r.Target,
				Symbol:   m.Symbol,
				Field:    m.Field,
				Category: string(m.Category),
				Declared: m.Declared,
				Truth:    m.Truth,
			})
		}
	}
	return records
}

// Write renders a single unnamed report.
func Write(w io.Writer, format Format, mismatches []abi.Mismatch) error {
	return WriteReports(w, format, Report{Mismatches: mismatches})
}

// WriteReports renders reports in order. The output depends only on the reports.
func WriteReports(w io.Writer, format Format, reports ...Report) error {
	switch format {
	case FormatText:
		return writeText(w, reports)
	case FormatCSV:
		return writeCSV(w, reports)
	case FormatYAML:
		return writeYAML(w, reports)
	default:
		return fmt.Errorf("report: unknown format %q", string(format))
	}
}

func writeText(w io.Writer, reports []Report) error {
	for _, r := range reports {
		if r.Target != "" {
			if _, err := fmt.Fprintf(w, "# %s\n", r.Target); err != nil {
				return err
			}
		}
		for _, m := range r.Mismatches {
			if _, err := fmt.Fprintln(w, m.String()); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w, Summary(r.Mismatches)); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns a one-line summary of mismatches: their count and the number of
// distinct symbols involved.
func Summary(mismatches []abi.Mismatch) string {
	if len(mismatches) == 0 {
		return "no mismatches"
	}

	names := map[string]bool{}
	for _, m := range mismatches {
		names[m.Symbol] = true
	}
	symbols := len(names)
	return fmt.Sprintf("%d %s in %d %s", len(mismatches), plural(len(mismatches), "mismatch", "mismatches"),
		symbols, plural(symbols, "symbol", "symbols"))
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func writeCSV(w io.Writer, reports []Report) error {
	csvWriter := csv.NewWriter(w)

	encoder := csvutil.NewEncoder(csvWriter)
	if err := encoder.EncodeHeader(Record{}); err != nil {
		return err
	}
	for _, r := range Records(reports...) {
		if err := encoder.Encode(&r); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func writeYAML(w io.Writer, reports []Report) error {
	records := Records(reports...)
	if records == nil {
		records = []Record{}
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(map[string]interface{}{"mismatches": records}); err != nil {
		return err
	}
	return enc.Close()
}

// ExitCode returns the process exit status for a run that produced mismatches: 0 when
// there are none, 1 otherwise.
func ExitCode(mismatches []abi.Mismatch) int {
	if len(mismatches) == 0 {
		return 0
	}
	return 1
}
