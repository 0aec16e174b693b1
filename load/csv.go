package load

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/pgavlin/abicheck/abi"
)

// Row is one line of the CSV encoding. A symbol is encoded as one row whose Kind is the
// symbol kind, followed by one row per field whose Kind is "field" or "padding".
type Row struct {
	Symbol string `csv:"symbol"`
	Kind   string `csv:"kind"`
	Field  string `csv:"field,omitempty"`
	Type   string `csv:"type,omitempty"`
	Offset *int64 `csv:"offset,omitempty"`
	Size   *int64 `csv:"size,omitempty"`
	Align  *int64 `csv:"align,omitempty"`
	Signed *bool  `csv:"signed,omitempty"`
	Value  string `csv:"value,omitempty"`
	Opaque *bool  `csv:"opaque,omitempty"`
}

const (
	rowField   = "field"
	rowPadding = "padding"
)

func readCSV(r io.Reader, role abi.Role, source string) ([]abi.Symbol, error) {
	dec, err := csvutil.NewDecoder(csv.NewReader(r))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, abi.Malformed(role, source, "", err.Error())
	}

	var symbols []abi.Symbol
	line := 1
	for {
		var row Row
		if err := dec.Decode(&row); err != nil {
			if errors.Is(err, io.EOF) {
				return symbols, nil
			}
			return nil, abi.Malformed(role, source, "", fmt.Sprintf("line %d: %v", line+1, err))
		}
		line++

		if row.Symbol == "" {
			return nil, abi.Malformed(role, source, "", fmt.Sprintf("line %d: row has no symbol", line))
		}

		switch row.Kind {
		case rowField, rowPadding:
			if len(symbols) == 0 || symbols[len(symbols)-1].Name != row.Symbol {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: field row does not follow its symbol", line))
			}
			owner := &symbols[len(symbols)-1]
			if !owner.Kind.IsAggregate() {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: %v symbols have no fields", line, owner.Kind))
			}
			if row.Field == "" && row.Kind == rowField {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: unnamed field is not marked as padding", line))
			}
			owner.Fields = append(owner.Fields, abi.Field{
				Name:       row.Field,
				Padding:    row.Kind == rowPadding,
				Type:       row.Type,
				Offset:     orUnset(row.Offset),
				Size:       orUnset(row.Size),
				Signedness: signedness(row.Signed),
			})
		default:
			kind, ok := abi.ParseKind(row.Kind)
			if !ok {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: unknown kind %q", line, row.Kind))
			}
			if row.Field != "" || row.Offset != nil {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: symbol rows have no field or offset", line))
			}
			value, err := abi.ParseValue(row.Value)
			if err != nil {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: %v", line, err))
			}
			if kind != abi.KindConst && value.IsSet() {
				return nil, abi.Malformed(role, source, row.Symbol, fmt.Sprintf("line %d: %v symbols have no value", line, kind))
			}
			symbols = append(symbols, abi.Symbol{
				Name:       row.Symbol,
				Kind:       kind,
				Type:       row.Type,
				Size:       orUnset(row.Size),
				Align:      orUnset(row.Align),
				Signedness: signedness(row.Signed),
				Value:      value,
				Opaque:     row.Opaque != nil && *row.Opaque,
			})
		}
	}
}

// Rows flattens a symbol set into CSV rows.
func Rows(symbols []abi.Symbol) []Row {
	var rows []Row
	for _, s := range symbols {
		row := Row{
			Symbol: s.Name,
			Kind:   s.Kind.String(),
			Type:   s.Type,
			Size:   setOrNil(s.Size),
			Align:  setOrNil(s.Align),
			Signed: signedOrNil(s.Signedness),
			Value:  s.Value.String(),
		}
		if s.Opaque {
			opaque := true
			row.Opaque = &opaque
		}
		rows = append(rows, row)

		for _, f := range s.Fields {
			kind := rowField
			if f.Padding {
				kind = rowPadding
			}
			rows = append(rows, Row{
				Symbol: s.Name,
				Kind:   kind,
				Field:  f.Name,
				Type:   f.Type,
				Offset: setOrNil(f.Offset),
				Size:   setOrNil(f.Size),
				Signed: signedOrNil(f.Signedness),
			})
		}
	}
	return rows
}

// WriteCSV encodes a symbol set as CSV. The header row is always written.
func WriteCSV(w io.Writer, symbols []abi.Symbol) error {
	csvWriter := csv.NewWriter(w)

	encoder := csvutil.NewEncoder(csvWriter)
	if err := encoder.EncodeHeader(Row{}); err != nil {
		return err
	}
	for _, row := range Rows(symbols) {
		if err := encoder.Encode(&row); err != nil {
			return err
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}
