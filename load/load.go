// Package load reads and writes symbol sets. Two encodings are supported: a YAML document
// (which also accepts JSON) for hand-written declarations, and a flat CSV table, which is
// what the native probe prints.
package load

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgavlin/abicheck/abi"
)

// Format is a symbol-set encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// ParseFormat parses a format name.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "yaml", "yml", "json":
		return FormatYAML, nil
	case "csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("load: unknown format %q", s)
	}
}

var csvMagic = []byte("symbol,")

// LoadSymbols reads a symbol set, detecting its encoding from the content: input whose
// first line starts with the CSV header "symbol," is read as CSV, anything else as YAML.
// Malformed input yields an *abi.MalformedDeclarationError or *abi.MalformedFactError
// according to role. Duplicate names are preserved for the validator to reject.
func LoadSymbols(r io.Reader, role abi.Role) ([]abi.Symbol, error) {
	return loadSymbols(r, role, "")
}

func loadSymbols(r io.Reader, role abi.Role, source string) ([]abi.Symbol, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(len(csvMagic))
	if err == nil && bytes.Equal(buf, csvMagic) {
		return readCSV(br, role, source)
	}
	return readYAML(br, role, source)
}

// LoadFile reads a symbol set from a file. Files with a .csv extension are always read
// as CSV; other files are sniffed as by LoadSymbols.
func LoadFile(path string, role abi.Role) ([]abi.Symbol, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return readCSV(bufio.NewReader(f), role, path)
	}
	return loadSymbols(f, role, path)
}

// LoadFiles reads and concatenates several symbol files in order. A path may omit its
// extension; see FSResolver.
func LoadFiles(paths []string, role abi.Role) ([]abi.Symbol, error) {
	var symbols []abi.Symbol
	for _, p := range paths {
		r := NewFSResolver(os.DirFS(filepath.Dir(p)))
		s, err := r.Resolve(filepath.Base(p), role)
		if err != nil {
			return nil, err
		}
		symbols = append(symbols, s...)
	}
	return symbols, nil
}

// Write encodes a symbol set in the given format.
func Write(w io.Writer, format Format, symbols []abi.Symbol) error {
	switch format {
	case FormatYAML:
		return WriteYAML(w, symbols)
	case FormatCSV:
		return WriteCSV(w, symbols)
	default:
		return fmt.Errorf("load: unknown format %q", string(format))
	}
}
