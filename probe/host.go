package probe

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/pgavlin/abicheck/abi"
)

// ErrUnsupported is returned by Host on platforms without a host fact table.
var ErrUnsupported = errors.New("probe: no host facts for " + runtime.GOOS + "/" + runtime.GOARCH)

// A Rename maps the dotted Go path of a struct field (Atim.Nsec) to the name of the
// corresponding C member. Returning the empty string turns the field into padding.
type Rename func(path string) string

// FromGoStruct returns a struct fact describing the layout of the Go struct v, which may
// be a struct value, a pointer to one, or a reflect.Type. Nested structs are flattened;
// blank (_) fields become unnamed padding. A nil rename keeps the Go field paths.
func FromGoStruct(name string, v interface{}, rename Rename) (abi.Symbol, error) {
	t, ok := v.(reflect.Type)
	if !ok {
		t = reflect.TypeOf(v)
	}
	for t != nil && t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return abi.Symbol{}, fmt.Errorf("probe: %v is not a struct type", t)
	}
	if rename == nil {
		rename = func(path string) string { return path }
	}

	s := abi.Struct(name)
	s.Size, s.Align = int64(t.Size()), int64(t.Align())
	if err := flatten(&s, t, "", 0, rename); err != nil {
		return abi.Symbol{}, err
	}
	return s, nil
}

func flatten(s *abi.Symbol, t reflect.Type, prefix string, base int64, rename Rename) error {
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		offset := base + int64(sf.Offset)

		if sf.Name == "_" {
			s.Fields = append(s.Fields, abi.Field{
				Padding: true,
				Type:    goTypeName(sf.Type),
				Offset:  offset,
				Size:    int64(sf.Type.Size()),
			})
			continue
		}

		path := prefix + sf.Name
		if sf.Type.Kind() == reflect.Struct {
			if err := flatten(s, sf.Type, path+".", offset, rename); err != nil {
				return err
			}
			continue
		}

		typ := goTypeName(sf.Type)
		if typ == "" {
			return fmt.Errorf("probe: %s.%s: unsupported field type %v", s.Name, path, sf.Type)
		}
		f := abi.Field{
			Name:       rename(path),
			Type:       typ,
			Offset:     offset,
			Size:       int64(sf.Type.Size()),
			Signedness: goSignedness(sf.Type),
		}
		if f.Name == "" {
			f.Padding = true
		}
		s.Fields = append(s.Fields, f)
	}
	return nil
}

// goTypeName spells a Go field type in a form ctype resolves.
func goTypeName(t reflect.Type) string {
	switch t.Kind() {
	case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Uintptr, reflect.Float32, reflect.Float64:
		return t.Kind().String()
	case reflect.Int:
		return fmt.Sprintf("int%d", t.Size()*8)
	case reflect.Uint:
		return fmt.Sprintf("uint%d", t.Size()*8)
	case reflect.Ptr, reflect.UnsafePointer:
		return "*mut u8"
	case reflect.Array:
		elem := goTypeName(t.Elem())
		if elem == "" {
			return ""
		}
		return fmt.Sprintf("[%s; %d]", elem, t.Len())
	case reflect.Struct:
		return fmt.Sprintf("[u8; %d]", t.Size())
	default:
		return ""
	}
}

func goSignedness(t reflect.Type) abi.Signedness {
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return abi.Signed
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return abi.Unsigned
	default:
		return abi.Unknown
	}
}

// goAlias returns an alias fact for a Go scalar type.
func goAlias(name string, t reflect.Type) abi.Symbol {
	s := abi.Alias(name, "")
	s.Size, s.Align = int64(t.Size()), int64(t.Align())
	s.Signedness = goSignedness(t)
	return s
}

// statName renames the fields of a Go Stat_t to the C struct stat member names.
func statName(path string) string {
	switch path {
	case "Atim.Sec", "Mtim.Sec", "Ctim.Sec":
		return "st_" + strings.ToLower(path[:1]) + "time"
	case "Atim.Nsec", "Mtim.Nsec", "Ctim.Nsec":
		return "st_" + strings.ToLower(path[:1]) + "time_nsec"
	}
	if strings.Contains(path, ".") {
		return ""
	}
	return "st_" + strings.ToLower(path)
}
