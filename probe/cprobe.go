// Package probe gathers ground-truth facts about a platform. Run compiles and executes a
// small C program against the platform's headers; Host reads the facts that the Go
// toolchain itself carries for the running platform.
package probe

import (
	"fmt"
	"io"
	"strings"
	"text/template"

	"go.uber.org/zap"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/ctype"
)

// Options configures the native probe.
type Options struct {
	// CC is the C compiler. The default is "cc".
	CC string
	// Flags are passed to the compiler before the source file.
	Flags []string
	// IncludeDirs are passed to the compiler as -I flags.
	IncludeDirs []string
	// Headers are included by the probe, in order. Names not already wrapped in <> or ""
	// are wrapped in <>.
	Headers []string
	// Tagged spells aggregates as `struct X` and `union X` rather than as typedef names.
	Tagged bool
	// Types classifies declared types so that signedness is only probed for integers.
	// The default is ctype.LP64.
	Types ctype.Resolver
	// Logger receives progress messages. The default discards them.
	Logger *zap.Logger
}

func (o *Options) cc() string {
	if o.CC == "" {
		return "cc"
	}
	return o.CC
}

func (o *Options) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o *Options) types() ctype.Resolver {
	if o.Types == nil {
		return ctype.LP64
	}
	return o.Types
}

// row is one CSV fact row of the generated program. Empty expressions leave their column
// empty.
type row struct {
	Symbol string
	Kind   string
	Field  string
	Offset string
	Size   string
	Align  string
	Signed string
	Int    string
	String string
	Opaque bool
}

type program struct {
	Includes []string
	Header   string
	Rows     []row
}

var programT = template.Must(template.New("probe.c").Parse(`#include <stddef.h>
#include <stdio.h>
{{range .Includes}}#include {{.}}
{{end}}
#define PRINT_INT(x) do { \
	if ((__typeof__(x))-1 < 0) printf("%lld", (long long)(x)); \
	else printf("%llu", (unsigned long long)(x)); \
} while (0)

static const char *sign(int negative) { return negative ? "true" : "false"; }

static void print_string(const char *s) {
	fputs("\"\"\"", stdout);
	for (; *s; s++) {
		unsigned char c = (unsigned char)*s;
		if (c == '"') fputs("\\\"\"", stdout);
		else if (c == '\\') fputs("\\\\", stdout);
		else if (c >= 0x20 && c < 0x7f) putchar(c);
		else printf("\\x%02x", c);
	}
	fputs("\"\"\"", stdout);
}

int main(void) {
	puts("{{.Header}}");
{{range .Rows}}
	fputs("{{.Symbol}},{{.Kind}},{{.Field}},,", stdout);
{{- if .Offset}}
	printf("%zu", (size_t)({{.Offset}}));
{{- end}}
	printf(",%zu,", (size_t)({{.Size}}));
{{- if .Align}}
	printf("%zu", (size_t)({{.Align}}));
{{- end}}
	putchar(',');
{{- if .Signed}}
	fputs(sign({{.Signed}}), stdout);
{{- end}}
	putchar(',');
{{- if .Int}}
	PRINT_INT({{.Int}});
{{- else if .String}}
	print_string({{.String}});
{{- end}}
	puts({{if .Opaque}}",true"{{else}}","{{end}});
{{end}}
	return 0;
}
`))

// csvHeader matches the header load.WriteCSV writes.
const csvHeader = "symbol,kind,field,type,offset,size,align,signed,value,opaque"

// Generate writes a C program that prints, in the CSV encoding read by the load package,
// the facts the platform's compiler knows about symbols: the size and alignment of every
// symbol, the signedness of integer types, the offset and size of every named field, and
// the value of every constant. Only names and types are read from symbols.
func Generate(w io.Writer, symbols []abi.Symbol, options Options) error {
	scope := ctype.NewScope(options.types(), symbols)

	p := program{Header: csvHeader}
	for _, h := range options.Headers {
		if !strings.HasPrefix(h, "<") && !strings.HasPrefix(h, `"`) {
			h = "<" + h + ">"
		}
		p.Includes = append(p.Includes, h)
	}

	for i := range symbols {
		s := &symbols[i]
		if !isIdentifier(s.Name) {
			return fmt.Errorf("probe: %q is not a C identifier", s.Name)
		}

		switch s.Kind {
		case abi.KindConst:
			p.Rows = append(p.Rows, constRow(s, scope))
		case abi.KindAlias:
			r := row{
				Symbol: s.Name,
				Kind:   s.Kind.String(),
				Size:   fmt.Sprintf("sizeof(%s)", s.Name),
				Align:  fmt.Sprintf("_Alignof(%s)", s.Name),
			}
			if isInteger(scope, s.Name) {
				r.Signed = fmt.Sprintf("(%s)-1 < 0", s.Name)
			}
			p.Rows = append(p.Rows, r)
		case abi.KindStruct, abi.KindUnion:
			rows, err := aggregateRows(s, scope, options.Tagged)
			if err != nil {
				return err
			}
			p.Rows = append(p.Rows, rows...)
		}
	}

	return programT.Execute(w, p)
}

func constRow(s *abi.Symbol, types ctype.Resolver) row {
	typeOf := fmt.Sprintf("__typeof__(%s)", s.Name)
	r := row{
		Symbol: s.Name,
		Kind:   s.Kind.String(),
		Size:   fmt.Sprintf("sizeof(%s)", s.Name),
		Align:  fmt.Sprintf("_Alignof(%s)", typeOf),
	}
	switch {
	case s.Value.IsString():
		r.String = s.Name
	case s.Type == "" || isInteger(types, s.Type):
		r.Signed = fmt.Sprintf("(%s)-1 < 0", typeOf)
		r.Int = s.Name
	}
	return r
}

func aggregateRows(s *abi.Symbol, types ctype.Resolver, tagged bool) ([]row, error) {
	spelling := s.Name
	if tagged {
		spelling = s.Kind.String() + " " + s.Name
	}

	rows := []row{{
		Symbol: s.Name,
		Kind:   s.Kind.String(),
		Size:   fmt.Sprintf("sizeof(%s)", spelling),
		Align:  fmt.Sprintf("_Alignof(%s)", spelling),
		Opaque: s.Opaque,
	}}
	if s.Opaque {
		return rows, nil
	}

	for _, f := range s.Fields {
		if f.Name == "" {
			continue
		}
		if !isIdentifier(f.Name) {
			return nil, fmt.Errorf("probe: field %q of %s is not a C identifier", f.Name, s.Name)
		}

		member := fmt.Sprintf("((%s *)0)->%s", spelling, f.Name)
		r := row{
			Symbol: s.Name,
			Kind:   "field",
			Field:  f.Name,
			Offset: fmt.Sprintf("offsetof(%s, %s)", spelling, f.Name),
			Size:   fmt.Sprintf("sizeof(%s)", member),
		}
		if f.Padding {
			r.Kind = "padding"
		}
		if isInteger(types, f.Type) {
			r.Signed = fmt.Sprintf("(__typeof__(%s))-1 < 0", member)
		}
		rows = append(rows, r)
	}
	return rows, nil
}

func isInteger(types ctype.Resolver, typ string) bool {
	if typ == "" {
		return false
	}
	p, ok := types.Resolve(typ)
	return ok && p.Class == abi.ClassInteger
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
