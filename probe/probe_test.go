package probe

import (
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/load"
	"github.com/pgavlin/abicheck/validate"
)

var t2Dir = filepath.Join("..", "internal", "testdata", "t2")

func TestGenerate(t *testing.T) {
	maxAlign := abi.Struct("max_align_t", abi.NewPadding("priv_", "[f32; 8]"))
	maxAlign.Opaque = true

	symbols := []abi.Symbol{
		abi.Alias("T2Foo", "u32"),
		abi.Alias("T2Ptr", "*const u8"),
		abi.Struct("T2Baz", abi.NewField("a", "i64"), abi.NewPadding("", "u32"), abi.NewField("f", "f64")),
		abi.Const("T2C", "i32", abi.IntValue(5)),
		abi.Const("T2S", "*const c_char", abi.StringValue("b")),
		maxAlign,
	}

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, symbols, Options{Headers: []string{"stdint.h", `"t2.h"`}}))
	source := buf.String()

	assert.Contains(t, source, "#include <stdint.h>\n")
	assert.Contains(t, source, "#include \"t2.h\"\n")
	assert.Contains(t, source, `puts("symbol,kind,field,type,offset,size,align,signed,value,opaque");`)

	assert.Contains(t, source, "fputs(sign((T2Foo)-1 < 0), stdout);")
	assert.NotContains(t, source, "(T2Ptr)-1")

	assert.Contains(t, source, `fputs("T2Baz,field,a,,", stdout);`)
	assert.Contains(t, source, "offsetof(T2Baz, a)")
	assert.Contains(t, source, "fputs(sign((__typeof__(((T2Baz *)0)->a))-1 < 0), stdout);")
	assert.NotContains(t, source, "(__typeof__(((T2Baz *)0)->f))-1")
	assert.NotContains(t, source, "T2Baz,padding")

	assert.Contains(t, source, "PRINT_INT(T2C);")
	assert.Contains(t, source, "print_string(T2S);")

	assert.Contains(t, source, `puts(",true");`)
	assert.NotContains(t, source, "priv_")
}

func TestGenerateTagged(t *testing.T) {
	var buf bytes.Buffer
	symbols := []abi.Symbol{abi.Union("sigval", abi.NewField("sival_int", "c_int"))}
	require.NoError(t, Generate(&buf, symbols, Options{Tagged: true}))
	assert.Contains(t, buf.String(), "sizeof(union sigval)")
	assert.Contains(t, buf.String(), "offsetof(union sigval, sival_int)")
}

func TestGenerateRejectsNonIdentifiers(t *testing.T) {
	var buf bytes.Buffer
	err := Generate(&buf, []abi.Symbol{abi.Alias("std::ffi::c_int", "i32")}, Options{})
	assert.Error(t, err)

	err = Generate(&buf, []abi.Symbol{abi.Struct("s", abi.NewField("a b", "u8"))}, Options{})
	assert.Error(t, err)
}

type timespec struct {
	Sec  int64
	Nsec int64
}

type goStat struct {
	Dev  uint64
	Mode uint32
	_    int32
	Size int64
	Atim timespec
	Tags [2]uint16
	Ptr  *byte
}

func TestFromGoStruct(t *testing.T) {
	s, err := FromGoStruct("stat", &goStat{}, statName)
	require.NoError(t, err)

	assert.Equal(t, abi.KindStruct, s.Kind)
	assert.Equal(t, int64(56), s.Size)
	assert.Equal(t, int64(8), s.Align)

	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	assert.Equal(t, []string{"st_dev", "st_mode", "", "st_size", "st_atime", "st_atime_nsec", "st_tags", "st_ptr"}, names)

	pad := s.Fields[2]
	assert.True(t, pad.Padding)
	assert.Equal(t, int64(12), pad.Offset)
	assert.Equal(t, int64(4), pad.Size)

	assert.Equal(t, int64(32), s.Fields[5].Offset)
	assert.Equal(t, abi.Signed, s.Fields[5].Signedness)
	assert.Equal(t, "[uint16; 2]", s.Fields[6].Type)
	assert.Equal(t, abi.Unknown, s.Fields[6].Signedness)
	assert.Equal(t, abi.Unsigned, s.Fields[1].Signedness)

	_, err = FromGoStruct("x", 42, nil)
	assert.Error(t, err)
}

func TestFromGoStructAgreesWithLayout(t *testing.T) {
	fact, err := FromGoStruct("goStat", goStat{}, statName)
	require.NoError(t, err)

	declared := abi.Struct("goStat",
		abi.NewField("st_dev", "u64"),
		abi.NewField("st_mode", "u32"),
		abi.NewPadding("", "i32"),
		abi.NewField("st_size", "i64"),
		abi.NewField("st_atime", "i64"),
		abi.NewField("st_atime_nsec", "i64"),
		abi.NewField("st_tags", "[u16; 2]"),
		abi.NewField("st_ptr", "*mut u8"),
	)

	mismatches, err := validate.Validate([]abi.Symbol{declared}, []abi.Symbol{fact})
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestRunT2(t *testing.T) {
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no C compiler")
	}

	declared, err := load.LoadFile(filepath.Join(t2Dir, "t2.yaml"), abi.Declared)
	require.NoError(t, err)

	include, err := filepath.Abs(t2Dir)
	require.NoError(t, err)

	facts, err := Run(context.Background(), declared, Options{
		Headers:     []string{`"t2.h"`},
		IncludeDirs: []string{include},
		Logger:      zaptest.NewLogger(t),
	})
	require.NoError(t, err)
	require.Len(t, facts, len(declared))

	expected, err := load.LoadFile(filepath.Join(t2Dir, "t2_facts.csv"), abi.Truth)
	require.NoError(t, err)
	assert.Equal(t, expected, facts)

	mismatches, err := validate.Validate(declared, facts)
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}

func TestRunCompileError(t *testing.T) {
	if _, err := exec.LookPath("cc"); err != nil {
		t.Skip("no C compiler")
	}

	_, err := Run(context.Background(), []abi.Symbol{abi.Alias("no_such_type_t", "u32")}, Options{})
	var compileErr *CompileError
	require.ErrorAs(t, err, &compileErr)
	assert.Contains(t, compileErr.Output, "no_such_type_t")
}

func TestInferPadding(t *testing.T) {
	declared := []abi.Symbol{
		abi.Struct("s", abi.NewField("a", "u8"), abi.NewPadding("", "[u8; 3]"), abi.NewField("b", "u32"), abi.NewPadding("", "u32")),
		abi.Struct("named", abi.NewField("a", "u8"), abi.NewField("b", "u32")),
	}

	s := abi.Struct("s",
		abi.Field{Name: "a", Offset: 0, Size: 1},
		abi.Field{Name: "b", Offset: 4, Size: 4},
	)
	s.Size, s.Align = 12, 4
	named := abi.Struct("named",
		abi.Field{Name: "a", Offset: 0, Size: 1},
		abi.Field{Name: "b", Offset: 4, Size: 4},
	)
	named.Size, named.Align = 8, 4
	facts := []abi.Symbol{s, named}

	inferPadding(declared, facts)

	require.Len(t, facts[0].Fields, 4)
	assert.Equal(t, abi.Field{Padding: true, Type: "[u8; 3]", Offset: 1, Size: 3}, facts[0].Fields[1])
	assert.Equal(t, abi.Field{Padding: true, Type: "[u8; 4]", Offset: 8, Size: 4}, facts[0].Fields[3])
	assert.Len(t, facts[1].Fields, 2)

	mismatches, err := validate.Validate(declared[:1], facts[:1])
	require.NoError(t, err)
	assert.Empty(t, mismatches)
}
