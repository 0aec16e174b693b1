package ctype

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgavlin/abicheck/abi"
)

func TestResolveSpellings(t *testing.T) {
	u32 := abi.Int(4, false)
	i64 := abi.Int(8, true)

	cases := []struct {
		name string
		want abi.Primitive
	}{
		{"u32", u32},
		{"c_uint", u32},
		{"unsigned int", u32},
		{"unsigned", u32},
		{"uint32_t", u32},
		{"__u32", u32},
		{"uint32", u32},
		{"const unsigned int", u32},
		{"std::ffi::c_uint", u32},
		{"i64", i64},
		{"c_long", i64},
		{"long", i64},
		{"signed long int", i64},
		{"long long", i64},
		{"crate::off64_t", i64},
		{"int", abi.Int(4, true)},
		{"short unsigned", abi.Int(2, false)},
		{"double", abi.Float(8)},
		{"long double", abi.Float(16)},
		{"size_t", abi.Int(8, false)},
		{"*const c_char", abi.Primitive{Class: abi.ClassPointer, Size: 8, Align: 8, Signedness: abi.Unsigned}},
		{"const char *", abi.Primitive{Class: abi.ClassPointer, Size: 8, Align: 8, Signedness: abi.Unsigned}},
		{"[f32; 8]", abi.Float(4).Array(8)},
		{"unsigned char[3]", abi.Int(1, false).Array(3)},
	}

	m := LP64.WithTypedefs("test", map[string]string{"off64_t": "i64"})
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p, ok := m.Resolve(c.name)
			require.True(t, ok)
			assert.Equal(t, c.want, p)
		})
	}
}

func TestResolveRejects(t *testing.T) {
	for _, name := range []string{"", "void", "signed unsigned int", "long long long", "short double", "stat", "[u8; x]"} {
		_, ok := LP64.Resolve(name)
		assert.False(t, ok, name)
	}
}

func TestCharSignedness(t *testing.T) {
	p, ok := LP64.Resolve("c_char")
	require.True(t, ok)
	assert.Equal(t, abi.Signed, p.Signedness)

	p, ok = LP64UnsignedChar.Resolve("char")
	require.True(t, ok)
	assert.Equal(t, abi.Unsigned, p.Signedness)

	p, ok = LP64UnsignedChar.Resolve("signed char")
	require.True(t, ok)
	assert.Equal(t, abi.Signed, p.Signedness)
}

func TestDataModels(t *testing.T) {
	p, ok := ILP32.Resolve("c_ulong")
	require.True(t, ok)
	assert.Equal(t, abi.Int(4, false), p)

	p, ok = ILP32.Resolve("usize")
	require.True(t, ok)
	assert.Equal(t, int64(4), p.Size)

	p, ok = ILP32.Resolve("unsigned long long")
	require.True(t, ok)
	assert.Equal(t, abi.Int(8, false), p)
}

func TestTypedefCycle(t *testing.T) {
	m := LP64.WithTypedefs("cycle", map[string]string{"a": "b", "b": "a"})
	_, ok := m.Resolve("a")
	assert.False(t, ok)
}

func TestScopeAliases(t *testing.T) {
	symbols := []abi.Symbol{
		abi.Alias("T2Foo", "u32"),
		abi.Alias("T2TypedefFoo", "T2Foo"),
		abi.Alias("wchar_t", "u32"),
		abi.Alias("size_t", "size_t"),
	}
	s := NewScope(LP64, symbols)

	p, ok := s.Resolve("T2TypedefFoo")
	require.True(t, ok)
	assert.Equal(t, abi.Int(4, false), p)

	// Local declarations shadow the data model.
	p, ok = s.Resolve("wchar_t")
	require.True(t, ok)
	assert.Equal(t, abi.Unsigned, p.Signedness)

	// Self-referential aliases fall through to the parent.
	p, ok = s.Resolve("size_t")
	require.True(t, ok)
	assert.Equal(t, abi.Int(8, false), p)

	_, ok = s.Resolve("T2Missing")
	assert.False(t, ok)
}

func TestScopeSizedFacts(t *testing.T) {
	fact := abi.Alias("T2Foo", "")
	fact.Size, fact.Align, fact.Signedness = 4, 4, abi.Unsigned

	p, ok := NewScope(nil, []abi.Symbol{fact}).Resolve("T2Foo")
	require.True(t, ok)
	assert.Equal(t, abi.Int(4, false), p)
}

func statLayout() abi.Symbol {
	return abi.Struct("stat",
		abi.NewField("st_dev", "dev_t"),
		abi.NewField("st_ino", "ino_t"),
		abi.NewField("st_mode", "c_uint"),
		abi.NewField("st_nlink", "c_uint"),
		abi.NewField("st_uid", "uid_t"),
		abi.NewField("st_gid", "gid_t"),
		abi.NewField("st_rdev", "dev_t"),
		abi.NewPadding("__pad1", "c_ulong"),
		abi.NewField("st_size", "off64_t"),
		abi.NewField("st_blksize", "c_int"),
		abi.NewPadding("__pad2", "c_int"),
		abi.NewField("st_blocks", "c_long"),
		abi.NewField("st_atime", "time_t"),
		abi.NewField("st_atime_nsec", "c_long"),
		abi.NewField("st_mtime", "time_t"),
		abi.NewField("st_mtime_nsec", "c_long"),
		abi.NewField("st_ctime", "time_t"),
		abi.NewField("st_ctime_nsec", "c_long"),
		abi.NewPadding("__unused4", "c_uint"),
		abi.NewPadding("__unused5", "c_uint"),
	)
}

func TestLayoutStat(t *testing.T) {
	m := LP64.WithTypedefs("android", map[string]string{
		"dev_t": "u64", "ino_t": "u64", "uid_t": "u32", "gid_t": "u32", "off64_t": "i64", "time_t": "i64",
	})

	sym := statLayout()
	require.NoError(t, Layout(&sym, m))

	assert.Equal(t, int64(128), sym.Size)
	assert.Equal(t, int64(8), sym.Align)

	offsets := map[string]int64{}
	for _, f := range sym.Fields {
		offsets[f.Name] = f.Offset
	}
	assert.Equal(t, int64(16), offsets["st_mode"])
	assert.Equal(t, int64(40), offsets["__pad1"])
	assert.Equal(t, int64(56), offsets["st_blksize"])
	assert.Equal(t, int64(60), offsets["__pad2"])
	assert.Equal(t, int64(124), offsets["__unused5"])
}

func TestLayoutUnionAndAlign(t *testing.T) {
	u := abi.Union("T2Union", abi.NewField("a", "u32"), abi.NewField("b", "i64"))
	require.NoError(t, Layout(&u, LP64))
	assert.Equal(t, int64(8), u.Size)
	assert.Equal(t, int64(0), u.Fields[1].Offset)

	ma := abi.Struct("max_align_t", abi.NewPadding("priv_", "[f32; 8]"))
	ma.Align = 16
	require.NoError(t, Layout(&ma, LP64))
	assert.Equal(t, int64(32), ma.Size)
	assert.Equal(t, int64(16), ma.Align)

	odd := abi.Struct("odd", abi.NewField("a", "u8"))
	odd.Align = 16
	require.NoError(t, Layout(&odd, LP64))
	assert.Equal(t, int64(16), odd.Size)
}

func TestLayoutKeepsExplicitOffsets(t *testing.T) {
	s := abi.Struct("s", abi.NewField("a", "u8"), abi.NewField("b", "u8"))
	s.Fields[1].Offset = 4
	require.NoError(t, Layout(&s, LP64))
	assert.Equal(t, int64(4), s.Fields[1].Offset)
	assert.Equal(t, int64(5), s.Size)
}

func TestLayoutUnknownType(t *testing.T) {
	s := abi.Struct("s", abi.NewField("a", "timespec"))
	err := Layout(&s, LP64)
	var layoutErr *LayoutError
	require.ErrorAs(t, err, &layoutErr)
	assert.Equal(t, "timespec", layoutErr.Type)
}

func TestLayoutAllOrderIndependent(t *testing.T) {
	symbols := []abi.Symbol{
		abi.Struct("outer", abi.NewField("tag", "u8"), abi.NewField("inner", "inner")),
		abi.Struct("inner", abi.NewField("a", "u64")),
		abi.Struct("pair", abi.NewField("x", "[inner; 2]")),
	}
	require.NoError(t, LayoutAll(symbols, LP64))
	assert.Equal(t, int64(16), symbols[0].Size)
	assert.Equal(t, int64(8), symbols[0].Fields[1].Offset)
	assert.Equal(t, int64(16), symbols[2].Size)

	self := []abi.Symbol{abi.Struct("loop", abi.NewField("x", "loop"))}
	assert.Error(t, LayoutAll(self, LP64))
}
