package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgavlin/abicheck/abi"
)

var scenarioC = []abi.Mismatch{
	{Symbol: "T2Baz", Field: "b", FieldIndex: 1, Category: abi.OffsetDiffers, Declared: "4", Truth: "8"},
	{Symbol: "T2C", FieldIndex: -1, Category: abi.ValueDiffers, Declared: "5", Truth: "6"},
	{Symbol: "T2Extra", FieldIndex: -1, Category: abi.MissingInDeclaration, Truth: "alias u32"},
	{Symbol: "T2Gone", FieldIndex: -1, Category: abi.MissingInTruth, Declared: "alias u32"},
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, scenarioC))

	expected := `T2Baz.b: offset-differs: declared 4, truth 8
T2C: value-differs: declared 5, truth 6
T2Extra: missing-in-declaration: truth alias u32
T2Gone: missing-in-truth: declared alias u32
4 mismatches in 4 symbols
`
	assert.Equal(t, expected, buf.String())
}

func TestTextEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatText, []abi.Mismatch{}))
	assert.Equal(t, "no mismatches\n", buf.String())
}

func TestTextTargets(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, FormatText,
		Report{Target: "ctest-t2", Mismatches: scenarioC[:1]},
		Report{Target: "wasm32-wasip1"},
	))

	expected := `# ctest-t2
T2Baz.b: offset-differs: declared 4, truth 8
1 mismatch in 1 symbol
# wasm32-wasip1
no mismatches
`
	assert.Equal(t, expected, buf.String())
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReports(&buf, FormatCSV, Report{Target: "ctest-t2", Mismatches: scenarioC[:2]}))

	expected := `target,symbol,field,category,declared,truth
ctest-t2,T2Baz,b,offset-differs,4,8
ctest-t2,T2C,,value-differs,5,6
`
	assert.Equal(t, expected, buf.String())
}

func TestYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, FormatYAML, scenarioC[2:3]))

	expected := `mismatches:
  - symbol: T2Extra
    category: missing-in-declaration
    truth: alias u32
`
	assert.Equal(t, expected, buf.String())

	buf.Reset()
	require.NoError(t, Write(&buf, FormatYAML, nil))
	assert.Equal(t, "mismatches: []\n", buf.String())
}

func TestDeterministic(t *testing.T) {
	for _, format := range []Format{FormatText, FormatCSV, FormatYAML} {
		var first, second bytes.Buffer
		require.NoError(t, Write(&first, format, scenarioC))
		require.NoError(t, Write(&second, format, scenarioC))
		assert.Equal(t, first.String(), second.String(), string(format))
	}
}

func TestParseFormat(t *testing.T) {
	f, err := ParseFormat("YML")
	require.NoError(t, err)
	assert.Equal(t, FormatYAML, f)

	f, err = ParseFormat("text")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	_, err = ParseFormat("html")
	assert.Error(t, err)

	assert.Error(t, Write(&bytes.Buffer{}, Format("html"), nil))
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, ExitCode(nil))
	assert.Equal(t, 0, ExitCode([]abi.Mismatch{}))
	assert.Equal(t, 1, ExitCode(scenarioC))
}
