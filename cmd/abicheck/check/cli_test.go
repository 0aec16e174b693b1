package check

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/config"
)

var t2Dir = filepath.Join("..", "..", "..", "internal", "testdata", "t2")

func TestRunAgainstFacts(t *testing.T) {
	c := config.Default()
	c.Targets = []string{"ctest-t2"}
	c.Truth = []string{filepath.Join(t2Dir, "t2_facts.csv")}

	reports, err := run(context.Background(), zap.NewNop(), c, false)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "ctest-t2", reports[0].Target)
	assert.Empty(t, reports[0].Mismatches)
}

func TestRunDeclarationFiles(t *testing.T) {
	decls := filepath.Join(t.TempDir(), "decls.yaml")
	require.NoError(t, os.WriteFile(decls, []byte(`symbols:
  - {name: T2C, kind: const, type: i32, value: 6}
  - {name: T2Gone, kind: alias, type: u32}
`), 0600))

	c := config.Default()
	c.Declarations = []string{decls}
	c.Truth = []string{filepath.Join(t2Dir, "t2_facts.csv")}

	reports, err := run(context.Background(), zap.NewNop(), c, false)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "", reports[0].Target)

	categories := map[string]abi.Category{}
	var lines []string
	for _, m := range reports[0].Mismatches {
		categories[m.Symbol] = m.Category
		lines = append(lines, m.String())
	}
	assert.Contains(t, lines, "T2C: value-differs: declared 6, truth 5")
	assert.Contains(t, lines, "T2Gone: missing-in-truth: declared alias u32")
	assert.Equal(t, abi.MissingInDeclaration, categories["T2Baz"])
}

func TestRunDuplicateAcrossSources(t *testing.T) {
	decls := filepath.Join(t.TempDir(), "decls.yaml")
	require.NoError(t, os.WriteFile(decls, []byte("symbols:\n  - {name: T2Foo, kind: alias, type: u32}\n"), 0600))

	c := config.Default()
	c.Targets = []string{"ctest-t2"}
	c.Declarations = []string{decls}
	c.Truth = []string{filepath.Join(t2Dir, "t2_facts.csv")}

	_, err := run(context.Background(), zap.NewNop(), c, false)
	var dup *abi.DuplicateSymbolError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "T2Foo", dup.Name)
}

func TestRunLaysOutDeclarationFiles(t *testing.T) {
	decls := filepath.Join(t.TempDir(), "decls.yaml")
	require.NoError(t, os.WriteFile(decls, []byte(`symbols:
  - name: T2Baz
    kind: struct
    fields:
      - {name: b, type: u32}
      - {name: a, type: i64}
`), 0600))

	c := config.Default()
	c.Declarations = []string{decls}
	c.Truth = []string{filepath.Join(t2Dir, "t2_facts.csv")}

	reports, err := run(context.Background(), zap.NewNop(), c, false)
	require.NoError(t, err)
	require.Len(t, reports, 1)

	offsets := map[string]abi.Category{}
	for _, m := range reports[0].Mismatches {
		if m.Symbol == "T2Baz" && m.Category == abi.OffsetDiffers {
			offsets[m.Field] = m.Category
		}
	}
	assert.Contains(t, offsets, "a")
	assert.Contains(t, offsets, "b")
}
