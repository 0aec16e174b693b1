package probe

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/pgavlin/abicheck/abi"
	"github.com/pgavlin/abicheck/load"
)

// CompileError is returned by Run when the probe program does not compile. The usual
// cause is a declared name the platform's headers do not define.
type CompileError struct {
	CC     string
	Output string
	Err    error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("probe: %s: %v\n%s", e.CC, e.Err, e.Output)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// Run generates the probe program for symbols, compiles it with the configured compiler,
// runs it, and returns the facts it prints. The result carries the Truth role: malformed
// output is reported as an *abi.MalformedFactError.
func Run(ctx context.Context, symbols []abi.Symbol, options Options) ([]abi.Symbol, error) {
	logger := options.logger()

	dir, err := os.MkdirTemp("", "abicheck-probe-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "probe.c")
	f, err := os.Create(source)
	if err != nil {
		return nil, err
	}
	if err := Generate(f, symbols, options); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Close(); err != nil {
		return nil, err
	}

	binary := filepath.Join(dir, "probe")
	args := []string{"-std=gnu11", "-o", binary}
	for _, dir := range options.IncludeDirs {
		args = append(args, "-I", dir)
	}
	args = append(args, options.Flags...)
	args = append(args, source)

	cc := options.cc()
	logger.Debug("compiling probe", zap.String("cc", cc), zap.Strings("args", args), zap.Int("symbols", len(symbols)))

	start := time.Now()
	var stderr bytes.Buffer
	compile := exec.CommandContext(ctx, cc, args...)
	compile.Stderr = &stderr
	if err := compile.Run(); err != nil {
		return nil, &CompileError{CC: cc, Output: stderr.String(), Err: err}
	}
	logger.Debug("compiled probe", zap.Duration("elapsed", time.Since(start)))

	stderr.Reset()
	run := exec.CommandContext(ctx, binary)
	run.Stderr = &stderr
	out, err := run.Output()
	if err != nil {
		return nil, fmt.Errorf("probe: running probe: %w: %s", err, stderr.String())
	}

	facts, err := load.LoadSymbols(bytes.NewReader(out), abi.Truth)
	if err != nil {
		return nil, err
	}
	inferPadding(symbols, facts)
	logger.Info("probed platform", zap.String("cc", cc), zap.Int("facts", len(facts)))
	return facts, nil
}

// inferPadding adds the unnamed padding the probe cannot observe. For each struct whose
// declaration contains unnamed padding, every gap between the probed members (and
// between the last member and the end of the struct) becomes a padding fact.
func inferPadding(declared, facts []abi.Symbol) {
	wantsPadding := map[string]bool{}
	for _, d := range declared {
		if d.Kind != abi.KindStruct {
			continue
		}
		for _, f := range d.Fields {
			if f.Padding && f.Name == "" {
				wantsPadding[d.Name] = true
				break
			}
		}
	}

	for i := range facts {
		s := &facts[i]
		if s.Kind != abi.KindStruct || s.Opaque || !wantsPadding[s.Name] || s.Size == abi.Unset {
			continue
		}

		fields := append([]abi.Field(nil), s.Fields...)
		sort.SliceStable(fields, func(i, j int) bool { return fields[i].Offset < fields[j].Offset })

		var withGaps []abi.Field
		var end int64
		for _, f := range fields {
			if f.Offset > end {
				withGaps = append(withGaps, gap(end, f.Offset))
			}
			withGaps = append(withGaps, f)
			if e := f.Offset + f.Size; e > end {
				end = e
			}
		}
		if s.Size > end {
			withGaps = append(withGaps, gap(end, s.Size))
		}
		s.Fields = withGaps
	}
}

func gap(start, end int64) abi.Field {
	return abi.Field{
		Padding: true,
		Type:    fmt.Sprintf("[u8; %d]", end-start),
		Offset:  start,
		Size:    end - start,
	}
}
