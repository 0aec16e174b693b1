package load

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/pgavlin/abicheck/abi"
)

// ErrNotFound is returned by FSResolver.Resolve when no file matches a name.
var ErrNotFound = errors.New("load: symbol file not found")

// FSResolver finds symbol files by name in a file system. A name may omit its extension.
type FSResolver struct {
	fs fs.FS
}

func NewFSResolver(fs fs.FS) *FSResolver {
	return &FSResolver{fs: fs}
}

var extensions = []string{"", ".yaml", ".yml", ".json", ".csv"}

// Resolve loads the symbol file called name, trying name itself and then name with each
// known extension.
func (r *FSResolver) Resolve(name string, role abi.Role) ([]abi.Symbol, error) {
	for _, ext := range extensions {
		f, err := r.fs.Open(name + ext)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}

		if info, err := f.Stat(); err == nil && info.IsDir() {
			f.Close()
			continue
		}
		defer f.Close()

		if strings.EqualFold(path.Ext(name+ext), ".csv") {
			return readCSV(f, role, name+ext)
		}
		return loadSymbols(f, role, name+ext)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
}
