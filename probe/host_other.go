//go:build !linux

package probe

import "github.com/pgavlin/abicheck/abi"

// Host returns ErrUnsupported: host facts are only recorded for Linux.
func Host() ([]abi.Symbol, error) {
	return nil, ErrUnsupported
}
