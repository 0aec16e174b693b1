//go:build linux

package probe

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"

	"github.com/pgavlin/abicheck/abi"
)

func TestHost(t *testing.T) {
	facts, err := Host()
	require.NoError(t, err)

	byName := map[string]abi.Symbol{}
	for _, f := range facts {
		_, dup := byName[f.Name]
		require.False(t, dup, f.Name)
		byName[f.Name] = f
	}

	stat := byName["stat"]
	assert.Equal(t, int64(unsafe.Sizeof(unix.Stat_t{})), stat.Size)

	offsets := map[string]int64{}
	for _, f := range stat.Fields {
		if !f.Padding {
			offsets[f.Name] = f.Offset
		}
	}
	assert.Equal(t, int64(unsafe.Offsetof(unix.Stat_t{}.Size)), offsets["st_size"])
	assert.Equal(t, int64(unsafe.Offsetof(unix.Stat_t{}.Mtim)), offsets["st_mtime"])
	assert.Contains(t, offsets, "st_ctime_nsec")

	assert.Equal(t, stat.Size, byName["stat64"].Size)
	getpid := byName["SYS_getpid"]
	assert.True(t, abi.IntValue(unix.SYS_GETPID).Equal(getpid.Value))
	assert.Equal(t, abi.Signed, getpid.Signedness)
	assert.Equal(t, int64(unsafe.Sizeof(uintptr(0))), getpid.Size)
	assert.True(t, abi.IntValue(unix.O_NOFOLLOW).Equal(byName["O_NOFOLLOW"].Value))
	assert.Equal(t, abi.Unsigned, byName["size_t"].Signedness)
}
