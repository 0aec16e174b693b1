//go:build linux

package probe

import (
	"reflect"
	"unsafe"

	"golang.org/x/sys/unix"

	"github.com/pgavlin/abicheck/abi"
)

// Host returns the facts that golang.org/x/sys/unix records for the running platform:
// the layout of struct stat, a few scalar typedefs, open(2) flags, and syscall numbers.
func Host() ([]abi.Symbol, error) {
	stat, err := FromGoStruct("stat", reflect.TypeOf(unix.Stat_t{}), statName)
	if err != nil {
		return nil, err
	}
	stat64 := stat.Clone()
	stat64.Name = "stat64"

	var (
		dev  uint64
		size uintptr
		long int
		ts   unix.Timespec
	)

	facts := []abi.Symbol{
		stat,
		stat64,
		goAlias("size_t", reflect.TypeOf(size)),
		goAlias("dev_t", reflect.TypeOf(dev)),
		goAlias("c_long", reflect.TypeOf(long)),
		goAlias("time_t", reflect.TypeOf(ts.Sec)),
	}

	intSize := int64(unsafe.Sizeof(int32(0)))
	flags := []struct {
		name  string
		value int
	}{
		{"O_DIRECT", unix.O_DIRECT},
		{"O_DIRECTORY", unix.O_DIRECTORY},
		{"O_NOFOLLOW", unix.O_NOFOLLOW},
		{"O_LARGEFILE", unix.O_LARGEFILE},
		{"O_CLOEXEC", unix.O_CLOEXEC},
		{"O_NONBLOCK", unix.O_NONBLOCK},
	}
	for _, f := range flags {
		c := abi.Const(f.name, "", abi.IntValue(int64(f.value)))
		c.Size, c.Align, c.Signedness = intSize, intSize, abi.Signed
		facts = append(facts, c)
	}

	longSize := int64(unsafe.Sizeof(long))
	syscalls := []struct {
		name   string
		number uintptr
	}{
		{"SYS_read", unix.SYS_READ},
		{"SYS_write", unix.SYS_WRITE},
		{"SYS_close", unix.SYS_CLOSE},
		{"SYS_openat", unix.SYS_OPENAT},
		{"SYS_dup3", unix.SYS_DUP3},
		{"SYS_pipe2", unix.SYS_PIPE2},
		{"SYS_futex", unix.SYS_FUTEX},
		{"SYS_execve", unix.SYS_EXECVE},
		{"SYS_exit_group", unix.SYS_EXIT_GROUP},
		{"SYS_kill", unix.SYS_KILL},
		{"SYS_getpid", unix.SYS_GETPID},
		{"SYS_gettid", unix.SYS_GETTID},
	}
	for _, s := range syscalls {
		c := abi.Const(s.name, "", abi.IntValue(int64(s.number)))
		c.Size, c.Align, c.Signedness = longSize, longSize, abi.Signed
		facts = append(facts, c)
	}

	return facts, nil
}
