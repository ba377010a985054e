package pricemcp

import (
	"errors"
	"io"
	"net"
	"os"
	"runtime/debug"

	"github.com/baalimago/go_away_boilerplate/pkg/ancli"
)

// Safe mode, recover the panic, prevent crash the server.
func Safe(f func()) func() {
	return func() {
		defer func() {
			if rec := recover(); rec != nil {
				stack := debug.Stack()
				ancli.Errf("panic: %v, stack: %s\n", rec, stack)
			}
		}()
		f()
	}
}

// isClosedError 检查错误是否是由于连接关闭导致的
func isClosedError(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, os.ErrClosed)
}
