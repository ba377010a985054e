package pricemcp

import (
	"fmt"
	"io"
	"os"

	"github.com/gofrs/flock"
)

// Output 结果输出目标
type Output struct {
	io.Writer
	file *os.File
	lock *flock.Flock
}

// OpenOutput 打开结果输出。path 为空或 "-" 时使用 stdout；
// 否则以追加方式打开文件，并持有 <path>.lock 的排他锁直到 Close，
// 避免重叠的定时任务交错写入。
func OpenOutput(path string, stdout io.Writer) (*Output, error) {
	if path == "" || path == "-" {
		return &Output{Writer: stdout}, nil
	}

	lock := flock.New(path + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, fmt.Errorf("failed to lock output %s: %w", path, err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open output %s: %w", path, err)
	}
	return &Output{Writer: file, file: file, lock: lock}, nil
}

// Close 关闭文件并释放锁
func (o *Output) Close() error {
	if o.file == nil {
		return nil
	}
	err := o.file.Close()
	if uerr := o.lock.Unlock(); uerr != nil && err == nil {
		err = uerr
	}
	o.file = nil
	return err
}
