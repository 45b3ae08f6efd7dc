package utils

import (
	"fmt"
	"io"
	"os"
	"path"

	"github.com/google/uuid"
	"github.com/spf13/afero"
)

// SafeWriteFile 先写临时文件再rename覆盖目标, 不会自动创建父目录
func SafeWriteFile(fs afero.Fs, dst string, r io.Reader) (int64, error) {
	dstTmp := path.Join(path.Dir(dst), "."+path.Base(dst)+"."+uuid.NewString()+".temp")
	f, err := fs.OpenFile(dstTmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return 0, fmt.Errorf("create tmp file failed, err:%w", err)
	}
	defer func() {
		_ = fs.Remove(dstTmp)
	}()
	n, err := io.Copy(f, r)
	if err != nil {
		_ = f.Close()
		return 0, fmt.Errorf("copy stream to tmp file failed, err:%w", err)
	}
	if err := f.Close(); err != nil {
		return 0, fmt.Errorf("close tmp file failed, err:%w", err)
	}
	if err := fs.Rename(dstTmp, dst); err != nil {
		return 0, fmt.Errorf("rename tmp file to target failed, err:%w", err)
	}
	return n, nil
}
