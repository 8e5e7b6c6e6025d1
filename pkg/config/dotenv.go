package config

import (
	"errors"
	"io/fs"
	"os"

	"github.com/subosito/gotenv"
	"github.com/wentf9/showcmd/pkg/errs"
)

// LoadDotenv 将 .env 文件中的键值加载到进程环境变量，已存在的变量不会被覆盖。
// 文件不存在时静默返回。
func LoadDotenv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := gotenv.Load(path); err != nil {
		return errs.Configf("failed to load %s: %w", path, err)
	}
	return nil
}
