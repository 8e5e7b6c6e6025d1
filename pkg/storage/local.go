package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// LocalWriter 把结果写入本地输出目录
type LocalWriter struct {
	Dir  string
	Perm os.FileMode
}

func NewLocalWriter(dir string) *LocalWriter {
	return &LocalWriter{Dir: dir, Perm: 0644}
}

// EnsureDir 递归创建输出目录
func (w *LocalWriter) EnsureDir() error {
	if err := os.MkdirAll(w.Dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory %s: %w", w.Dir, err)
	}
	return nil
}

// Write 先写入同目录下的临时文件再重命名，最终文件名下不会出现写了一半的内容。
// 同名文件直接覆盖，返回最终路径
func (w *LocalWriter) Write(name, text string) (string, error) {
	if err := w.EnsureDir(); err != nil {
		return "", err
	}
	final := filepath.Join(w.Dir, name)

	tmp, err := os.CreateTemp(w.Dir, "."+name+".*.tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if _, err := tmp.WriteString(text); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to write %s: %w", final, err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return "", fmt.Errorf("failed to sync %s: %w", final, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to close %s: %w", final, err)
	}
	perm := w.Perm
	if perm == 0 {
		perm = 0644
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return "", err
	}
	if err := os.Rename(tmpName, final); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("failed to rename %s: %w", final, err)
	}
	return final, nil
}
