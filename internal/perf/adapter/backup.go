package adapter

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

const backupSuffix = ".bak"

// backup copies path to path.bak. With overwrite false an existing backup is
// an error, since it means a previous cleanup never ran.
func backup(path string, overwrite bool) error {
	dst := path + backupSuffix
	if !overwrite {
		if _, err := os.Stat(dst); err == nil {
			return fmt.Errorf("backup %s already exists", dst)
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
		return fmt.Errorf("write backup %s: %w", dst, err)
	}
	return nil
}

// restore moves path.bak back over path. A missing backup is not an error.
func restore(path string) error {
	err := os.Rename(path+backupSuffix, path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("restore %s: %w", path, err)
	}
	return nil
}

func removeAll(path string) error {
	if err := os.RemoveAll(path); err != nil {
		return fmt.Errorf("remove %s: %w", path, err)
	}
	return nil
}
