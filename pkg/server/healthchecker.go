package server

import (
	"context"
	"os"
)

type HealthChecker interface {
	Healthy(ctx context.Context) bool
}

// FileHealthChecker reports healthy while the watched file is readable.
type FileHealthChecker struct {
	path string
}

func NewFileHealthChecker(path string) *FileHealthChecker {
	return &FileHealthChecker{path: path}
}

func (hc *FileHealthChecker) Healthy(_ context.Context) bool {
	info, err := os.Stat(hc.path)
	return err == nil && info.Mode().IsRegular()
}
