package template

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/natefinch/atomic"
)

// WriteRendered writes rendered content to the derived output path for the
// template, creating parent directories as needed. The write is atomic so a
// failed render never leaves a truncated output behind.
func WriteRendered(templatePath, content string) (string, error) {
	out := OutputPath(templatePath)

	if err := os.MkdirAll(filepath.Dir(out), 0755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	if err := atomic.WriteFile(out, strings.NewReader(content)); err != nil {
		return "", fmt.Errorf("write %s: %w", out, err)
	}

	return out, nil
}
