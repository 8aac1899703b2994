// Package fs reads and writes the files propyaml converts.
//
// Writes are atomic: data goes to a temporary file in the target directory
// which is then renamed over the target, so a failed write never leaves a
// partially written file behind.
package fs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/yacchi/propyaml/document"
	"github.com/yacchi/propyaml/watcher"
)

type tempFile interface {
	Write(p []byte) (n int, err error)
	Sync() error
	Close() error
	Name() string
}

var (
	userHomeDir = os.UserHomeDir
	osReadFile  = os.ReadFile
	osMkdirAll  = os.MkdirAll
	osChmod     = os.Chmod
	osRename    = os.Rename
	osRemove    = os.Remove

	createTemp = func(dir, pattern string) (tempFile, error) {
		return os.CreateTemp(dir, pattern)
	}
)

// Default permission modes.
const (
	DefaultFileMode = 0644
	DefaultDirMode  = 0755
)

type saveConfig struct {
	fileMode os.FileMode
	dirMode  os.FileMode
}

// Option configures Save.
type Option func(*saveConfig)

// WithFileMode sets the file permission mode used when saving.
// Default is 0644.
func WithFileMode(mode os.FileMode) Option {
	return func(c *saveConfig) {
		c.fileMode = mode
	}
}

// WithDirMode sets the directory permission mode used when creating parent directories.
// Default is 0755.
func WithDirMode(mode os.FileMode) Option {
	return func(c *saveConfig) {
		c.dirMode = mode
	}
}

// Load reads the file at path. Tilde (~) expansion is supported.
// Failures are reported as *document.IOError.
func Load(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	expanded, err := expandTilde(path)
	if err != nil {
		return nil, &document.IOError{Op: "read", Path: path, Err: err}
	}

	data, err := osReadFile(expanded)
	if err != nil {
		return nil, &document.IOError{Op: "read", Path: path, Err: err}
	}
	return data, nil
}

// Save writes data to path, replacing any existing file.
//
// Parent directories are created if they do not exist. The write is
// performed atomically by writing to a temporary file first, then renaming
// it to the target path. Failures are reported as *document.IOError.
//
// Example:
//
//	err := fs.Save(ctx, "out/app.yml", data, fs.WithFileMode(0600))
func Save(ctx context.Context, path string, data []byte, opts ...Option) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := saveConfig{fileMode: DefaultFileMode, dirMode: DefaultDirMode}
	for _, opt := range opts {
		opt(&cfg)
	}

	targetPath, err := expandTilde(path)
	if err != nil {
		return &document.IOError{Op: "write", Path: path, Err: err}
	}

	// Ensure parent directory exists
	dir := filepath.Dir(targetPath)
	if err := osMkdirAll(dir, cfg.dirMode); err != nil {
		return &document.IOError{Op: "create directory", Path: dir, Err: err}
	}

	tmpFile, err := createTemp(dir, ".propyaml-*.tmp")
	if err != nil {
		return &document.IOError{Op: "create temporary file for", Path: path, Err: err}
	}
	tmpPath := tmpFile.Name()

	// Clean up temporary file on error
	success := false
	defer func() {
		if !success {
			osRemove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		tmpFile.Close()
		return &document.IOError{Op: "write", Path: path, Err: err}
	}

	// Sync to ensure data is flushed to disk
	if err := tmpFile.Sync(); err != nil {
		tmpFile.Close()
		return &document.IOError{Op: "sync", Path: path, Err: err}
	}

	if err := tmpFile.Close(); err != nil {
		return &document.IOError{Op: "write", Path: path, Err: err}
	}

	if err := osChmod(tmpPath, cfg.fileMode); err != nil {
		return &document.IOError{Op: "set permissions on", Path: path, Err: err}
	}

	if err := osRename(tmpPath, targetPath); err != nil {
		return &document.IOError{Op: "replace", Path: path, Err: err}
	}

	success = true
	return nil
}

// expandTilde expands tilde (~) in the path.
// Handles both "~" (home directory) and "~/path" (path under home).
func expandTilde(path string) (string, error) {
	if len(path) == 0 || path[0] != '~' {
		return path, nil
	}

	homeDir, err := userHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand home directory: %w", err)
	}

	if len(path) == 1 {
		return homeDir, nil
	}

	if path[1] == '/' || path[1] == filepath.Separator {
		return filepath.Join(homeDir, path[2:]), nil
	}

	// "~something" - not a valid home expansion, return as-is
	return path, nil
}

// Subscribe watches path with fsnotify and calls notify(nil) when the file
// is written, created or renamed, and notify(err) when watching fails.
//
// The directory containing the file is watched rather than the file itself,
// so atomic replacements (temp file + rename) and recreation are observed.
func Subscribe(ctx context.Context, path string, notify watcher.NotifyFunc) (watcher.StopFunc, error) {
	expanded, err := expandTilde(path)
	if err != nil {
		return nil, &document.IOError{Op: "watch", Path: path, Err: err}
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	dir := filepath.Dir(expanded)
	if err := w.Add(dir); err != nil {
		w.Close()
		return nil, &document.IOError{Op: "watch", Path: dir, Err: err}
	}

	filename := filepath.Base(expanded)

	go func() {
		for {
			select {
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != filename {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					notify(nil)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				notify(err)
			case <-ctx.Done():
				return
			}
		}
	}()

	stop := func(ctx context.Context) error {
		return w.Close()
	}

	return stop, nil
}
