// Package validation checks local file paths before a run touches them.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"hotfire/internal/infrastructure"
)

var (
	// ErrUnsupportedExtension is returned for logs that are neither CSV nor
	// Excel workbooks.
	ErrUnsupportedExtension = errors.New("unsupported log file extension")
	// ErrExcelLockFile marks the "~$name.xlsx" owner files Excel leaves
	// next to an open workbook.
	ErrExcelLockFile = errors.New("temporary Excel file")
	ErrNotAFile      = errors.New("not a file")
)

// logExtensions are the extensions the dataset loader understands.
var logExtensions = map[string]bool{
	".csv":  true,
	".txt":  true,
	".xlsx": true,
	".xlsm": true,
}

// FileValidator runs the path checks shared by the CLI and the server.
// Every rejection is logged at warn level with the offending path.
type FileValidator struct {
	logger *slog.Logger
}

func NewFileValidator(logger *slog.Logger) *FileValidator {
	return &FileValidator{logger: infrastructure.WithComponent(logger, "file_validator")}
}

func (v *FileValidator) reject(msg, path string, err error) error {
	v.logger.Warn(msg, slog.String("file", path), slog.String("error", err.Error()))
	return err
}

// ValidateFile checks that path exists, is a regular file and can be opened.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return v.reject("File does not exist", path, fmt.Errorf("file %s does not exist", path))
	case err != nil:
		return v.reject("Cannot stat file", path, fmt.Errorf("stat %s: %w", path, err))
	case !info.Mode().IsRegular():
		return v.reject("Path is not a regular file", path, fmt.Errorf("%s: %w", path, ErrNotAFile))
	}

	f, err := os.Open(path)
	if err != nil {
		return v.reject("File is not readable", path, fmt.Errorf("file %s is not readable: %w", path, err))
	}
	f.Close()

	v.logger.Debug("File validated", slog.String("file", path), slog.Int64("size", info.Size()))
	return nil
}

// ValidateLogFile checks that path is a readable CSV or Excel test log.
func (v *FileValidator) ValidateLogFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return v.reject("Skipping temporary Excel file", path, fmt.Errorf("%s: %w", path, ErrExcelLockFile))
	}
	if ext := strings.ToLower(filepath.Ext(path)); !logExtensions[ext] {
		return v.reject("File is not a test log", path, fmt.Errorf("%w: %s (extension %q)", ErrUnsupportedExtension, path, ext))
	}
	return nil
}

// ValidateOutputDirectory creates dir when missing and proves it writable
// by creating and removing a probe file.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return v.reject("Cannot create output directory", dir, fmt.Errorf("failed to create output directory %s: %w", dir, err))
	}
	probe, err := os.CreateTemp(dir, ".write_test")
	if err != nil {
		return v.reject("Output directory is not writable", dir, fmt.Errorf("output directory %s is not writable: %w", dir, err))
	}
	probe.Close()
	os.Remove(probe.Name())
	return nil
}

// ValidateOutputFile checks that path does not name a directory and that
// its parent directory is writable.
func (v *FileValidator) ValidateOutputFile(path string) error {
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		return v.reject("Output path is a directory", path, fmt.Errorf("%s: %w", path, ErrNotAFile))
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}
