// Package validation checks workbook inputs before they reach the excelize
// reader so the failure names the path problem instead of a zip error.
package validation

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apierrors "dropoutlens/internal/errors"
)

// WorkbookExtensions lists the spreadsheet formats excelize can open
var WorkbookExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// WorkbookValidator validates dropout workbook files
type WorkbookValidator struct {
	logger *slog.Logger
}

// NewWorkbookValidator creates a new workbook validator
func NewWorkbookValidator(logger *slog.Logger) *WorkbookValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &WorkbookValidator{
		logger: logger,
	}
}

// ValidateFile checks that path exists, is a regular file and can be opened
func (v *WorkbookValidator) ValidateFile(path string) (fs.FileInfo, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Workbook does not exist", slog.String("file", path))
		return nil, dataSourceError(fmt.Sprintf("workbook %s does not exist", path), err, path)
	}
	if err != nil {
		v.logger.Error("Failed to stat workbook",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, dataSourceError(fmt.Sprintf("failed to stat workbook %s", path), err, path)
	}
	if info.IsDir() {
		v.logger.Error("Workbook path is a directory", slog.String("path", path))
		return nil, dataSourceError(fmt.Sprintf("%s is a directory, not a workbook", path), nil, path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("Workbook is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return nil, dataSourceError(fmt.Sprintf("workbook %s is not readable", path), err, path)
	}
	file.Close()

	v.logger.Debug("Workbook file validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return info, nil
}

// ValidateWorkbook runs ValidateFile and rejects names excelize cannot
// open, including the lock files office suites leave next to open
// documents
func (v *WorkbookValidator) ValidateWorkbook(path string) (fs.FileInfo, error) {
	info, err := v.ValidateFile(path)
	if err != nil {
		return nil, err
	}

	if !IsWorkbookName(path) {
		ext := strings.ToLower(filepath.Ext(path))
		v.logger.Error("File is not an xlsx workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return nil, dataSourceError(fmt.Sprintf("file %s is not an xlsx workbook (extension: %q)", path, ext), nil, path)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Refusing temporary workbook", slog.String("file", path))
		return nil, dataSourceError(fmt.Sprintf("file %s is a temporary lock file", path), nil, path)
	}

	return info, nil
}

// IsWorkbookName reports whether path carries a workbook extension
func IsWorkbookName(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, want := range WorkbookExtensions {
		if ext == want {
			return true
		}
	}
	return false
}

func dataSourceError(msg string, cause error, path string) error {
	return apierrors.NewDataSourceError(msg, cause).WithContext("path", path)
}
