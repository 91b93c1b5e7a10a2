package common

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
	"resumescore/internal/utils"
)

// FileProcessor handles common file operations
type FileProcessor struct {
	logger *errors.Logger
}

// NewFileProcessor creates a new file processor instance
func NewFileProcessor(logger *errors.Logger) *FileProcessor {
	return &FileProcessor{logger: logger}
}

// ReadFile reads content from a file with proper error handling
func (fp *FileProcessor) ReadFile(filename string) ([]byte, error) {
	file, err := os.Open(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewIOError(errors.ErrCodeFileNotFound,
				fmt.Sprintf("File not found: %s", filename), err)
		}
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Cannot read file: %s", filename), err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			// Log the error but don't override the main operation result
			if fp.logger != nil {
				fp.logger.Warn("Failed to close file", "filename", filename, "error", err)
			}
		}
	}()

	content, err := io.ReadAll(file)
	if err != nil {
		return nil, errors.NewIOError(errors.ErrCodeFileNotReadable,
			fmt.Sprintf("Failed to read file content: %s", filename), err)
	}

	return content, nil
}

// WriteFile writes content to a file with directory creation
func (fp *FileProcessor) WriteFile(filename, content string) error {
	dir := filepath.Dir(filename)
	if dir != "." {
		err := os.MkdirAll(dir, 0750)
		if err != nil {
			return errors.NewIOError("DIRECTORY_CREATE_FAILED",
				fmt.Sprintf("Cannot create directory: %s", dir), err)
		}
	}

	err := os.WriteFile(filename, []byte(content), 0600)
	if err != nil {
		return errors.NewIOError("FILE_WRITE_FAILED",
			fmt.Sprintf("Cannot write file: %s", filename), err)
	}

	return nil
}

// ReadDocument validates a résumé file and loads it for extraction. The
// MIME type is resolved from the extension, falling back to the content.
func (fp *FileProcessor) ReadDocument(filename string, maxSize int64) (extract.Document, error) {
	if err := utils.ValidateInputFile(filename, maxSize); err != nil {
		code := "INVALID_INPUT_FILE"
		if maxSize > 0 {
			if info, statErr := os.Stat(filename); statErr == nil && info.Size() > maxSize {
				code = errors.ErrCodeFileTooLarge
			}
		}
		return extract.Document{}, errors.NewValidationError(code,
			fmt.Sprintf("Invalid file %s", filename), err)
	}

	if !utils.IsResumeFile(filename) && fp.logger != nil {
		fp.logger.Warn("Unrecognized resume file extension, detecting type from content",
			"filename", filename,
			"supported", extract.SupportedExtensions())
	}

	data, err := fp.ReadFile(filename)
	if err != nil {
		return extract.Document{}, err // Error already wrapped by ReadFile
	}

	return extract.Document{
		Name:     filepath.Base(filename),
		MIMEType: extract.DetectMIMEType(filename, data),
		Data:     data,
	}, nil
}

// ValidateOutputFile validates output file path
func (fp *FileProcessor) ValidateOutputFile(filename string) error {
	if filename == "" {
		return nil // stdout is valid
	}

	if err := utils.ValidateOutputFile(filename); err != nil {
		return errors.NewValidationError("INVALID_OUTPUT_FILE",
			fmt.Sprintf("Invalid output file: %s", filename), err)
	}

	return nil
}
