package common

import (
	"context"
	"io"
	"os"

	"resumescore/internal/errors"
	"resumescore/internal/extract"
)

// LogDetailsFunc defines how to log the start of an operation.
type LogDetailsFunc func(doc extract.Document, cfg CommandConfig)

// DocumentOperationFunc runs one résumé operation over a loaded document.
type DocumentOperationFunc[Output any] func(context.Context, extract.Document) (Output, error)

// RunDocumentCommand reads the single résumé file in args, runs operation
// on it and writes the formatted result to stdout or cmdConfig.OutputFile.
func RunDocumentCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	operation DocumentOperationFunc[Output],
	logDetails LogDetailsFunc,
) error {
	return runDocumentCommand(ctx, logger, cmdConfig, args, operation, logDetails, os.Stdout)
}

func runDocumentCommand[Output any](
	ctx context.Context,
	logger *errors.Logger,
	cmdConfig CommandConfig,
	args []string,
	operation DocumentOperationFunc[Output],
	logDetails LogDetailsFunc,
	stdout io.Writer,
) error {
	fileProcessor := NewFileProcessor(logger)
	outputHandler := NewOutputHandlerWithWriter(logger, stdout)

	if len(args) != 1 {
		return errors.NewValidationError(errors.ErrCodeInvalidRequest,
			"exactly one resume file is required", nil)
	}

	// Fail on a bad output path before doing any work
	if err := fileProcessor.ValidateOutputFile(cmdConfig.OutputFile); err != nil {
		return err
	}

	doc, err := fileProcessor.ReadDocument(args[0], cmdConfig.MaxFileSize)
	if err != nil {
		return err
	}

	if logDetails != nil {
		logDetails(doc, cmdConfig)
	}

	result, err := operation(ctx, doc)
	if err != nil {
		return err
	}

	return outputHandler.HandleOutput(result, cmdConfig)
}
