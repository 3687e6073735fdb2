package utils

import errors "github.com/go-errors/errors"

var (
	// A tracked process family has no live process.
	NotFoundError = errors.New("NotFoundError")

	// An OS command is missing, exited non-zero, timed out or
	// produced output of the wrong shape.
	ExternalToolError = errors.New("ExternalToolError")

	// Expected content is missing from otherwise valid output.
	ParseError = errors.New("ParseError")

	InvalidArgumentError = errors.New("InvalidArgumentError")
)
