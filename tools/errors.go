package tools

import "errors"

var (
	// ErrUnknownTool is returned by Call for a name no tool is registered under
	ErrUnknownTool = errors.New("unknown tool")
	// ErrInvalidCaseID indicates a case reference that is neither "123" nor "C123"
	ErrInvalidCaseID = errors.New("invalid case id")
	// ErrNoCaseIDs indicates a bulk operation was given no cases
	ErrNoCaseIDs = errors.New("at least one case id is required")
	// ErrFileNotFound indicates the attachment path does not exist
	ErrFileNotFound = errors.New("File or directory not found")
	// ErrUploadTooLarge indicates the attachment exceeds the configured limit
	ErrUploadTooLarge = errors.New("attachment exceeds maximum upload size")
)
