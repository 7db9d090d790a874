package bundlr

import "errors"

var (
	// ErrConnectionFailed indicates the store node could not be reached.
	ErrConnectionFailed = errors.New("bundlr: connection failed")

	// ErrInvalidResponse indicates the node returned a malformed response.
	ErrInvalidResponse = errors.New("bundlr: invalid response")

	// ErrUploadFailed indicates the node rejected an upload.
	ErrUploadFailed = errors.New("bundlr: upload failed")

	// ErrNotFound indicates no content exists for the reference.
	ErrNotFound = errors.New("bundlr: content not found")
)
