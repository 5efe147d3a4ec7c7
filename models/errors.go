package models

import "errors"

var (
	// ErrNoFileUploaded is returned by file accessors of a post without an attachment.
	ErrNoFileUploaded = errors.New("no file uploaded")
	// ErrNoFileExtension is returned when the attached file name has no extension.
	ErrNoFileExtension = errors.New("file has no extension")
	// ErrNoAuthor is returned when the author of a post has been deleted.
	ErrNoAuthor = errors.New("author not available")
	// ErrInvalidSlug rejects slugs that are not a single URL path segment.
	ErrInvalidSlug = errors.New("invalid slug")
)
