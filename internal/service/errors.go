package service

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrAccessDenied       = errors.New("access denied")
	ErrUnknownEntityType  = errors.New("unknown entity type")
	ErrInvalidResolution  = errors.New("unknown resolution strategy")
	ErrNoRecordedConflict = errors.New("no recorded conflict for record")
	ErrMergedDataRequired = errors.New("merged resolution requires mergedData")
	ErrEmptyBatch         = errors.New("push batch is empty")
	ErrBatchTooLarge      = errors.New("push batch exceeds maximum size")
)
