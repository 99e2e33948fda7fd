// Copyright (c) 2025 QueryMind
// Licensed under the MIT License. See LICENSE file in the project root for details.

package workflow

import (
	"context"
	"path/filepath"
	"strings"

	"querymind/cli/internal/backend"
)

// UploadFailedMessage is the Reason of every failed upload.
const UploadFailedMessage = "upload failed"

// SchemaExtensions are the file types the picker suggests. They are a hint only;
// any non-empty file is accepted.
var SchemaExtensions = []string{".sql", ".csv"}

// Uploader sends a schema file.
type Uploader interface {
	UploadSchema(ctx context.Context, in backend.UploadInput) (backend.UploadResult, error)
}

// UploadState is a snapshot of an UploadWorkflow.
type UploadState = State[backend.UploadInput, backend.UploadResult]

// UploadWorkflow uploads one schema file per attempt. There is no retry and no chunking.
type UploadWorkflow struct {
	*Engine[backend.UploadInput, backend.UploadResult]
}

// NewUpload returns an Idle upload workflow.
func NewUpload(api Uploader, opts ...Option) *UploadWorkflow {
	return &UploadWorkflow{NewEngine[backend.UploadInput, backend.UploadResult]("upload", api.UploadSchema, validateUpload, UploadFailedMessage, opts...)}
}

func validateUpload(in backend.UploadInput) error {
	if in.Filename == "" && len(in.File) == 0 {
		return validationError("no file selected")
	}
	return nil
}

// SuggestedExtension reports whether filename has one of SchemaExtensions.
func SuggestedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	for _, e := range SchemaExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
