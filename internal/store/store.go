package store

import "context"

// Uploader publishes a local artifact and returns its durable reference URL.
//
// An empty URL with a nil error means publishing is disabled or declined;
// callers leave the record's prior reference in place. Errors are provider
// failures, also non-fatal at the record level.
type Uploader interface {
	Upload(ctx context.Context, localPath, objectName string) (string, error)
}

// Disabled is the no-store mode: every upload reports absence.
type Disabled struct{}

func (Disabled) Upload(ctx context.Context, localPath, objectName string) (string, error) {
	return "", nil
}
