package ledger

import (
	"errors"
	"fmt"
)

// ErrNotFound matches every absence reported by the service.
var ErrNotFound = errors.New("not found")

var ErrDocumentNotFound = fmt.Errorf("document %w", ErrNotFound)

// VersionNotFoundError names the version number that does not exist.
type VersionNotFoundError struct {
	Number int
}

func (e *VersionNotFoundError) Error() string {
	return fmt.Sprintf("version %d not found", e.Number)
}

func (e *VersionNotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
