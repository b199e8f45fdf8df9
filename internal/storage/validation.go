// Package storage provides the data persistence layer for profiles and
// analysis history.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/rfm-segments/internal/model"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidID       = errors.New("invalid id")
	ErrInvalidAnalysis = errors.New("invalid analysis")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateUserID ensures a profile id refers to a stored row.
func validateUserID(id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: user id %d", ErrInvalidID, id)
	}
	return nil
}

// validateAnalysis validates an analysis before it is stored.
func validateAnalysis(a *model.Analysis) error {
	if a == nil {
		return fmt.Errorf("%w: analysis", ErrNilParameter)
	}
	if err := validateUserID(a.UserID); err != nil {
		return err
	}
	if a.Snapshot == nil {
		return fmt.Errorf("%w: missing snapshot", ErrInvalidAnalysis)
	}
	if strings.TrimSpace(a.FileName) == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidAnalysis)
	}
	return nil
}
