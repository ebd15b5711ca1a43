// Package businessflow contains the core business logic and use cases for campaign listing
package businessflow

import (
	"errors"
	"fmt"

	"github.com/amirphl/filterkit/filterset"
)

// Business flow error constants
var (
	// Campaign-related errors
	ErrCampaignNotFound     = errors.New("campaign not found")
	ErrCampaignUUIDRequired = errors.New("campaign UUID is required")
	ErrInvalidCampaignUUID  = errors.New("campaign UUID is malformed")

	// Listing errors
	ErrInvalidPage     = errors.New("page must be at least 1")
	ErrInvalidPageSize = errors.New("page size is out of range")
	ErrInvalidOrdering = errors.New("unknown ordering")
	ErrInvalidFilters  = errors.New("invalid filter values")
	ErrExportTooLarge  = errors.New("too many campaigns to export")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsCampaignNotFound(err error) bool {
	return errors.Is(err, ErrCampaignNotFound)
}

func IsCampaignUUIDRequired(err error) bool {
	return errors.Is(err, ErrCampaignUUIDRequired)
}

func IsInvalidCampaignUUID(err error) bool {
	return errors.Is(err, ErrInvalidCampaignUUID)
}

func IsInvalidPage(err error) bool {
	return errors.Is(err, ErrInvalidPage)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsInvalidOrdering(err error) bool {
	return errors.Is(err, ErrInvalidOrdering)
}

func IsInvalidFilters(err error) bool {
	return errors.Is(err, ErrInvalidFilters)
}

func IsExportTooLarge(err error) bool {
	return errors.Is(err, ErrExportTooLarge)
}

// FilterErrors returns the per-filter validation errors carried by err
func FilterErrors(err error) (filterset.Errors, bool) {
	var fe filterset.Errors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}
