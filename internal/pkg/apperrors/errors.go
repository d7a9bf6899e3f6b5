package apperrors

import "errors"

// Common errors
var (
	// Resource errors
	ErrResourceNotFound      = errors.New("resource not found")
	ErrResourceAlreadyExists = errors.New("resource already exists")
	ErrConflict              = errors.New("conflict")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrAccountDisabled    = errors.New("account is disabled")
	ErrTooManyRequests    = errors.New("too many requests")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed = errors.New("validation failed")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidRole      = errors.New("invalid role")
	ErrBadRequest       = errors.New("bad request")
)

// User errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrLastAdmin          = errors.New("at least one administrator must remain")
)

// System errors
var (
	ErrSystemAlreadyInitialized = errors.New("system already initialized")
	ErrInvalidMasterPassword    = errors.New("invalid master password")
)

// Password request errors
var (
	ErrPasswordRequestNotFound = errors.New("password request not found")
	ErrPasswordRequestExists   = errors.New("a pending request already exists for this email")
	ErrPasswordRequestReviewed = errors.New("password request has already been reviewed")
)

// Domain record errors
var (
	ErrStudentNotFound     = errors.New("student not found")
	ErrTeacherNotFound     = errors.New("teacher not found or invalid role")
	ErrClassroomNotFound   = errors.New("classroom not found")
	ErrClassroomNotUsable  = errors.New("classroom is under maintenance")
	ErrClassroomInUse      = errors.New("classroom already has an active usage report")
	ErrUsageReportNotFound = errors.New("usage report not found")
	ErrUsageReportClosed   = errors.New("usage report is not active")
	ErrSessionNotFound     = errors.New("session not found")
	ErrSessionCancelled    = errors.New("cancelled sessions cannot be confirmed")
	ErrInvalidTimeRange    = errors.New("end time must be after start time")
)

// notFound lists sentinels that map to 404
var notFound = []error{
	ErrUserNotFound,
	ErrStudentNotFound,
	ErrTeacherNotFound,
	ErrClassroomNotFound,
	ErrUsageReportNotFound,
	ErrSessionNotFound,
	ErrPasswordRequestNotFound,
}

// conflicts lists sentinels that map to 409
var conflicts = []error{
	ErrResourceAlreadyExists,
	ErrEmailAlreadyExists,
	ErrLastAdmin,
	ErrSystemAlreadyInitialized,
	ErrPasswordRequestExists,
	ErrPasswordRequestReviewed,
	ErrClassroomNotUsable,
	ErrClassroomInUse,
	ErrUsageReportClosed,
	ErrSessionCancelled,
}

// validation lists sentinels that map to 400
var validation = []error{
	ErrBadRequest,
	ErrInvalidPassword,
	ErrInvalidRole,
	ErrInvalidTimeRange,
}

// IsNotFound reports whether err is any not-found error
func IsNotFound(err error) bool {
	return Is(err, ErrResourceNotFound, notFound...)
}

// IsConflict reports whether err is any conflict error
func IsConflict(err error) bool {
	return Is(err, ErrConflict, conflicts...)
}

// IsValidation reports whether err is any validation error
func IsValidation(err error) bool {
	return Is(err, ErrValidationFailed, validation...)
}

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewValidationError wraps ErrValidationFailed with a field-level message
func NewValidationError(field, message string) error {
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: map[string]interface{}{"field": field},
	}
}

// Is returns whether err matches target or any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// Message returns the most specific user-facing message carried by err.
// Plain sentinels return their own text.
func Message(err error) string {
	var custom *CustomError
	if errors.As(err, &custom) {
		return custom.Error()
	}
	for _, sentinel := range append(append(append([]error{}, notFound...), conflicts...), validation...) {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return err.Error()
}
