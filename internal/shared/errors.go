package shared

import "errors"

var (
	// ErrNotFound indicates a resource missing or owned by another tenant.
	ErrNotFound = errors.New("not found")
	// ErrTenantRequired indicates a request reached the core without a tenant.
	ErrTenantRequired = errors.New("tenant context required")
	// ErrConflict indicates a transaction conflict that survived retries.
	ErrConflict = errors.New("transaction conflict, retry the request")
)
