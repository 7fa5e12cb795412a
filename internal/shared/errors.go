package shared

import "fmt"

var (
	// Configuration errors
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Authentication errors
	ErrIdentityFailed   = fmt.Errorf("identity provider login failed")
	ErrEmptyCredential  = fmt.Errorf("empty credential")
	ErrNotAuthenticated = fmt.Errorf("not authenticated")
	ErrInvalidState     = fmt.Errorf("invalid state parameter")
	ErrTimeout          = fmt.Errorf("operation timed out")

	// Storage errors
	ErrStorage = fmt.Errorf("token storage failed")

	// API and service errors
	ErrFetchFailed = fmt.Errorf("request failed")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
