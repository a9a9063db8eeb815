package shared

import "fmt"

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Configuration errors
	ErrMissingConfig = fmt.Errorf("configuration not found")
	ErrInvalidConfig = fmt.Errorf("invalid configuration")

	// Authentication errors. The three outcomes of a login attempt stay
	// distinguishable: rejected credentials, unreachable server, and a 2xx
	// reply carrying no usable account info.
	ErrNotAuthenticated   = fmt.Errorf("not authenticated")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")
	ErrNetwork            = fmt.Errorf("network unreachable")
	ErrNoAccountInfo      = fmt.Errorf("server returned no usable account info")

	// Provider and store errors
	ErrProviderRequest = fmt.Errorf("provider request failed")
	ErrMalformedRecord = fmt.Errorf("malformed provider record")
	ErrNotFound        = fmt.Errorf("not found")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
