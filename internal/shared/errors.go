package shared

import "fmt"

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing store credentials")
	ErrMissingSecret      = fmt.Errorf("missing signing secret")

	// Input errors
	ErrUnreadableInput = fmt.Errorf("input file unreadable")
	ErrUnparsableInput = fmt.Errorf("input file unparsable")
	ErrNoUsableRows    = fmt.Errorf("no usable rows in input")

	// Store and service errors
	ErrStoreRequest = fmt.Errorf("store request failed")
	ErrStoreCommit  = fmt.Errorf("transaction commit failed")
	ErrNotFound     = fmt.Errorf("document not found")
	ErrMailSend     = fmt.Errorf("mail send failed")

	// Authorization errors
	ErrEmailNotOnRecord = fmt.Errorf("email not on record")
	ErrTokenInvalid     = fmt.Errorf("link invalid or expired")

	// Input validation errors
	ErrInvalidInput    = fmt.Errorf("invalid input")
	ErrMissingArgument = fmt.Errorf("missing required argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)
