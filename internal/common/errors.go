// Package common defines shared constants and sentinel errors used across
// the processor components. Callers should use errors.Is to match these
// values; concrete failures wrap them with context.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrConfigurationMissing marks an operation skipped because a required
	// credential or setting is absent (API key, SMTP password, webhook secret).
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrConnectivity covers a store that cannot be opened or a collaborator
	// that cannot be reached.
	ErrConnectivity = errors.New("connectivity failure")

	// ErrValidation marks a malformed inbound payload.
	ErrValidation = errors.New("validation failure")

	// ErrRemoteRejection is returned when a collaborator answers with a
	// non-success status.
	ErrRemoteRejection = errors.New("remote rejection")

	// ErrInsecureEndpoint rejects collaborator URLs that are not https.
	ErrInsecureEndpoint = errors.New("insecure endpoint")
)
