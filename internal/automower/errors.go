package automower

import "fmt"

type AuthErrorKind string

const (
	AuthInvalidCredentials AuthErrorKind = "invalidCredentials"
	AuthUnreachable        AuthErrorKind = "unreachable"
)

type AuthError struct {
	Kind  AuthErrorKind
	cause error
}

func (e *AuthError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("authentication failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("authentication failed (%s)", e.Kind)
}

func (e *AuthError) Unwrap() error { return e.cause }

type FetchErrorKind string

const (
	FetchUnauthorized FetchErrorKind = "unauthorized"
	FetchUnreachable  FetchErrorKind = "unreachable"
	FetchMalformed    FetchErrorKind = "malformed"
)

type FetchError struct {
	Kind  FetchErrorKind
	cause error
}

func (e *FetchError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("snapshot fetch failed (%s): %v", e.Kind, e.cause)
	}
	return fmt.Sprintf("snapshot fetch failed (%s)", e.Kind)
}

func (e *FetchError) Unwrap() error { return e.cause }

// StreamError carries the close code of a terminated stream connection so
// the supervisor can choose the remediation.
type StreamError struct {
	Code   int
	Reason string
}

func (e *StreamError) Error() string {
	return fmt.Sprintf("stream closed (code %d): %s", e.Code, e.Reason)
}

type CommandErrorKind string

const (
	CommandMissingParameter  CommandErrorKind = "missingParameter"
	CommandValidation        CommandErrorKind = "validation"
	CommandUnauthorized      CommandErrorKind = "unauthorized"
	CommandDeviceUnreachable CommandErrorKind = "deviceUnreachable"
	CommandTransport         CommandErrorKind = "transport"
)

type CommandError struct {
	Kind   CommandErrorKind
	Detail string
}

func (e *CommandError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("command failed (%s): %s", e.Kind, e.Detail)
	}
	return fmt.Sprintf("command failed (%s)", e.Kind)
}
