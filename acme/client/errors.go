package client

import (
	"fmt"

	"github.com/cpu/uacme/acme/resources"
)

// Kind discriminates the category of failure an Error represents, so
// callers can pattern match with errors.As instead of inspecting message
// strings.
type Kind int

const (
	// KindTransport covers HTTP/DNS/TCP level failures reaching the server.
	KindTransport Kind = iota
	// KindAcmeProblem covers a server response carrying an RFC 7807 problem
	// document, either via a problem+json Content-Type or a top-level
	// "error" field.
	KindAcmeProblem
	// KindProtocol covers a response that doesn't fit the expected shape:
	// wrong status code, missing header, malformed JSON.
	KindProtocol
	// KindHook covers a hook child process that failed to execute.
	KindHook
	// KindInput covers requests the operator has to change rather than
	// retry: creating an account that already exists, declining the terms
	// of service, or using a key that has no account.
	KindInput
	// KindFilesystem covers failures reading or writing key/certificate
	// material on disk.
	KindFilesystem
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindAcmeProblem:
		return "acme-problem"
	case KindProtocol:
		return "protocol"
	case KindHook:
		return "hook"
	case KindInput:
		return "input"
	case KindFilesystem:
		return "filesystem"
	default:
		return "unknown"
	}
}

// Error is the error type returned by every controller operation in this
// package. It wraps an underlying cause (often from pkg/errors) with
// a Kind so callers can decide whether a failure is recoverable, e.g. the
// accountDoesNotExist fallback in the "new" subcommand.
type Error struct {
	Kind    Kind
	Op      string
	Problem *resources.Problem
	Err     error
}

func (e *Error) Error() string {
	if e.Problem != nil {
		return fmt.Sprintf("%s: %s (%s)", e.Op, e.Problem.Detail, e.Problem.Type)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Op
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ProblemType returns the problem document's Type URN, or an empty string
// if this Error doesn't carry a problem document.
func (e *Error) ProblemType() string {
	if e.Problem == nil {
		return ""
	}
	return e.Problem.Type
}

func newError(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

func newProblemError(op string, problem *resources.Problem) *Error {
	return &Error{Kind: KindAcmeProblem, Op: op, Problem: problem}
}
