package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
	"syscall"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
)

// PushErrorKind classifies why a push failed.
type PushErrorKind int

const (
	// PushErrorOther covers failures with no dedicated handling.
	PushErrorOther PushErrorKind = iota
	// PushErrorTransport means the remote could not be reached or the
	// in-process transport could not authenticate. The git CLI may still
	// succeed, since it has its own credential helpers and transports.
	PushErrorTransport
	// PushErrorRejected means the remote refused the update.
	PushErrorRejected
	// PushErrorRemoteMissing means the named remote is not configured.
	PushErrorRemoteMissing
)

// String returns the kind name used in logs and error messages.
func (k PushErrorKind) String() string {
	switch k {
	case PushErrorTransport:
		return "transport"
	case PushErrorRejected:
		return "rejected"
	case PushErrorRemoteMissing:
		return "remote-missing"
	default:
		return "other"
	}
}

// PushError is returned by the push operations.
type PushError struct {
	Kind   PushErrorKind
	Remote string
	Ref    string
	Err    error
}

func newPushError(remote, ref string, err error) *PushError {
	return &PushError{
		Kind:   ClassifyPushError(err),
		Remote: remote,
		Ref:    ref,
		Err:    err,
	}
}

func (e *PushError) Error() string {
	return fmt.Sprintf("pushing %s to %s (%s): %v", e.Ref, e.Remote, e.Kind, e.Err)
}

func (e *PushError) Unwrap() error {
	return e.Err
}

// IsTransportError reports whether err is a push failure of kind PushErrorTransport.
func IsTransportError(err error) bool {
	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr.Kind == PushErrorTransport
	}
	return ClassifyPushError(err) == PushErrorTransport
}

// transportSentinels are go-git transport errors that the git CLI can
// usually get past with its own credential helpers.
var transportSentinels = []error{
	transport.ErrAuthenticationRequired,
	transport.ErrAuthorizationFailed,
	transport.ErrInvalidAuthMethod,
	transport.ErrRepositoryNotFound,
	syscall.ECONNREFUSED,
	syscall.ECONNRESET,
	syscall.EPIPE,
	syscall.ETIMEDOUT,
	syscall.EHOSTUNREACH,
	syscall.ENETUNREACH,
	io.ErrUnexpectedEOF,
}

// transportMessages are transport failures go-git reports as plain strings.
var transportMessages = []string{
	"ssh: handshake failed",
	"unsupported scheme",
	"connection refused",
	"no such host",
}

// ClassifyPushError maps a push failure onto a PushErrorKind.
// Context cancellation is never a transport failure, since retrying with
// the same context cannot succeed.
func ClassifyPushError(err error) PushErrorKind {
	if err == nil {
		return PushErrorOther
	}

	var pushErr *PushError
	if errors.As(err, &pushErr) {
		return pushErr.Kind
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return PushErrorOther
	}
	if errors.Is(err, git.ErrRemoteNotFound) {
		return PushErrorRemoteMissing
	}
	if errors.Is(err, git.ErrNonFastForwardUpdate) {
		return PushErrorRejected
	}

	for _, sentinel := range transportSentinels {
		if errors.Is(err, sentinel) {
			return PushErrorTransport
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return PushErrorTransport
	}

	msg := err.Error()
	for _, s := range transportMessages {
		if strings.Contains(msg, s) {
			return PushErrorTransport
		}
	}
	// go-git reports per-ref rejections from the remote's report-status.
	if strings.Contains(msg, "command error on") || strings.Contains(msg, "rejected") {
		return PushErrorRejected
	}

	return PushErrorOther
}
