package git

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
)

func TestClassifyPushError(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		err  error
		want PushErrorKind
	}{
		"nil": {
			err:  nil,
			want: PushErrorOther,
		},
		"authentication required": {
			err:  fmt.Errorf("push: %w", transport.ErrAuthenticationRequired),
			want: PushErrorTransport,
		},
		"authorization failed": {
			err:  transport.ErrAuthorizationFailed,
			want: PushErrorTransport,
		},
		"repository not found": {
			err:  transport.ErrRepositoryNotFound,
			want: PushErrorTransport,
		},
		"connection refused": {
			err:  &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
			want: PushErrorTransport,
		},
		"url error": {
			err:  &url.Error{Op: "Post", URL: "https://example.com", Err: errors.New("EOF")},
			want: PushErrorTransport,
		},
		"unexpected eof": {
			err:  fmt.Errorf("reading pack: %w", io.ErrUnexpectedEOF),
			want: PushErrorTransport,
		},
		"ssh handshake": {
			err:  errors.New("ssh: handshake failed: ssh: unable to authenticate"),
			want: PushErrorTransport,
		},
		"non fast forward": {
			err:  gogit.ErrNonFastForwardUpdate,
			want: PushErrorRejected,
		},
		"remote report status": {
			err:  errors.New("command error on refs/heads/main: protected branch hook declined"),
			want: PushErrorRejected,
		},
		"remote missing": {
			err:  gogit.ErrRemoteNotFound,
			want: PushErrorRemoteMissing,
		},
		"context cancelled": {
			err:  fmt.Errorf("push: %w", context.Canceled),
			want: PushErrorOther,
		},
		"deadline exceeded": {
			err:  context.DeadlineExceeded,
			want: PushErrorOther,
		},
		"unknown": {
			err:  errors.New("object not found"),
			want: PushErrorOther,
		},
		"already classified": {
			err:  &PushError{Kind: PushErrorRejected, Err: transport.ErrAuthenticationRequired},
			want: PushErrorRejected,
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, ClassifyPushError(tt.err))
		})
	}
}

func TestPushError(t *testing.T) {
	t.Parallel()

	err := newPushError("origin", "refs/tags/1.0.0", transport.ErrAuthenticationRequired)

	assert.Equal(t, PushErrorTransport, err.Kind)
	assert.Contains(t, err.Error(), "refs/tags/1.0.0")
	assert.Contains(t, err.Error(), "origin")
	assert.Contains(t, err.Error(), "transport")
	assert.ErrorIs(t, err, transport.ErrAuthenticationRequired)
	assert.True(t, IsTransportError(fmt.Errorf("release: %w", err)))
}

func TestPushErrorKind_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "transport", PushErrorTransport.String())
	assert.Equal(t, "rejected", PushErrorRejected.String())
	assert.Equal(t, "remote-missing", PushErrorRemoteMissing.String())
	assert.Equal(t, "other", PushErrorOther.String())
}
