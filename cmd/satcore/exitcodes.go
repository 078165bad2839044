package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/satband/satcore/internal/deviceimage"
	"github.com/satband/satcore/internal/frame"
	"github.com/satband/satcore/internal/planner"
	"github.com/satband/satcore/internal/secrets"
	"github.com/satband/satcore/internal/subscription"
)

// Exit codes mirror §7's error kinds: one distinct nonzero code per kind, so
// a wrapping shell script can branch on $? without parsing stderr text.
const (
	exitOK = 0

	exitInvalidWindow         = 10
	exitUnknownChannel        = 11
	exitMalformedSubscription = 12
	exitMonotonicityViolation = 13
	exitSignatureInvalid      = 14
	exitOutOfWindow           = 15
	exitIOError               = 16
	exitUsage                 = 64 // matches sysexits.h EX_USAGE for bad CLI args
)

// classify maps an error returned from internal/* to a §7 exit code. Errors
// that don't match a known kind (programmer errors, unexpected wrapped
// errors) fall through to a generic IOError code rather than panicking,
// since the issuer CLI never has a silent-drop option the way the decoder
// does.
func classify(err error) int {
	switch {
	case err == nil:
		return exitOK

	case errors.Is(err, planner.ErrInvalidWindow),
		errors.Is(err, subscription.ErrInvalidWindow):
		return exitInvalidWindow

	case errors.Is(err, frame.ErrUnknownChannel),
		errors.Is(err, subscription.ErrUnknownChannel),
		errors.Is(err, secrets.ErrUnknownChannel),
		errors.Is(err, deviceimage.ErrUnknownChannel):
		return exitUnknownChannel

	case errors.Is(err, subscription.ErrMalformedSize),
		errors.Is(err, subscription.ErrMalformedCount),
		errors.Is(err, subscription.ErrMalformedPositions),
		errors.Is(err, subscription.ErrChannelMismatch),
		errors.Is(err, frame.ErrMalformedSize):
		return exitMalformedSubscription

	case errors.Is(err, frame.ErrMonotonicityViolation),
		errors.Is(err, frame.ErrNonIncreasingTimestamp):
		return exitMonotonicityViolation

	case errors.Is(err, frame.ErrSignatureInvalid):
		return exitSignatureInvalid

	case errors.Is(err, frame.ErrOutOfWindow):
		return exitOutOfWindow

	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission),
		errors.Is(err, secrets.ErrBadPassphrase), errors.Is(err, secrets.ErrNotPEM),
		errors.Is(err, deviceimage.ErrFailedToOpenImage), errors.Is(err, deviceimage.ErrFailedToWriteArtifact):
		return exitIOError

	default:
		return exitIOError
	}
}

// fail prints err to stderr and exits with its classified code.
func fail(err error) {
	fmt.Fprintln(os.Stderr, "satcore:", err)
	os.Exit(classify(err))
}
