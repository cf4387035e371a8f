// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Acquisition failure reasons.
const (
	ReasonPermissionDenied = "permission_denied"
	ReasonNoDevice         = "no_device"
	ReasonUnsupported      = "unsupported"
	ReasonBusy             = "busy"
	ReasonTimeout          = "timeout"
)

var (
	// ErrAcquisition matches every *AcquisitionError via errors.Is.
	ErrAcquisition = errors.New("capture acquisition failed")
	// ErrStreamClosed is reported by Stream.Frame once the stream has ended.
	ErrStreamClosed = errors.New("capture stream closed")
)

// AcquisitionError reports why a stream could not be opened.
type AcquisitionError struct {
	Reason string
	Err    error
}

func (e *AcquisitionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("capture acquisition failed: %s", e.Reason)
	}
	return fmt.Sprintf("capture acquisition failed: %s: %v", e.Reason, e.Err)
}

func (e *AcquisitionError) Unwrap() error { return e.Err }

func (e *AcquisitionError) Is(target error) bool { return target == ErrAcquisition }

func acquisitionError(reason string, err error) *AcquisitionError {
	return &AcquisitionError{Reason: reason, Err: err}
}

// classifyErr maps an OS error to an acquisition reason.
func classifyErr(err error) string {
	switch {
	case errors.Is(err, fs.ErrPermission):
		return ReasonPermissionDenied
	case errors.Is(err, fs.ErrNotExist), errors.Is(err, syscall.ENODEV), errors.Is(err, syscall.ENXIO):
		return ReasonNoDevice
	case errors.Is(err, syscall.EBUSY):
		return ReasonBusy
	default:
		return ReasonUnsupported
	}
}

// classifyStderr maps ffmpeg diagnostics to an acquisition reason.
func classifyStderr(lines []string) string {
	text := strings.ToLower(strings.Join(lines, "\n"))
	switch {
	case strings.Contains(text, "permission denied"), strings.Contains(text, "not authorized"):
		return ReasonPermissionDenied
	case strings.Contains(text, "no such file"), strings.Contains(text, "no such device"):
		return ReasonNoDevice
	case strings.Contains(text, "resource busy"):
		return ReasonBusy
	default:
		return ReasonUnsupported
	}
}
