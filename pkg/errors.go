package mcarecover

import (
	"errors"
	"fmt"
)

// Common errors
var (
	ErrInvariantViolation = errors.New("region invariant violated")
	ErrInvalidRegionName  = errors.New("invalid region file name")
	ErrRegionLocked       = errors.New("region directory is locked by another process")
	ErrNoBackups          = errors.New("no backups found")
	ErrBackupChecksum     = errors.New("backup checksum mismatch")
	ErrInvalidBehaviour   = errors.New("invalid duplicate behaviour")
	ErrInvalidSelection   = errors.New("invalid candidate selection")
	ErrUnknownCompression = errors.New("unknown compression format")
	ErrMissingCoordinates = errors.New("chunk coordinates not found")
)

// InvariantError reports a condition that makes a region file unsafe to repair.
// Processing of the file stops as soon as one is returned.
type InvariantError struct {
	Path   string
	Slot   int
	Reason string
	Err    error
}

func (e *InvariantError) Error() string {
	msg := e.Reason
	if e.Slot >= 0 {
		msg = fmt.Sprintf("slot %d: %s", e.Slot, msg)
	}
	if e.Path != "" {
		msg = fmt.Sprintf("%s: %s", e.Path, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *InvariantError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvariantViolation, e.Err}
	}
	return []error{ErrInvariantViolation}
}

func invariantf(slot int, format string, args ...interface{}) *InvariantError {
	return &InvariantError{Slot: slot, Reason: fmt.Sprintf(format, args...)}
}

// DecodeError is returned by a Decoder when a payload cannot be decompressed or parsed
type DecodeError struct {
	Sector      int
	Compression byte
	Err         error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("sector %d (%s): %v", e.Sector, CompressionName(e.Compression), e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
