// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package scoring

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyFinalized = errors.New("device has already made its final submission")
	ErrUserNotFound     = errors.New("user not found")
)

// ValidationError rejects a claim batch before anything is written
type ValidationError struct {
	Index  int
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("solve %d: %s", e.Index, e.Reason)
}
