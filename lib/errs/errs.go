//
// Copyright (C) 2026 Charles E. Vejnar
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://www.mozilla.org/MPL/2.0/.
//

// Package errs defines the kinds of fatal errors reported by GeneBody.
package errs

import "errors"

var (
	// ErrConfig is returned for invalid options, e.g. a minimum gene length below 100.
	ErrConfig = errors.New("configuration error")
	// ErrInput is returned when an annotation or alignment input cannot be opened or parsed.
	ErrInput = errors.New("input error")
	// ErrData is returned when inputs are readable but inconsistent with the requested analysis.
	ErrData = errors.New("data error")
	// ErrDivideByZero is returned when normalizing a profile built from zero genes.
	ErrDivideByZero = errors.New("division by zero")
)

// Exit codes
const (
	ExitSuccess = 0
	ExitError   = 1
	ExitUsage   = 2
)

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, ErrConfig):
		return ExitUsage
	default:
		return ExitError
	}
}
