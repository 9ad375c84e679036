// SAGE - Secure Agent Guarantee Engine
// Copyright (C) 2025 SAGE-X-project
//
// This file is part of SAGE.
//
// SAGE is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// SAGE is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with SAGE. If not, see <https://www.gnu.org/licenses/>.

// Package errs carries the daemon's stable error-kind taxonomy so that
// HTTP handlers never leak internal failure details across the
// boundary.
package errs

import (
	"errors"
	"fmt"
)

// Kind is one of the stable error strings returned in {error,reason?}.
type Kind string

const (
	InvalidKU    Kind = "invalid_ku"
	VerifyFailed Kind = "verify_failed"
	UntrustedKey Kind = "untrusted_key"
	NotFound     Kind = "not_found"
	InvalidType  Kind = "invalid_type"
	MissingCID   Kind = "missing_cid"
	BadRequest   Kind = "bad_request"
	RateLimited  Kind = "rate_limited"
	ServerError  Kind = "server_error"
)

// HTTPStatus maps a Kind to its response status code.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidKU, InvalidType, MissingCID, BadRequest, VerifyFailed:
		return 400
	case UntrustedKey:
		return 403
	case NotFound:
		return 404
	case RateLimited:
		return 0 // never surfaced as HTTP
	default:
		return 500
	}
}

// Error is the daemon's single structured error type: a stable Kind
// plus an optional human reason and wrapped cause.
type Error struct {
	Kind   Kind
	Reason string
	Cause  error
}

func New(kind Kind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

func Wrap(kind Kind, reason string, cause error) *Error {
	return &Error{Kind: kind, Reason: reason, Cause: cause}
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Kind, e.Reason, e.Cause)
	}
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
	}
	return string(e.Kind)
}

func (e *Error) Unwrap() error { return e.Cause }

// As extracts an *Error from any error, falling back to ServerError for
// unrecognized failures so that handlers never leak internals.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: ServerError, Reason: "internal failure", Cause: err}
}
