// grapple: a genome reference assembly pipeline.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elprep/blob/master/LICENSE.txt>.

// Package diag classifies pipeline failures and turns them into the
// messages shown to the user.
//
// Every failure that leaves a stage or the orchestrator is an *Error
// with one of the kinds below. The exit status is the same for all
// kinds; the kind only selects the message.
package diag

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
)

// Kind enumerates the failure categories of a pipeline run.
type Kind int

// Failure categories.
const (
	// Config is a missing or unusable required setting. No stage runs.
	Config Kind = iota + 1
	// Format is an artifact whose name does not match the format a
	// stage expects. Reported before any subprocess is launched.
	Format
	// Parameter is an enumerated option outside its allowed set.
	Parameter
	// Environment is a filesystem or executable lookup failure.
	Environment
	// Tool is a nonzero exit from an external tool.
	Tool
	// Interrupt is a user interrupt. It is reported without a message.
	Interrupt
)

func (k Kind) String() string {
	switch k {
	case Config:
		return "configuration error"
	case Format:
		return "format mismatch"
	case Parameter:
		return "invalid parameter"
	case Environment:
		return "environment error"
	case Tool:
		return "external tool failure"
	case Interrupt:
		return "interrupted"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// EnvironmentMessage is reported for every Environment failure, since
// an unreadable file and a missing executable often look the same.
const EnvironmentMessage = "An error has occurred. Please ensure the input and reference files exist and all of the " +
	"required utilities are installed in your PATH"

// Error is a classified pipeline failure.
type Error struct {
	Kind Kind

	// Msg is the user-facing message.
	Msg string

	// Argument names the offending argument of Format and Parameter failures.
	Argument string

	// Step, Tool and Subcommand identify the failing invocation of Tool failures.
	Step       string
	Tool       string
	Subcommand string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Err != nil {
		return msg + ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Cause returns the underlying cause, for errors.Cause.
func (e *Error) Cause() error { return e.Err }

// Configf returns a Config failure.
func Configf(format string, args ...interface{}) error {
	return &Error{Kind: Config, Msg: fmt.Sprintf(format, args...)}
}

// Formatf returns a Format failure for the given argument.
func Formatf(argument, format string, args ...interface{}) error {
	return &Error{Kind: Format, Argument: argument, Msg: fmt.Sprintf(format, args...)}
}

// Parameterf returns a Parameter failure for the given argument.
func Parameterf(argument, format string, args ...interface{}) error {
	return &Error{Kind: Parameter, Argument: argument, Msg: fmt.Sprintf(format, args...)}
}

// Environmentf wraps err as an Environment failure.
func Environmentf(err error, format string, args ...interface{}) error {
	if err == nil {
		err = errors.Errorf(format, args...)
	} else {
		err = errors.Wrapf(err, format, args...)
	}
	return &Error{Kind: Environment, Msg: EnvironmentMessage, Err: err}
}

// ToolFailure returns a Tool failure of the given pipeline step.
func ToolFailure(step, tool, subcommand, msg string, err error) error {
	return &Error{Kind: Tool, Step: step, Tool: tool, Subcommand: subcommand, Msg: msg, Err: err}
}

// Interrupted returns an Interrupt failure.
func Interrupted(err error) error {
	return &Error{Kind: Interrupt, Err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf classifies err. Errors that carry no classification are
// interrupts when caused by context cancellation, and environment
// failures otherwise.
func KindOf(err error) Kind {
	if err == nil {
		return 0
	}
	if e, ok := As(err); ok {
		return e.Kind
	}
	if errors.Is(err, context.Canceled) {
		return Interrupt
	}
	return Environment
}

// Message returns the text reported to the user for err. Interrupts
// have an empty message.
func Message(err error) string {
	switch KindOf(err) {
	case 0, Interrupt:
		return ""
	case Environment:
		return EnvironmentMessage
	}
	e, _ := As(err)
	return e.Msg
}

// ExitCode returns the process exit status for err.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	return 1
}
