// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service implements the application's business operations over the
// store: the user directory, the follow graph, and content authoring.
package service

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/olegiv/oblog-go/internal/model"
)

// Sentinel errors surfaced to callers.
var (
	// ErrNotFound reports a lookup miss. Callers decide redirect-vs-404.
	ErrNotFound = errors.New("not found")

	// ErrEmailTaken and ErrUsernameTaken are registration uniqueness
	// rejections.
	ErrEmailTaken    = &model.ValidationError{Field: "email", Message: "email already registered"}
	ErrUsernameTaken = &model.ValidationError{Field: "username", Message: "username already in use"}

	// ErrInvalidUsername rejects usernames outside the allowed pattern.
	ErrInvalidUsername = &model.ValidationError{
		Field:   "username",
		Message: "usernames must start with a letter and contain only letters, numbers, dots or underscores",
	}
)

// StoreError wraps a storage-layer failure. The operation did not happen and
// is safe to retry; it is never reported as a silent success.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// storeErr wraps err as a StoreError, mapping a row miss to ErrNotFound.
func storeErr(op string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return &StoreError{Op: op, Err: err}
}
