// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package script

import (
	"fmt"
	"strings"

	"nickandperla.net/texp/internal/engine"
)

// Checker is an evaluator that parses blocks without running them. Syntax
// errors are collected instead of stopping the document.
type Checker struct {
	Interp
	Errors []string
}

// NewChecker creates a Checker.
func NewChecker() *Checker {
	return &Checker{}
}

var _ engine.Evaluator = (*Checker)(nil)

// Exec implements engine.Evaluator.
func (c *Checker) Exec(e *engine.Engine, src string) error {
	if _, err := Parse(src); err != nil {
		loc := strings.TrimSuffix(e.Logger().Location(), ":")
		c.Errors = append(c.Errors, fmt.Sprintf("%s: %v", loc, err))
	}
	return nil
}
