// Package stdlib holds the text files compiled into texp.
package stdlib

import _ "embed"

// Usage is the command-line help.
//
//go:embed USAGE.txt
var Usage string

// Prelude is block code run before any include, expression or input file.
//
//go:embed prelude.texp
var Prelude string
