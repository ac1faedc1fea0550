// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package latex

import (
	"regexp"
	"unicode"
	"unicode/utf8"

	"nickandperla.net/texp/internal/engine"
)

// MathEnvironments are the environments inside which text is already math.
var MathEnvironments = []string{"equation", "eqnarray", "align", "equation*", "eqnarray*"}

var midSentence = regexp.MustCompile(`[^:.\s]\s*$`)

// IsSentenceStart reports whether the text preceding the current
// invocation ends a sentence (or is empty).
func IsSentenceStart(e *engine.Engine) bool {
	return !midSentence.MatchString(e.Match().Before)
}

// UpcaseAtStart upper-cases the first character of s when the current
// invocation starts a sentence.
func UpcaseAtStart(e *engine.Engine, s string) string {
	if s == "" || !IsSentenceStart(e) {
		return s
	}
	r, n := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[n:]
}

// EnsureMath wraps s in \ensuremath unless a math environment is open.
func EnsureMath(e *engine.Engine, s string) string {
	if e.Document().InEnvironment(MathEnvironments...) {
		return s
	}
	return `\ensuremath{` + s + `}`
}
