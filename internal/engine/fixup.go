// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package engine

import (
	"regexp"
	"strings"

	"nickandperla.net/texp/internal/macro"
)

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

// Block lines are rewritten before execution so that:
//
//	name = : text     becomes  name = _format("""text""")
//	return : text     becomes  return _format("""text""")
//	name = ...        becomes  get_scope()["name"] = ...   (column 0 only)
//	: text            becomes  _output(_format("""text"""))
var rewrites = []rewrite{
	{
		regexp.MustCompile(`^(\s*([` + macro.NameChars + `]*\s*=|return))\s*:\s*(\S.*)$`),
		`${1} _format("""${3}""")`,
	},
	{
		regexp.MustCompile(`^([` + macro.NameChars + `]*)\s*=`),
		`get_scope()["${1}"] =`,
	},
	{
		regexp.MustCompile(`^(\s*):\s*(.*)$`),
		`${1}_output(_format("""${2}"""))`,
	},
}

// Fixup applies the block-line rewrites to one line. A trailing newline is
// preserved.
func Fixup(line string) string {
	body, nl := strings.CutSuffix(line, "\n")
	for _, rw := range rewrites {
		body = rw.re.ReplaceAllString(body, rw.repl)
	}
	if nl {
		body += "\n"
	}
	return body
}
