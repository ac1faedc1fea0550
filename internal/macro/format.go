// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package macro

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrArgCount is returned when a template's placeholders do not match the
// number of supplied arguments.
var ErrArgCount = errors.New("argument count mismatch")

// Format expands a template. %s consumes the next positional argument,
// %(key)s looks key up in named first and then, if key is a number n,
// takes positional argument n (1-based). %% yields a literal percent sign.
// Leftover positional arguments are an error unless keyed placeholders
// were used.
func Format(tmpl string, args []string, named map[string]string) (string, error) {
	var sb strings.Builder
	next := 0
	keyed := false

	for i := 0; i < len(tmpl); i++ {
		c := tmpl[i]
		if c != '%' {
			sb.WriteByte(c)
			continue
		}
		i++
		if i >= len(tmpl) {
			return "", fmt.Errorf("incomplete format in %q", tmpl)
		}
		switch tmpl[i] {
		case '%':
			sb.WriteByte('%')
		case 's':
			if next >= len(args) {
				return "", fmt.Errorf("%w: not enough arguments for format %q", ErrArgCount, tmpl)
			}
			sb.WriteString(args[next])
			next++
		case '(':
			end := strings.IndexByte(tmpl[i:], ')')
			if end < 0 || i+end+1 >= len(tmpl) || tmpl[i+end+1] != 's' {
				return "", fmt.Errorf("malformed keyed placeholder in %q", tmpl)
			}
			key := tmpl[i+1 : i+end]
			val, err := lookupKey(key, args, named)
			if err != nil {
				return "", err
			}
			sb.WriteString(val)
			keyed = true
			i += end + 1
		default:
			return "", fmt.Errorf("unsupported format character %q in %q", tmpl[i], tmpl)
		}
	}

	if !keyed && next < len(args) {
		return "", fmt.Errorf("%w: not all arguments converted during formatting of %q", ErrArgCount, tmpl)
	}
	return sb.String(), nil
}

func lookupKey(key string, args []string, named map[string]string) (string, error) {
	if v, ok := named[key]; ok {
		return v, nil
	}
	if n, err := strconv.Atoi(key); err == nil {
		if n >= 1 && n <= len(args) {
			return args[n-1], nil
		}
		return "", fmt.Errorf("%w: placeholder %d with %d arguments", ErrArgCount, n, len(args))
	}
	return "", fmt.Errorf("unknown placeholder key %q", key)
}
