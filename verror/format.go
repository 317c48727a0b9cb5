// Copyright 2015 The Vanadium Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package verror

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatParams returns a copy of format with instances of "{1}", "{2}", ...
// replaced by the string form of the first, second, ... parameter in v.  The
// token "{_}" is replaced by the parameters not referred to elsewhere, joined
// by spaces.  A leading ':' in a token emits ": " before a non-empty
// parameter, and a trailing ':' emits ":" after it.
func FormatParams(format string, v ...interface{}) string {
	var result strings.Builder
	used := make([]bool, len(v))
	underbarAt, underbarPre, underbarPost := -1, false, false
	for i := 0; i < len(format); {
		brace := strings.IndexByte(format[i:], '{')
		if brace < 0 {
			result.WriteString(format[i:])
			break
		}
		brace += i
		result.WriteString(format[i:brace])
		end := strings.IndexByte(format[brace:], '}')
		if end < 0 {
			result.WriteString(format[brace:])
			break
		}
		end += brace
		token := format[brace+1 : end]
		pre := strings.HasPrefix(token, ":")
		post := len(token) > 1 && strings.HasSuffix(token, ":")
		token = strings.TrimSuffix(strings.TrimPrefix(token, ":"), ":")
		switch n, err := strconv.Atoi(token); {
		case token == "_":
			underbarAt, underbarPre, underbarPost = result.Len(), pre, post
		case err == nil && 1 <= n && n <= len(v):
			used[n-1] = true
			writeParam(&result, fmt.Sprint(v[n-1]), pre, post)
		case err == nil:
			if !pre && !post {
				result.WriteString("?")
			}
		default:
			result.WriteString(format[brace : end+1])
		}
		i = end + 1
	}
	if underbarAt < 0 {
		return result.String()
	}
	var rest []string
	for i, p := range v {
		if !used[i] {
			rest = append(rest, fmt.Sprint(p))
		}
	}
	var mid strings.Builder
	writeParam(&mid, strings.Join(rest, " "), underbarPre, underbarPost)
	s := result.String()
	return s[:underbarAt] + mid.String() + s[underbarAt:]
}

func writeParam(b *strings.Builder, s string, pre, post bool) {
	if s == "" {
		return
	}
	if pre {
		b.WriteString(": ")
	}
	b.WriteString(s)
	if post {
		b.WriteString(":")
	}
}
