// SPDX-License-Identifier: MPL-2.0

package moon

import (
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// FormatCommand renders `moon <args...>` as a copy-pasteable shell line.
// Arguments that are plain shell words are left unquoted.
func FormatCommand(args ...string) string {
	parts := make([]string, 0, len(args)+1)
	parts = append(parts, BinaryName)
	for _, arg := range args {
		quoted, err := syntax.Quote(arg, syntax.LangBash)
		if err != nil {
			quoted = strconv.Quote(arg)
		}
		parts = append(parts, quoted)
	}
	return strings.Join(parts, " ")
}
