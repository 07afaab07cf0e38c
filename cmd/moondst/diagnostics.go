// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"moon-dst-cli/internal/discovery"
)

// renderDiagnostics writes discovery diagnostics to stderr, one line each.
func (a *App) renderDiagnostics(diags []discovery.Diagnostic) {
	for _, d := range diags {
		prefix := WarningStyle.Render("Warning:")
		if d.Severity == discovery.SeverityError {
			prefix = ErrorStyle.Render("Error:")
		}
		fmt.Fprintf(a.stderr, "%s %s\n", prefix, d.Message)
	}
}
