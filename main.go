// SPDX-License-Identifier: MPL-2.0

package main

import (
	"os"

	cmd "moon-dst-cli/cmd/moondst"
)

func main() {
	os.Exit(cmd.Execute())
}
