// SPDX-License-Identifier: MPL-2.0

// Command usage-rules gathers the usage rules shipped by a project's
// dependencies into one agent document.
package main

import cmd "github.com/usagerules/usagerules/cmd/usagerules"

func main() {
	cmd.Execute()
}
