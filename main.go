// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/srcload/srcload/cmd/srcload"

func main() {
	cmd.Execute()
}
