// SPDX-License-Identifier: Apache-2.0

package main

import "github.com/authenticaproj/authentica/internal/cli"

func main() {
	cli.Execute()
}
