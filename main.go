// SPDX-License-Identifier: MPL-2.0

package main

import cmd "github.com/layergen/layergen/cmd/layergen"

func main() {
	cmd.Execute()
}
