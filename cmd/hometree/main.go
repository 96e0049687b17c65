// Package main provides the hometree CLI.
package main

import "github.com/mesh-intelligence/hometree/internal/cli"

func main() {
	cli.Execute()
}
