// Package main provides the register CLI entry point.
package main

import "github.com/ConductionNL/openregister-sub015/internal/cli"

func main() {
	cli.Execute()
}
