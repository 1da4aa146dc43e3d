// main package for the vmut command-line tool
// Package main is the entry point for the vmut CLI.
package main

import "github.com/pavzaj/visualmutator/cmd"

func main() {
	cmd.Execute()
}
