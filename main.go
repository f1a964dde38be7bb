// Package main is the entry point for the runen application. Flag
// parsing and mode execution are managed by the cmd package (cobra).
package main

import (
	"github.com/greyshaman/runen/cmd"
)

func main() {
	cmd.Execute()
}
