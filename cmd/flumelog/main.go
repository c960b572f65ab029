/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import (
	"github.com/ssargent/flumelog/cmd/flumelog/cmd"
)

func main() {
	cmd.Execute()
}
