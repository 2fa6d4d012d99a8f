package main

import (
	"fmt"
	"os"

	"github.com/h2316307-design/adhub-pro-sub009/cmd"
)

var version = "dev"

func main() {
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("adhub version %s\n", version)
		os.Exit(0)
	}

	cmd.Execute()
}
