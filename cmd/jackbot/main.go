package main

import (
	"fmt"
	"os"

	"github.com/soyeahso/jackbot/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "jackbot:", err)
		os.Exit(1)
	}
}
