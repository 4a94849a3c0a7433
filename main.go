package main

import (
	"context"
	"fmt"
	"os"

	app "github.com/rocketscienceinc/tictactoe-qlearning/internal"
)

// main - is the entry point of the application. Flags, config and logging are set up by the root command.
func main() {
	defer func() {
		if err := recover(); err != nil {
			fmt.Fprintf(os.Stderr, "recovered from panic: %v\n", err)
			os.Exit(1)
		}
	}()

	if err := app.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}
