package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/facebookincubator/go-belt"
)

func main() {
	app := &cliApp{}
	cmd := newRootCommand(app)
	err := cmd.ExecuteContext(context.Background())
	if app.ctx != nil {
		belt.Flush(app.ctx)
		app.cancel()
	}
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
