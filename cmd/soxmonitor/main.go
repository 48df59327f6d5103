package main

import (
	"context"
	"fmt"
	"os"

	"soxmonitor/internal/bootstrap"
)

func main() {
	if err := bootstrap.Run(context.Background()); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "soxmonitor failed: %v\n", err)
		os.Exit(1)
	}
}
