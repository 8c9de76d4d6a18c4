package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Django-Rwanda/django-rwanda-portal/cmd"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := cmd.Execute(context.Background(), version); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
