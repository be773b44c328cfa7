package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"crossview/internal/auth"
)

func runHashToken(args []string) int {
	fs := flag.NewFlagSet("hash-token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	token := fs.String("token", "", "Token to hash (defaults to the first positional argument)")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	value := strings.TrimSpace(*token)
	if value == "" && fs.NArg() == 1 {
		value = strings.TrimSpace(fs.Arg(0))
	}
	if value == "" {
		fmt.Fprintln(os.Stderr, "usage: crossview hash-token <token>")
		return 2
	}

	hash, err := auth.HashToken(value)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to hash token: %v\n", err)
		return 1
	}

	fmt.Println(hash)
	return 0
}
