package main

import (
	"os"

	"crossview/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
