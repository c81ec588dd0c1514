package main

import (
	"os"

	"restaurant_reviews/internal/cli"
)

func main() {
	os.Exit(cli.Run())
}
