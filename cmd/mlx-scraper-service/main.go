package main

import (
	"mlx-scraper-service/internal/cli"
)

func main() {
	cli.Execute()
}
