package main

import (
	cmd "github.com/rohmanhakim/scrapecache/internal/cli"
)

func main() {
	cmd.Execute()
}
