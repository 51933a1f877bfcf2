package main

import "github.com/LeJamon/xrpl-ladder/internal/cli"

func main() {
	cli.Execute()
}
