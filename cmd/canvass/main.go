package main

import "github.com/votegrid/canvass/internal/cli"

func main() {
	cli.Execute()
}
