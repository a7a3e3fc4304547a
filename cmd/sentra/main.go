package main

import "github.com/sentracore/sentra/internal/cli"

func main() {
	cli.Execute()
}
