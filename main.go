package main

import "github.com/tessro/syncstream/internal/cli"

func main() {
	cli.Execute()
}
