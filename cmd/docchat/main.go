package main

import "github.com/futig/docchat/internal/cli"

func main() {
	cli.Execute()
}
