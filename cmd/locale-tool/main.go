package main

import "locale-tool/internal/cli"

func main() {
	cli.Execute()
}
