package main

import "timelock-scope/internal/cli"

func main() {
	cli.Execute()
}
