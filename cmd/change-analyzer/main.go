package main

import "github.com/samartsevigor/change-analyzer/internal/cli"

func main() {
	cli.Execute()
}
