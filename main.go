package main

import "github.com/raysh454/sitelens/internal/cli"

func main() {
	cli.Execute()
}
