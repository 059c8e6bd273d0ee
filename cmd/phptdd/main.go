package main

import "github.com/mvp-joe/phptdd/internal/cli"

func main() {
	cli.Execute()
}
