package main

import "clash-rulesync/internal/cli"

func main() {
	cli.Execute()
}
