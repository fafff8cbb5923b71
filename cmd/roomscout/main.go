package main

import "github.com/roomscout/backend/internal/delivery/cli"

func main() {
	cli.Execute()
}
