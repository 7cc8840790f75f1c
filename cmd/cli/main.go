package main

import (
	"github.com/avasilyev/rps-arena-go/internal/cli"
)

func main() {
	cli.Execute()
}
