package main

import (
	"github.com/moodsig/moodctl/pkg/cli"
)

func main() {
	cli.Execute()
}
