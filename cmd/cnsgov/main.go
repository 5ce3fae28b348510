package main

import (
	"github.com/NVIDIA/cns-governor/pkg/cli"
)

func main() {
	cli.Execute()
}
