package main

import (
	"github.com/robotalks/gpiocmd/pkg/cli/sh"
	"github.com/robotalks/gpiocmd/pkg/env"
)

//go-build: CGO_ENABLED=0

func init() {
	env.SetupFlags()
}

func main() {
	sh.Main()
}
