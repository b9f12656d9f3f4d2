package main

import (
	_ "go.uber.org/automaxprocs"

	"github.com/KaramelBytes/tabviz/cmd"
)

func main() {
	cmd.Execute()
}
