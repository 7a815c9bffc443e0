package main

import (
	"github.com/dszqbsm/rentmonitor/cmd"
)

func main() {
	cmd.Execute()
}
