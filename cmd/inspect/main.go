package main

import (
	"github.com/emberchain/ember-go/cmd/inspect/cmd"
)

func main() {
	cmd.Execute()
}
