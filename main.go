package main

import (
	"github.com/andkozlov/starload/cmd"
)

func main() {
	cmd.Execute()
}
