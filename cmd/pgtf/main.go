package main

import (
	"github.com/sclorg/postgresql-testing-framework/internal/cmd"
)

func main() {
	cmd.Execute()
}
