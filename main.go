package main

import (
	"os"

	"github.com/giygas/drugcost-api/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
