package main

import (
	"os"

	"github.com/harrisonrobin/tasksync/pkg/cli"
)

func main() {
	os.Exit(cli.Execute())
}
