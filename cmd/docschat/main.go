package main

import (
	"os"

	"github.com/docschat/docschat/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
