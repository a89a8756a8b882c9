package main

import (
	"os"

	"github.com/ktr0731/protoedit/app"
	"github.com/ktr0731/protoedit/cui"
)

func main() {
	os.Exit(app.New(cui.Console(os.Getenv("NO_COLOR") == "")).Run(os.Args[1:]))
}
