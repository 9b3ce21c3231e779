package main

import (
	"os"

	"github.com/worldland/spark-gateway/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
