package main

import (
	"flag"
	"fmt"
	"fsd/internal/di"
	"fsd/internal/structures"
	"os"
)

func main() {
	flags := &structures.CliFlags{}
	flag.StringVar(&flags.ConfigPath, "config", "config.yaml", "path to the configuration file")
	flag.BoolVar(&flags.DebugMode, "debug", false, "log to console as well as to files")
	flag.Parse()

	if _, err := di.InitApp(flags); err != nil {
		fmt.Fprintf(os.Stderr, "fsd: %s\n", err)
		os.Exit(1)
	}
}
