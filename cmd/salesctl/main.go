package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/wolfman30/creator-sales-engine/internal/cli"
	appconfig "github.com/wolfman30/creator-sales-engine/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	app := cli.NewApp()
	app.Location = cfg.Location()
	app.TemplatesPath = cfg.TemplatesPath

	if err := cli.NewRootCmd(app).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
