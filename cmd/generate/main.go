package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/rxtech-lab/argo-equities/internal/config"
	"github.com/urfave/cli/v3"
)

func generateAction(_ context.Context, cmd *cli.Command) error {
	output := cmd.String("output")

	if err := config.WriteSchemaAndSample(output); err != nil {
		return err
	}

	log.Printf("Schema written to %s", filepath.Join(output, config.SchemaFileName))
	log.Printf("Sample config written to %s", filepath.Join(output, config.SampleFileName))

	return nil
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "generate",
		Usage: "Write the config JSON schema and a sample config",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Directory to write the schema and sample config to",
				Value:   "config",
			},
		},
		Action: generateAction,
	}
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
