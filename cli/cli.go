package cli

/*
 * Licensed under LGPL-3.0.
 *
 * You can get a copy of the LGPL-3.0 License at
 *
 * https://www.gnu.org/licenses/lgpl-3.0.en.html
 *
 * @wcgcyx - https://github.com/wcgcyx
 */

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"github.com/wcgcyx/rubidity/version"
)

// NewCLI creates a CLI app.
func NewCLI() *cli.App {
	app := &cli.App{
		Name:      "rubidity",
		HelpName:  "rubidity",
		Usage:     "A sandboxed contract runtime",
		UsageText: "rubidity [global options] command [arguments...]",
		Version:   version.Version,
		Description: "\n\t This is a sandboxed runtime for Rubidity contracts.\n\n" +
			"\t It executes ordered contract transactions block by block\n" +
			"\t and persists receipts, calls and contract state locally.\n",
		Authors: []*cli.Author{
			{
				Name:  "wcgcyx",
				Email: "wcgcyx@gmail.com",
			},
		},
	}
	app.Commands = []*cli.Command{
		{
			Name:        "process",
			Usage:       "process block files",
			Description: "Execute the transactions of the given block files in order and persist the results",
			ArgsUsage:   " ",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "config",
					Value: "",
					Usage: "specify config file",
				},
				&cli.PathFlag{
					Name:  "path",
					Value: "",
					Usage: "specify datastore path",
				},
				&cli.StringSliceFlag{
					Name:     "block",
					Usage:    "specify block file, can be repeated",
					Required: true,
				},
			},
			Action: func(ctx *cli.Context) error {
				return runProcess(ctx)
			},
		},
		{
			Name:        "abi",
			Usage:       "print the abi of a class",
			Description: "Print the abi of a bundled contract class",
			ArgsUsage:   "<class>",
			Action: func(ctx *cli.Context) error {
				return runABI(ctx)
			},
		},
		{
			Name:        "classes",
			Usage:       "list bundled classes",
			Description: "List the bundled contract classes with their init code hashes",
			ArgsUsage:   " ",
			Action: func(ctx *cli.Context) error {
				return runClasses(ctx)
			},
		},
		{
			Name:        "version",
			Usage:       "get version",
			Description: "Get the version",
			ArgsUsage:   " ",
			Action: func(c *cli.Context) error {
				fmt.Println("Version: ", version.Version)
				return nil
			},
		},
	}
	return app
}
