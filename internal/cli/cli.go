package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

type commands struct {
	Serve   *ServeCommand
	Migrate *MigrateCommand
	Verify  *VerifyCommand
}

func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "biolink"
	parser.LongDescription = "Visit and click analytics backend for a personal link page."

	cmds := &commands{
		Serve:   &ServeCommand{globals: &globals, version: version},
		Migrate: &MigrateCommand{globals: &globals},
		Verify:  &VerifyCommand{globals: &globals, out: os.Stdout},
	}

	parser.AddCommand("serve", "Start the HTTP server", "Start the ingest, admin and analytics HTTP server.", cmds.Serve)
	parser.AddCommand("migrate", "Create the event tables", "Create the page_visits and link_clicks tables and their indexes. Safe to re-run.", cmds.Migrate)
	parser.AddCommand("verify", "Check deployment setup", "Check that the event store is configured, reachable and migrated, and that an admin password is set.", cmds.Verify)

	return parser, &globals, cmds
}

// Run parses os.Args and executes the matched subcommand.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses args (or os.Args if nil) and executes the matched subcommand.
func RunWithArgs(version string, args []string) error {
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("biolink %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}

	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}
