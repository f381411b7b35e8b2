package main

import (
	"fmt"
	"os"
	"strings"

	"teamboard/service"
)

// CliVersion is reported by the version command.
const CliVersion = "1.0.0"

// exit is replaced in tests.
var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches the command in os.Args.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help":
		printHelp()
	case "version":
		fmt.Printf("teamboard version %s\n", CliVersion)
	case "serve":
		exit(service.RunAppServer(os.Args[2:]))
	case "check":
		exit(service.RunCheck())
	case "seed":
		exit(service.RunSeed())
	case "db":
		exit(service.HandleCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: teamboard <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [--addr <addr>]          Run the dashboard API.
  check                          Check that the configured backend answers.
  seed                           Insert the initial roster and welcome posts.
  db <init|clean|backup|restore> Manage the local database (see "db help").

Environment:
  TEAMBOARD_BACKEND              local (default), postgres, mysql or remote
  TEAMBOARD_DATA_DIR             Local database directory (default data/badger)
  DATABASE_URL                   Connection string for postgres and mysql
  TEAMBOARD_BACKEND_URL          Hosted backend URL for remote
  TEAMBOARD_API_KEY              Hosted backend public API key for remote
  TEAMBOARD_ADDR                 Listen address (default :8080)
  TEAMBOARD_SITE_URL             Link target in emails sent without a request
`
	fmt.Println(helpText)
}
