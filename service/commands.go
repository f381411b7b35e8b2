package service

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"teamboard/app/backend/local"
)

var osExit = os.Exit

// HandleCommand handles db subcommands and returns an exit code.
func HandleCommand(args []string) int {
	if len(args) < 1 {
		printDbHelp()
		osExit(1)
		return 1
	}

	cmd := args[0]
	switch cmd {
	case "clean":
		clean()
		return 0
	case "init":
		initDb()
		return 0
	case "backup":
		target := ""
		if len(args) > 1 {
			target = args[1]
		}
		return backup(target)
	case "restore":
		if len(args) < 2 {
			fmt.Println("Error: backup file path required for restore")
			osExit(1)
			return 1
		}
		return restore(args[1])
	case "help":
		printDbHelp()
		return 0
	default:
		fmt.Printf("Unknown db command: %s\n\n", cmd)
		printDbHelp()
		osExit(1)
		return 1
	}
}

// printDbHelp prints help for db subcommands.
func printDbHelp() {
	helpText := `Usage: teamboard db <command>

Commands:
  init                            Initialize a new empty local database
  clean                           Delete the local database
  backup [file]                   Create a backup of the local database
  restore <file>                  Restore the local database from a backup
  help                            Display this help message
`
	fmt.Println(helpText)
}

func confirm(prompt string) bool {
	fmt.Print(prompt + " [y/N] ")
	var response string
	fmt.Scanln(&response)
	return response == "y" || response == "Y"
}

// clean removes the database.
func clean() {
	path := dataPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("Database is already clean (does not exist)")
		return
	}

	if !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Println("Operation cancelled")
		return
	}

	if err := os.RemoveAll(path); err != nil {
		fmt.Printf("Failed to clean database: %v\n", err)
		return
	}
	fmt.Println("Database cleaned successfully")
}

// initDb initializes a new empty database.
func initDb() {
	path := dataPath()
	if _, err := os.Stat(path); err == nil {
		fmt.Println("Database already exists. Use 'clean' first if you want to reinitialize.")
		return
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return
	}

	db, err := local.Open(path)
	if err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		return
	}
	defer db.Close()

	fmt.Println("Database initialized successfully")
}

// backup writes a backup of the database to target, or to a timestamped
// file under backupDir.
func backup(target string) int {
	path := dataPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Println("No database exists to backup")
		return 1
	}

	if target == "" {
		target = filepath.Join(backupDir, fmt.Sprintf("backup_%d.db", time.Now().Unix()))
	}
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		fmt.Printf("Failed to create backup directory: %v\n", err)
		return 1
	}

	db, err := local.Open(path)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Create(target)
	if err != nil {
		fmt.Printf("Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if err := db.Backup(f); err != nil {
		fmt.Printf("Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Printf("Database backed up successfully to %s\n", target)
	return 0
}

// restore restores the database from a backup.
func restore(backupFile string) int {
	path := dataPath()
	if _, err := os.Stat(backupFile); os.IsNotExist(err) {
		fmt.Printf("Backup file does not exist: %s\n", backupFile)
		return 1
	}

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Printf("Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		fmt.Printf("Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Printf("Backup file is empty: %s\n", backupFile)
		return 1
	}

	if _, err := os.Stat(path); err == nil {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Println("Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(path); err != nil {
			fmt.Printf("Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(path, 0755); err != nil {
		fmt.Printf("Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := local.Open(path)
	if err != nil {
		fmt.Printf("Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	if err := db.Restore(f); err != nil {
		fmt.Printf("Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Println("Database restored successfully")
	return 0
}
