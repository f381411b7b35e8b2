package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

func captureOutput(f func()) string {
	var buf bytes.Buffer
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	done := make(chan bool)
	go func() {
		_, _ = io.Copy(&buf, r)
		done <- true
	}()

	f()
	_ = w.Close()
	os.Stdout = oldStdout
	<-done

	return buf.String()
}

func callMain() (int, string) {
	exitCode := -1
	oldExit := exit
	defer func() { exit = oldExit }()
	exit = func(code int) {
		exitCode = code
		panic("exit")
	}

	output := captureOutput(func() {
		defer func() {
			if r := recover(); r != nil && r != "exit" {
				panic(r)
			}
		}()
		RealMain()
	})
	if exitCode == -1 {
		exitCode = 0
	}
	return exitCode, output
}

func TestRealMain(t *testing.T) {
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()
	t.Setenv("TEAMBOARD_BACKEND", "local")
	t.Setenv("TEAMBOARD_DATA_DIR", filepath.Join(t.TempDir(), "badger"))

	tests := []struct {
		name           string
		args           []string
		expectedExit   int
		expectedOutput string
	}{
		{
			name:           "no arguments",
			args:           []string{"teamboard"},
			expectedExit:   1,
			expectedOutput: "Usage: teamboard <command>",
		},
		{
			name:           "help command",
			args:           []string{"teamboard", "help"},
			expectedExit:   0,
			expectedOutput: "Usage: teamboard <command> [options]",
		},
		{
			name:           "version command",
			args:           []string{"teamboard", "version"},
			expectedExit:   0,
			expectedOutput: "teamboard version " + CliVersion,
		},
		{
			name:           "unknown command",
			args:           []string{"teamboard", "unknown"},
			expectedExit:   1,
			expectedOutput: "Unknown command: unknown",
		},
		{
			name:           "db help",
			args:           []string{"teamboard", "db", "help"},
			expectedExit:   0,
			expectedOutput: "Usage: teamboard db <command>",
		},
		{
			name:           "check local backend",
			args:           []string{"teamboard", "check"},
			expectedExit:   0,
			expectedOutput: "Connected to the local backend",
		},
		{
			name:           "seed local backend",
			args:           []string{"teamboard", "seed"},
			expectedExit:   0,
			expectedOutput: "Seeded 4 members and 5 posts",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			exitCode, output := callMain()

			assert.Contains(t, output, tt.expectedOutput)
			assert.Equal(t, tt.expectedExit, exitCode)
		})
	}
}

func TestPrintHelp(t *testing.T) {
	output := captureOutput(printHelp)

	for _, cmd := range []string{"help", "version", "serve", "check", "seed", "db <init|clean|backup|restore>", "TEAMBOARD_BACKEND"} {
		assert.Contains(t, output, cmd)
	}
}
