package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"github.com/liying-gg/hicluster"
)

var replCommands = []string{
	"get", "set", "del", "ping", "info", "topology", "help", "exit", "quit",
}

// REPL is the interactive command loop: tokenize a line on whitespace,
// execute it as a cluster command, print the rendered reply.
type REPL struct {
	client *hicluster.ClusterContext
	out    io.Writer
	liner  *liner.State
}

func historyFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".hicluster_history")
}

// Run starts the REPL loop until the user exits or EOFs stdin.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)
	r.liner.SetCompleter(r.completer)

	if f, err := os.Open(historyFile()); err == nil {
		r.liner.ReadHistory(f)
		f.Close()
	}

	fmt.Fprintln(r.out, "hicluster-cli - type 'help' for commands")

	for {
		line, err := r.liner.Prompt("hicluster> ")
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
				fmt.Fprintln(r.out, "\nBye!")
				break
			}
			return fmt.Errorf("hicluster-cli: reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		r.liner.AppendHistory(line)

		r.dispatch(strings.Fields(line))
	}

	r.saveHistory()
	return nil
}

func (r *REPL) dispatch(fields []string) {
	switch strings.ToLower(fields[0]) {
	case "exit", "quit", "q":
		r.saveHistory()
		os.Exit(0)
	case "help", "?":
		r.printHelp()
	case "topology":
		printTopology(r.out, r.client.Topology())
	default:
		r.runCommand(fields)
	}
}

func (r *REPL) runCommand(fields []string) {
	argv := make([][]byte, len(fields))
	for i, f := range fields {
		argv[i] = []byte(f)
	}

	resp, err := r.client.Execute(argv...)
	if err != nil {
		fmt.Fprintf(r.out, "(error) %v\n", err)
		return
	}
	rendered, err := hicluster.Render(resp)
	if err != nil {
		fmt.Fprintf(r.out, "(error) %v\n", err)
		return
	}
	fmt.Fprintln(r.out, rendered)
}

func (r *REPL) printHelp() {
	fmt.Fprintln(r.out, "Any cluster command (GET/SET/DEL/PING/INFO/...) is sent as typed.")
	fmt.Fprintln(r.out, "  topology       Show current slot ownership")
	fmt.Fprintln(r.out, "  help           Show this help")
	fmt.Fprintln(r.out, "  exit / quit    Exit")
}

func (r *REPL) completer(line string) []string {
	var out []string
	lower := strings.ToLower(line)
	for _, c := range replCommands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}
	return out
}

func (r *REPL) saveHistory() {
	path := historyFile()
	if path == "" {
		return
	}
	if f, err := os.Create(path); err == nil {
		r.liner.WriteHistory(f)
		f.Close()
	}
}
