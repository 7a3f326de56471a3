// Command hicluster-cli is a thin driver around the hicluster client
// library: one-shot command execution, an interactive REPL, a topology
// dump, and a standalone connectivity probe.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kevwan/radix.v2/redis"
	flag "github.com/spf13/pflag"

	"github.com/liying-gg/hicluster"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	flagSet := flag.NewFlagSet("hicluster-cli", flag.ContinueOnError)
	flagSet.SetOutput(stderr)

	configPath := flagSet.String("config", "", "path to a JSONC config file")
	interactive := flagSet.BoolP("interactive", "i", false, "start an interactive REPL")
	showTopology := flagSet.Bool("topology", false, "print current slot ownership and exit")
	pingAddr := flagSet.String("ping", "", "dial a single node, send PING, report success or failure")
	command := flagSet.StringP("command", "c", "", "run a single command and exit, e.g. -c \"GET foo\"")
	maxConn := flagSet.Int("max-conn", 0, "connection cache size (0 = library default)")
	ttl := flagSet.Int("redirection-ttl", 0, "max MOVED/ASK hops per command (0 = library default)")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0
		}
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	if *pingAddr != "" {
		return runPing(stdout, stderr, *pingAddr)
	}

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}

	bootstrap := flagSet.Args()
	if len(bootstrap) == 0 {
		bootstrap = cfg.Bootstrap
	}
	if len(bootstrap) == 0 {
		fmt.Fprintln(stderr, "error: no bootstrap nodes given (positional args or config \"bootstrap\")")
		return 1
	}

	opts := hicluster.Options{
		Bootstrap:      bootstrap,
		MaxConn:        firstNonZero(*maxConn, cfg.MaxConn),
		RedirectionTTL: firstNonZero(*ttl, cfg.RedirectionTTL),
	}

	client, err := hicluster.NewWithOptions(opts)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	defer client.Close()

	switch {
	case *showTopology:
		printTopology(stdout, client.Topology())
		return 0
	case *interactive:
		repl := &REPL{client: client, out: stdout}
		if err := repl.Run(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
		return 0
	case *command != "":
		return runOneShot(stdout, stderr, client, *command)
	default:
		fmt.Fprintln(stderr, "error: one of --topology, --interactive, or -c \"CMD\" is required")
		return 1
	}
}

func runOneShot(stdout, stderr io.Writer, client *hicluster.ClusterContext, command string) int {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		fmt.Fprintln(stderr, "error: empty command")
		return 1
	}
	argv := make([][]byte, len(fields))
	for i, f := range fields {
		argv[i] = []byte(f)
	}

	resp, err := client.Execute(argv...)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	rendered, err := hicluster.Render(resp)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	fmt.Fprintln(stdout, rendered)
	return 0
}

// runPing dials addr directly and sends PING, bypassing slot routing
// entirely -- a minimal connectivity probe for one node at a time.
func runPing(stdout, stderr io.Writer, addr string) int {
	conn, err := redis.Dial("tcp", addr)
	if err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", addr, err)
		return 1
	}
	defer conn.Close()

	r := conn.Cmd("PING")
	if r.Err != nil {
		fmt.Fprintf(stderr, "%s: %v\n", addr, r.Err)
		return 1
	}
	s, err := r.Str()
	if err != nil || s != "PONG" {
		fmt.Fprintf(stderr, "%s: unexpected reply to PING\n", addr)
		return 1
	}
	fmt.Fprintf(stdout, "%s: PONG\n", addr)
	return 0
}

func firstNonZero(vals ...int) int {
	for _, v := range vals {
		if v != 0 {
			return v
		}
	}
	return 0
}
