package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/1broseidon/browsershell/internal/config"
	"github.com/1broseidon/browsershell/internal/ipc"
	"github.com/1broseidon/browsershell/internal/runtimepath"
)

// controlClient resolves the socket from --socket, then control_socket in
// the config file, then the runtime directory.
func controlClient(socket string) (*ipc.Client, error) {
	if socket == "" {
		res, err := config.Load()
		if err != nil {
			return nil, err
		}
		socket = res.Config.ControlSocket
	}
	path, err := runtimepath.SocketPath(socket)
	if err != nil {
		return nil, err
	}
	return ipc.NewClient(path), nil
}

func parseWindowID(s string) (uint32, error) {
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid window id %q", s)
	}
	return uint32(id), nil
}

func parseFlags(fs *flag.FlagSet, args []string) (int, bool) {
	if err := fs.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return 0, false
		}
		return 2, false
	}
	return 0, true
}

func runStatus(args []string) int {
	fs := flag.NewFlagSet("status", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: browsershell status [--socket PATH]")
		fmt.Fprintln(os.Stderr, "")
		fmt.Fprintln(os.Stderr, "Show shell status via the control socket.")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "status takes no arguments")
		fs.Usage()
		return 2
	}

	client, err := controlClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	status, err := client.GetStatus()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("running:        %v\n", status.Running)
	fmt.Printf("engine_version: %s\n", status.EngineVersion)
	fmt.Printf("topology:       %s\n", status.Topology)
	fmt.Printf("window_count:   %d\n", status.WindowCount)
	fmt.Printf("uptime_seconds: %d\n", status.UptimeSeconds)
	return 0
}

func runWindows(args []string) int {
	fs := flag.NewFlagSet("windows", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	asJSON := fs.Bool("json", false, "Print JSON")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: browsershell windows [--json] [--socket PATH]")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	client, err := controlClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := client.ListWindows()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(data.Windows); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "WINDOW\tTITLE\tURL")
	for _, w := range data.Windows {
		fmt.Fprintf(tw, "0x%x\t%s\t%s\n", uint32(w.ID), w.Title, w.URL)
	}
	tw.Flush()
	return 0
}

func runMonitors(args []string) int {
	fs := flag.NewFlagSet("monitors", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}

	client, err := controlClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := client.GetMonitors()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	for _, m := range data.Monitors {
		fmt.Printf("%d: %s %dx%d+%d+%d\n", m.ID, m.Name, m.Width, m.Height, m.X, m.Y)
	}
	return 0
}

func runOpen(args []string) int {
	fs := flag.NewFlagSet("open", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	window := fs.String("window", "", "Target window id (default: first window)")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: browsershell open [--window ID] [--socket PATH] <url>")
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(*window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client, err := controlClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	win, err := client.Navigate(id, fs.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("0x%x\n", win)
	return 0
}

func runHistory(name string, args []string) int {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	socket := fs.String("socket", "", "Control socket path")
	window := fs.String("window", "", "Target window id (default: first window)")
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: browsershell %s [--window ID] [--socket PATH]\n", name)
	}
	if code, ok := parseFlags(fs, args); !ok {
		return code
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(os.Stderr, "%s takes no arguments\n", name)
		fs.Usage()
		return 2
	}
	id, err := parseWindowID(*window)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}

	client, err := controlClient(*socket)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	send := map[string]func(uint32) (uint32, error){
		"back":    client.Back,
		"forward": client.Forward,
		"reload":  client.Reload,
	}[name]
	if _, err := send(id); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
