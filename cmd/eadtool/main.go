package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/spf13/pflag"

	"github.com/dgallion1/eadtool/internal/config"
	"github.com/dgallion1/eadtool/internal/report"
	"github.com/dgallion1/eadtool/internal/source"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

// app carries what every subcommand needs.
type app struct {
	cfg    config.Config
	log    *slog.Logger
	store  *source.Store
	out    *report.Printer
	stdout io.Writer
	stderr io.Writer
}

type command struct {
	summary string
	run     func(ctx context.Context, a *app, args []string) int
}

var commands = map[string]command{
	"compare":        {"Compare the outlines of two EAD files", runCompare},
	"structure":      {"Print the outline of one EAD file", runStructure},
	"section":        {"Print one named section of an EAD file as XML", runSection},
	"validate":       {"Check well-formedness and report EAD compliance", runValidate},
	"add-unittitles": {"Insert <unittitle> after box containers that lack one", runAddUnittitles},
	"lists-to-p":     {"Rewrite simple <list> elements as <p> paragraphs", runListsToP},
	"batch":          {"Analyze many EAD files and export a compliance report", runBatch},
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := pflag.NewFlagSet("eadtool", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.SetInterspersed(false)
	versionFlag := fs.BoolP("version", "V", false, "Print version information")
	helpFlag := fs.BoolP("help", "h", false, "Show this help message")
	verboseFlag := fs.BoolP("verbose", "v", false, "Log debug details to stderr")
	fs.Usage = func() { usage(stderr, fs) }

	if err := fs.Parse(args); err != nil {
		return exitUsage
	}
	if *versionFlag {
		fmt.Fprintf(stdout, "eadtool version %s\n", version)
		return exitOK
	}
	if *helpFlag {
		usage(stdout, fs)
		return exitOK
	}

	rest := fs.Args()
	if len(rest) == 0 {
		usage(stderr, fs)
		return exitUsage
	}
	cmd, ok := commands[rest[0]]
	if !ok {
		fmt.Fprintf(stderr, "error: unknown command %q\n\n", rest[0])
		usage(stderr, fs)
		return exitUsage
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "error: %v\n", err)
		return exitFail
	}
	if *verboseFlag {
		cfg.Log.Level = "debug"
	}

	a := &app{
		cfg:    cfg,
		log:    cfg.Log.NewLogger(stderr),
		store:  source.NewStore(cfg.S3),
		out:    report.NewPrinter(stdout),
		stdout: stdout,
		stderr: stderr,
	}
	return cmd.run(context.Background(), a, rest[1:])
}

func usage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprintf(w, "Usage: eadtool [options] <command> [arguments]\n\n")
	fmt.Fprintf(w, "eadtool inspects and repairs EAD finding aids.\n")
	fmt.Fprintf(w, "Files may be local paths or s3://bucket/key locations.\n\n")
	fmt.Fprintf(w, "Commands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(w, "  %-16s %s\n", name, commands[name].summary)
	}
	fmt.Fprintf(w, "\nOptions:\n")
	fmt.Fprint(w, fs.FlagUsages())
	fmt.Fprintf(w, "\nRun 'eadtool <command> --help' for command options.\n")
}

// subcommand builds the flag set for one command.
func subcommand(a *app, name, synopsis string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	fs.Usage = func() {
		fmt.Fprintf(a.stderr, "Usage: eadtool %s %s\n\nOptions:\n", name, synopsis)
		fs.PrintDefaults()
	}
	return fs
}

// anyFiles accepts one or more positional arguments.
const anyFiles = -1

// parseArgs parses args and checks the positional argument count. It returns
// an exit code when the command should stop.
func (a *app) parseArgs(fs *pflag.FlagSet, args []string, want int) ([]string, int, bool) {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, exitOK, false
		}
		return nil, exitUsage, false
	}
	switch {
	case want == anyFiles && fs.NArg() == 0:
		fmt.Fprintln(a.stderr, "error: at least one file argument is required")
	case want != anyFiles && fs.NArg() != want:
		fmt.Fprintf(a.stderr, "error: expected %d file argument(s), got %d\n", want, fs.NArg())
	default:
		return fs.Args(), exitOK, true
	}
	fs.Usage()
	return nil, exitUsage, false
}

// read loads location and reports failures on stderr.
func (a *app) read(ctx context.Context, location string) ([]byte, bool) {
	data, err := a.store.ReadFile(ctx, location)
	if errors.Is(err, source.ErrNotFound) {
		fmt.Fprintf(a.stderr, "Error: File not found: %s\n", location)
		return nil, false
	}
	if err != nil {
		a.log.Error("read failed", "location", location, "error", err)
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return nil, false
	}
	a.log.Debug("read input", "location", location, "bytes", len(data))
	return data, true
}

// write stores data at location and reports failures on stderr.
func (a *app) write(ctx context.Context, location string, data []byte) bool {
	if err := a.store.WriteFile(ctx, location, data); err != nil {
		a.log.Error("write failed", "location", location, "error", err)
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return false
	}
	return true
}
