package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/automaxprocs/maxprocs"

	"github.com/mousemirror/mousemirror/cmd/client"
	"github.com/mousemirror/mousemirror/cmd/server"
	"github.com/mousemirror/mousemirror/internal/config"
)

// version information - to be set during build time
var (
	Version   = "dev"
	BuildDate = "unknown"
	GitCommit = "none"
)

func main() {
	// load .env file automatically
	err := godotenv.Load()
	if err != nil {
		log.Println("no .env file found (continuing with system environment)")
	}

	role, target := handleFlags()
	cfg := config.ParseConfigFromEnv()

	// detect the log level
	logLevel := slog.LevelInfo
	if err = logLevel.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid log level: '%s'\n", cfg.LogLevel)
		os.Exit(1)
	}

	if err = cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "error: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// setup our logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))

	// set the maxprocs
	if _, err = maxprocs.Set(maxprocs.Logger(func(message string, args ...any) {
		logger.Info(fmt.Sprintf(message, args...))
	})); err != nil {
		logger.Error("could not set GOMAXPROCS", "error", err)
	}

	switch role {
	case "server":
		logger = logger.With("role", "server")
		logger.Info("starting mousemirror...", "version", Version, "buildDate", BuildDate, "gitCommit", GitCommit)
		if err = server.Run(&cfg, logger); err != nil {
			logger.Error("mousemirror server failed", "error", err)
			os.Exit(1)
		}
	case "client":
		if target == "" {
			target = cfg.TargetAddress
		}

		logger = logger.With("role", "client")
		logger.Info("starting mousemirror...", "version", Version, "buildDate", BuildDate, "gitCommit", GitCommit, "target", target)
		if err = client.Run(&cfg, target, logger); err != nil {
			logger.Error("mousemirror client failed", "error", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "error: invalid role: '%s'. must be one of: server, client\n", role)
		printUsage()
		os.Exit(1)
	}
}

// commandLine holds what was given on the command line.
type commandLine struct {
	role    string
	target  string
	version bool
	help    bool
}

// handleFlags returns the role and the optional client target. Both may also
// be given positionally: `mousemirror client 192.168.1.20`.
func handleFlags() (string, string) {
	cmd, err := parseCommandLine(flag.CommandLine, os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		printUsage()
		os.Exit(2)
	}

	// handle version flag
	if cmd.version {
		fmt.Printf("mousemirror: %s\n", Version)
		fmt.Printf("Build time: %s\n", BuildDate)
		fmt.Printf("Git commit: %s\n", GitCommit)
		os.Exit(0)
	}

	// handle help flag or empty role
	if cmd.help || cmd.role == "" {
		printUsage()
		if cmd.help {
			os.Exit(0)
		}
		os.Exit(1)
	}

	return cmd.role, cmd.target
}

// parseCommandLine parses flags and the positional role and target. Flags may
// appear before, between or after the positional arguments.
func parseCommandLine(fs *flag.FlagSet, args []string) (commandLine, error) {
	var cmd commandLine

	// define command line flags
	fs.StringVar(&cmd.role, "role", "", "role to run: server, client")
	fs.StringVar(&cmd.target, "target", "", "server address for the client role (host or host:port)")
	fs.BoolVar(&cmd.version, "version", false, "show version information")
	fs.BoolVar(&cmd.help, "help", false, "show help message")

	var positional []string
	for {
		if err := fs.Parse(args); err != nil {
			return commandLine{}, err
		}
		args = fs.Args()
		if len(args) == 0 {
			break
		}
		positional = append(positional, args[0])
		args = args[1:]
	}

	if cmd.role == "" && len(positional) > 0 {
		cmd.role = positional[0]
		positional = positional[1:]
	}
	if cmd.target == "" && len(positional) > 0 {
		cmd.target = positional[0]
		positional = positional[1:]
	}
	if len(positional) > 0 {
		return commandLine{}, fmt.Errorf("unexpected arguments: %s", strings.Join(positional, " "))
	}

	cmd.role = strings.ToLower(cmd.role)
	return cmd, nil
}

func printUsage() {
	fmt.Println("Usage: mousemirror --role=<role> [--target=<address>]")
	fmt.Println("       mousemirror <role> [address]")
	fmt.Println()
	fmt.Println("Available roles:")
	fmt.Println("  server - Receive motion and replay it on this machine's pointer")
	fmt.Println("  client - Stream this machine's pointer motion to a server")
	fmt.Println()
	fmt.Println("Flags:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  mousemirror --role=server")
	fmt.Println("  mousemirror --role=client --target=192.168.1.20")
	fmt.Println("  mousemirror client 192.168.1.20:8005")
}
