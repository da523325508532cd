package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"finhealth/internal/app"
	"finhealth/internal/config"
	"finhealth/pkg/contracts"
)

// options holds the command line flags
type options struct {
	configFile  string
	openBrowser bool
	version     bool
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		os.Exit(2)
	}

	if opts.version {
		fmt.Println(contracts.GetFullVersionString())
		return
	}

	if err := opts.apply(); err != nil {
		slog.Error("Failed to apply flags", slog.String("error", err.Error()))
		os.Exit(1)
	}

	application, err := app.NewApplication()
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func parseFlags(args []string, output io.Writer) (options, error) {
	var opts options

	fs := flag.NewFlagSet("console", flag.ContinueOnError)
	fs.SetOutput(output)
	fs.StringVar(&opts.configFile, "config", "", "path to config.yaml (defaults to ./config.yaml or ./configs/config.yaml)")
	fs.BoolVar(&opts.openBrowser, "open", false, "open the console in the default browser once the server is ready")
	fs.BoolVar(&opts.version, "version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	return opts, nil
}

// apply exports the flags as FINHEALTH_* variables so config.Load sees them
func (o options) apply() error {
	if o.configFile != "" {
		if err := os.Setenv(config.EnvPrefix+"_CONFIG_FILE", o.configFile); err != nil {
			return err
		}
	}
	if o.openBrowser {
		if err := os.Setenv(config.EnvPrefix+"_CONSOLE_OPEN_BROWSER", "true"); err != nil {
			return err
		}
	}
	return nil
}
