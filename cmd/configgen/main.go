package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/danmuck/framelink/internal/config"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	Kind     string `short:"k" long:"kind" default:"worker" choice:"worker" choice:"commander" choice:"pusher" description:"Config kind"`
	Output   string `short:"o" long:"output" description:"Output path for the template (defaults to cmd/<binary>/config.toml)"`
	Validate bool   `long:"validate" description:"Validate an existing config file instead of writing one"`
	Input    string `short:"i" long:"input" description:"Config path for validation (defaults to the per-kind path)"`
	Force    bool   `short:"f" long:"force" description:"Overwrite an existing config file"`
}

func defaultPath(kind string) string {
	switch kind {
	case "commander":
		return "cmd/commandctl/config.toml"
	case "pusher":
		return "cmd/pushctl/config.toml"
	default:
		return "cmd/workerctl/config.toml"
	}
}

func validate(kind, path string) error {
	var err error
	switch kind {
	case "worker":
		_, err = config.LoadWorkerConfig(path)
	case "commander":
		_, err = config.LoadCommanderConfig(path)
	case "pusher":
		_, err = config.LoadPusherConfig(path)
	default:
		err = fmt.Errorf("unknown kind: %s", kind)
	}
	return err
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	if opts.Validate {
		path := opts.Input
		if path == "" {
			path = defaultPath(opts.Kind)
		}
		if err := validate(opts.Kind, path); err != nil {
			fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Validated %s config at %s\n", opts.Kind, path)
		return
	}

	target := opts.Output
	if target == "" {
		target = defaultPath(opts.Kind)
	}
	if err := config.WriteTemplate(target, opts.Kind, opts.Force); err != nil {
		fmt.Fprintf(os.Stderr, "configgen: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s config template to %s\n", opts.Kind, target)
}
