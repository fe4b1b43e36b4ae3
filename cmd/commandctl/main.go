package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/framelink/internal/commander"
	"github.com/danmuck/framelink/internal/config"
	"github.com/danmuck/framelink/internal/logging"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/transport"
	flags "github.com/jessevdk/go-flags"
)

type options struct {
	ConfigFile string        `short:"C" long:"config" description:"Path to commander config.toml (defaults apply when empty)"`
	Topic      string        `short:"t" long:"topic" description:"Override the routing token"`
	Settle     time.Duration `long:"settle" default:"300ms" description:"Wait after binding so subscribers can connect"`
	LogFile    string        `long:"logfile" description:"Also write logs to this rotated file"`
}

const usage = `commands:
  start <speed>   start the motor (invalid speed sends 100)
  stop            stop the motor
  ping            keep-alive
  text <message>  free text
  quit            exit
anything else is sent as free text`

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	parser.Usage = "[OPTIONS] [command [args...]]\n\n" + usage
	args, err := parser.Parse()
	if err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(2)
	}

	logging.ConfigureRuntime(logging.WithApp("commandctl"), logging.WithFile(opts.LogFile))
	defer logging.Close()

	cfg, err := config.LoadCommanderConfig(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "commandctl: %v\n", err)
		os.Exit(1)
	}
	if opts.Topic != "" {
		cfg.Topic = opts.Topic
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts.Settle, args, os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "commandctl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.CommanderConfig, settle time.Duration, args []string, in io.Reader, out io.Writer) error {
	pub, err := transport.ListenPub(ctx, transport.SenderConfig{Address: cfg.BroadcastAddress})
	if err != nil {
		return err
	}
	c := commander.New(cfg.Topic, pub)
	defer c.Close()

	if settle > 0 {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(settle):
		}
	}

	if len(args) > 0 {
		_, err := dispatch(c, strings.Join(args, " "), out)
		return err
	}
	return repl(ctx, c, in, out)
}

func repl(ctx context.Context, c *commander.Commander, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprintln(out, usage)
	for ctx.Err() == nil {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		quit, err := dispatch(c, scanner.Text(), out)
		if err != nil {
			fmt.Fprintf(out, "error: %v\n", err)
		}
		if quit {
			return nil
		}
	}
	return nil
}

// dispatch sends the command named by line. An invalid start speed is
// reported but not treated as a failure.
func dispatch(c *commander.Commander, line string, out io.Writer) (bool, error) {
	line = strings.TrimSpace(line)
	verb, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(verb) {
	case "":
		return false, nil
	case "quit", "exit":
		return true, nil
	case "start":
		speed, err := c.StartMotor(rest)
		if err != nil && !errors.Is(err, command.ErrInvalidSpeedDefaulted) {
			return false, err
		}
		if err != nil {
			fmt.Fprintf(out, "warning: %v\n", err)
		}
		fmt.Fprintf(out, "sent start motor speed=%d\n", speed)
		return false, nil
	case "stop":
		if err := c.StopMotor(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "sent stop motor")
		return false, nil
	case "ping", "keepalive":
		if err := c.KeepAlive(); err != nil {
			return false, err
		}
		fmt.Fprintln(out, "sent keep-alive")
		return false, nil
	case "text":
		line = rest
	}
	if err := c.SendText(line); err != nil {
		return false, err
	}
	fmt.Fprintf(out, "sent text %q\n", line)
	return false, nil
}
