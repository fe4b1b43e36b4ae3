package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/danmuck/framelink/internal/commander"
	"github.com/danmuck/framelink/internal/protocol/command"
	"github.com/danmuck/framelink/internal/testutil/testlog"
	"github.com/danmuck/framelink/internal/transport"
)

func TestDispatchSendsCommands(t *testing.T) {
	testlog.Start(t)
	pipe := transport.NewPipe(context.Background())
	c := commander.New(command.DefaultTopic, pipe)
	var out bytes.Buffer

	lines := []string{"start 120", "start fast", "stop", "ping", "text hello there", "status?", ""}
	for _, line := range lines {
		quit, err := dispatch(c, line, &out)
		if err != nil || quit {
			t.Fatalf("%q: quit=%v err=%v", line, quit, err)
		}
	}
	if pipe.Len() != 6 {
		t.Fatalf("sent got=%d want=6", pipe.Len())
	}

	want := []command.Command{
		command.StartMotor{Speed: 120},
		command.StartMotor{Speed: command.DefaultSpeed},
		command.StopMotor{},
		command.KeepAlive{},
		command.RawText{Text: "hello there"},
		command.RawText{Text: "status?"},
	}
	for i, w := range want {
		msg, err := pipe.TryRecv()
		if err != nil {
			t.Fatalf("recv %d: %v", i, err)
		}
		env, err := command.Decode(msg)
		if err != nil {
			t.Fatalf("decode %d: %v", i, err)
		}
		if env.Command != w {
			t.Fatalf("command %d got=%#v want=%#v", i, env.Command, w)
		}
	}
	if !strings.Contains(out.String(), "warning:") {
		t.Fatalf("expected invalid speed warning in output: %q", out.String())
	}
}

func TestReplStopsOnQuit(t *testing.T) {
	testlog.Start(t)
	pipe := transport.NewPipe(context.Background())
	c := commander.New(command.DefaultTopic, pipe)
	var out bytes.Buffer

	in := strings.NewReader("stop\nquit\nstop\n")
	if err := repl(context.Background(), c, in, &out); err != nil {
		t.Fatalf("repl: %v", err)
	}
	if pipe.Len() != 1 {
		t.Fatalf("sent got=%d want=1", pipe.Len())
	}
}
