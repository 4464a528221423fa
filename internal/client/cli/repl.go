package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// Shell satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool
	Consult(ctx context.Context) error
	History(ctx context.Context) error
	Sync(ctx context.Context) error
	Doctors(ctx context.Context, specialization string) error
	Hospitals(ctx context.Context) error
	NGOs(ctx context.Context) error
	Login(ctx context.Context) error
	Logout(ctx context.Context) error
	Profile(ctx context.Context) error
	Fetch(ctx context.Context, path string) error
	Status(ctx context.Context) error
}

// runREPL reads one command per line from in and dispatches to a. The loop
// exits on EOF or when the user types "exit" or "quit".
//
// Commands:
//
//	consult             describe symptoms and get an assessment
//	history             list consultations stored on this device
//	sync                send pending consultations now
//	doctors [spec]      list doctors, optionally by specialization
//	hospitals, ngos     list hospitals or NGOs
//	login, logout       sign in or out
//	profile             show the signed-in user
//	fetch <path>        read a resource through the response cache
//	status              connectivity and pending count
//	help, exit | quit
//
// Errors returned by command handlers are ignored here; handlers report their
// own errors.
func runREPL(ctx context.Context, a execIface, statusFn func() string, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("wecare %s> ", statusFn()))
		line, err := in.ReadString('\n')
		if err != nil && (!errors.Is(err, io.EOF) || line == "") {
			return
		}
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		cmd, args := parts[0], parts[1:]

		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn("Available commands: consult, history, sync, doctors [specialization], hospitals, ngos, profile, fetch <path>, status, logout, exit")
			} else {
				printlnFn("Available commands: consult, history, sync, doctors [specialization], hospitals, ngos, fetch <path>, status, login, exit")
			}

		case "consult", "c":
			_ = a.Consult(ctx)

		case "history", "h":
			_ = a.History(ctx)

		case "sync":
			_ = a.Sync(ctx)

		case "doctors":
			_ = a.Doctors(ctx, strings.Join(args, " "))

		case "hospitals":
			_ = a.Hospitals(ctx)

		case "ngos":
			_ = a.NGOs(ctx)

		case "login":
			_ = a.Login(ctx)

		case "logout":
			_ = a.Logout(ctx)

		case "profile":
			_ = a.Profile(ctx)

		case "fetch":
			if len(args) != 1 {
				printlnFn("Usage: fetch <path>")
				continue
			}
			_ = a.Fetch(ctx, args[0])

		case "status":
			_ = a.Status(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			return
		}
	}
}
