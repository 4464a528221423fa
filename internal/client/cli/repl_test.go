package cli

import (
	"bufio"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeExec struct {
	loggedIn bool

	calls []string
	arg   string
}

func (f *fakeExec) record(c string) error {
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeExec) isLoggedIn() bool                    { return f.loggedIn }
func (f *fakeExec) Consult(ctx context.Context) error   { return f.record("consult") }
func (f *fakeExec) History(ctx context.Context) error   { return f.record("history") }
func (f *fakeExec) Sync(ctx context.Context) error      { return f.record("sync") }
func (f *fakeExec) Hospitals(ctx context.Context) error { return f.record("hospitals") }
func (f *fakeExec) NGOs(ctx context.Context) error      { return f.record("ngos") }
func (f *fakeExec) Profile(ctx context.Context) error   { return f.record("profile") }
func (f *fakeExec) Status(ctx context.Context) error    { return f.record("status") }

func (f *fakeExec) Doctors(ctx context.Context, specialization string) error {
	f.arg = specialization
	return f.record("doctors")
}

func (f *fakeExec) Fetch(ctx context.Context, path string) error {
	f.arg = path
	return f.record("fetch")
}

func (f *fakeExec) Login(ctx context.Context) error {
	f.loggedIn = true
	return f.record("login")
}

func (f *fakeExec) Logout(ctx context.Context) error {
	f.loggedIn = false
	return f.record("logout")
}

func silence(t *testing.T) *[]string {
	t.Helper()
	var printed []string
	orig := printlnFn
	printlnFn = func(a ...any) (int, error) {
		parts := make([]string, len(a))
		for i, v := range a {
			parts[i] = strings.TrimSpace(strings.ReplaceAll(strings.TrimSpace(toString(v)), "\n", " "))
		}
		printed = append(printed, strings.Join(parts, " "))
		return 0, nil
	}
	t.Cleanup(func() { printlnFn = orig })
	return &printed
}

func toString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	return ""
}

func TestRunREPL_DispatchesCommands(t *testing.T) {
	silence(t)

	input := strings.Join([]string{
		"help",
		"consult",
		"history",
		"sync",
		"",
		"login",
		"doctors General Medicine",
		"hospitals",
		"ngos",
		"profile",
		"status",
		"logout",
		"foobar",
		"exit",
		"history",
	}, "\n")

	exec := &fakeExec{}
	runREPL(context.Background(), exec, func() string { return "(offline)" }, bufio.NewReader(strings.NewReader(input)))

	assert.Equal(t, []string{
		"consult", "history", "sync", "login", "doctors", "hospitals", "ngos", "profile", "status", "logout",
	}, exec.calls)
	assert.Equal(t, "General Medicine", exec.arg)
	assert.False(t, exec.loggedIn)
}

func TestRunREPL_FetchUsageAndEOF(t *testing.T) {
	printed := silence(t)

	exec := &fakeExec{loggedIn: true}
	runREPL(context.Background(), exec, func() string { return "s" }, bufio.NewReader(strings.NewReader("fetch\nfetch /static/app.js")))

	assert.Equal(t, []string{"fetch"}, exec.calls)
	assert.Equal(t, "/static/app.js", exec.arg)
	assert.Contains(t, *printed, "Usage: fetch <path>")
}

func TestRunREPL_PromptShowsStatus(t *testing.T) {
	printed := silence(t)

	runREPL(context.Background(), &fakeExec{}, func() string { return "(online)" }, bufio.NewReader(strings.NewReader("quit\n")))

	assert.Equal(t, []string{"wecare (online)>", "Bye!"}, *printed)
}
