package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/dmitrijs2005/wecare/internal/client/app"
	"github.com/dmitrijs2005/wecare/internal/client/models"
)

// Shell runs user commands against a started App.
type Shell struct {
	app *app.App
	in  *bufio.Reader
	out io.Writer
	ask prompter
}

func NewShell(a *app.App, in io.Reader, out io.Writer) *Shell {
	r := bufio.NewReader(in)
	return &Shell{app: a, in: r, out: out, ask: prompter{in: r, out: out}}
}

// Run blocks until the user exits or input ends.
func (s *Shell) Run(ctx context.Context) {
	fmt.Fprintln(s.out, "Welcome to WeCare (type 'help' for commands)")
	runREPL(ctx, s, s.status, s.in)
}

func (s *Shell) status() string {
	st := s.app.Monitor.State().String()
	if s.isLoggedIn() {
		st = "signed in, " + st
	}
	return "(" + st + ")"
}

func (s *Shell) isLoggedIn() bool {
	tok, err := s.app.Profile.Token(context.Background())
	return err == nil && tok != ""
}

func (s *Shell) fail(err error) error {
	fmt.Fprintf(s.out, "error: %v\n", err)
	return err
}

func (s *Shell) Consult(ctx context.Context) error {
	symptoms, err := s.ask.symptoms()
	if err != nil {
		return s.fail(err)
	}
	imagePath, err := s.ask.text("Image file (empty for none)")
	if err != nil && !errors.Is(err, io.EOF) {
		return s.fail(err)
	}

	sub := models.Submission{Symptoms: symptoms}
	if s.isLoggedIn() {
		if sub.UseHistory, err = s.ask.confirm("Let the assistant see your past consultations?", false); err != nil {
			return s.fail(err)
		}
	}
	if imagePath != "" {
		b, err := os.ReadFile(imagePath)
		if err != nil {
			return s.fail(err)
		}
		sub.Media, sub.MediaName = b, filepath.Base(imagePath)
	}

	c, err := s.app.Consultations.Submit(ctx, sub)
	if err != nil {
		return s.fail(err)
	}
	s.printResult(c)
	return nil
}

func (s *Shell) printResult(c *models.Consultation) {
	r := c.Result
	fmt.Fprintf(s.out, "\nPriority: %s\n", strings.ToUpper(r.Priority.String()))
	if r.Specialization != "" {
		fmt.Fprintf(s.out, "Recommended specialist: %s\n", r.Specialization)
	}
	fmt.Fprintf(s.out, "\n%s\n", r.Response)
	if len(r.RecommendedDoctors) > 0 {
		fmt.Fprintln(s.out, "\nDoctors:")
		for _, d := range r.RecommendedDoctors {
			fmt.Fprintf(s.out, "  %s (%s) %s %s\n", d.Name, d.Hospital, d.AvailableDays, d.Phone)
		}
	}
	fmt.Fprintln(s.out)
}

func (s *Shell) History(ctx context.Context) error {
	all, err := s.app.Consultations.History(ctx)
	if err != nil {
		return s.fail(err)
	}
	if len(all) == 0 {
		fmt.Fprintln(s.out, "No consultations yet")
		return nil
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tDATE\tPRIORITY\tSTATE\tSYMPTOMS")
	for _, c := range all {
		state := "synced"
		if !c.Synced {
			state = "pending"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.CreatedAt.Local().Format("2006-01-02 15:04"), c.Result.Priority, state, truncate(c.Symptoms, 40))
	}
	return tw.Flush()
}

func (s *Shell) Sync(ctx context.Context) error {
	_, err := s.app.Consultations.SyncNow(ctx)
	return err
}

func (s *Shell) Doctors(ctx context.Context, specialization string) error {
	return s.listDomain(ctx, models.DomainDoctors, specialization, "specialization", "hospital", "phone")
}

func (s *Shell) Hospitals(ctx context.Context) error {
	return s.listDomain(ctx, models.DomainHospitals, "", "type", "address", "phone")
}

func (s *Shell) NGOs(ctx context.Context) error {
	return s.listDomain(ctx, models.DomainNGOs, "", "working_areas", "phone", "email")
}

func (s *Shell) listDomain(ctx context.Context, d models.Domain, specialization string, cols ...string) error {
	items, err := s.app.Reference.List(ctx, d, specialization)
	if err != nil {
		return s.fail(err)
	}
	if len(items) == 0 {
		fmt.Fprintf(s.out, "No %s available\n", d)
		return nil
	}

	tw := tabwriter.NewWriter(s.out, 0, 0, 2, ' ', 0)
	header := append([]string{"NAME"}, cols...)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(header, "\t")))
	for _, e := range items {
		row := []string{e.Str("name")}
		for _, c := range cols {
			row = append(row, e.Str(c))
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

func (s *Shell) Login(ctx context.Context) error {
	username, err := s.ask.text("Username")
	if err != nil {
		return s.fail(err)
	}
	password, err := s.ask.password()
	if err != nil {
		return s.fail(err)
	}
	defer clear(password)

	p, err := s.app.Profile.Login(ctx, username, string(password))
	if err != nil {
		return s.fail(err)
	}
	fmt.Fprintf(s.out, "Signed in as %s\n", p.Username)
	return nil
}

func (s *Shell) Logout(ctx context.Context) error {
	if err := s.app.Profile.Logout(ctx); err != nil {
		return s.fail(err)
	}
	fmt.Fprintln(s.out, "Signed out")
	return nil
}

func (s *Shell) Profile(ctx context.Context) error {
	if !s.isLoggedIn() {
		fmt.Fprintln(s.out, "Not signed in")
		return nil
	}
	p, err := s.app.Profile.Me(ctx)
	if err != nil {
		return s.fail(err)
	}
	fmt.Fprintf(s.out, "%s <%s>\n", p.Username, p.Email)
	if p.FullName != "" {
		fmt.Fprintf(s.out, "Name: %s\n", p.FullName)
	}
	if p.BloodGroup != "" {
		fmt.Fprintf(s.out, "Blood group: %s\n", p.BloodGroup)
	}
	return nil
}

func (s *Shell) Fetch(ctx context.Context, path string) error {
	res, err := s.app.Fetch(ctx, path)
	if err != nil {
		return s.fail(err)
	}
	source := "network"
	switch {
	case res.Offline:
		source = "offline placeholder"
	case res.Cached:
		source = "cache"
	}
	fmt.Fprintf(s.out, "%d from %s, %d bytes\n", res.Status, source, len(res.Body))
	return nil
}

func (s *Shell) Status(ctx context.Context) error {
	all, err := s.app.Consultations.History(ctx)
	if err != nil {
		return s.fail(err)
	}
	pending := 0
	for _, c := range all {
		if !c.Synced {
			pending++
		}
	}
	fmt.Fprintf(s.out, "Network: %s\nPending consultations: %d\nDevice: %s\n", s.app.Monitor.State(), pending, s.app.DeviceID)
	return nil
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
