package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/config"
	"github.com/harrylevesque/desuite/internal/forms"
	"github.com/harrylevesque/desuite/internal/session"
	"github.com/harrylevesque/desuite/internal/views"
)

// TODO(client-json-output): support --json for machine-readable output.

const usage = "Command: login|register|logout|whoami|spaces|space|join|tasks|task|submit|leaderboard|profile"

type options struct {
	username string
	email    string
	password string
	id       string
	query    string
	filter   string
	sort     string
	proof    string
}

type app struct {
	svc  backend.Service
	sess *session.Context
	out  *tabwriter.Writer
}

func main() {
	cmd := flag.String("cmd", "whoami", usage)
	configPath := flag.String("config", "config.json", "Path to config.json")
	serverFlag := flag.String("server", "", "Override backend base URL (e.g. http://localhost:8081)")
	var o options
	flag.StringVar(&o.username, "username", "", "Username (register)")
	flag.StringVar(&o.email, "email", "", "Email (login/register)")
	flag.StringVar(&o.password, "password", "", "Password (login/register); defaults to $DESUITE_PASSWORD")
	flag.StringVar(&o.id, "id", "", "Space or task ID")
	flag.StringVar(&o.query, "q", "", "Search text")
	flag.StringVar(&o.filter, "filter", "", "Filter (spaces: all|joined|public; tasks: all|active|completed|once|daily|weekly|monthly)")
	flag.StringVar(&o.sort, "sort", views.SortNewest, "Task sort: newest|oldest|points-high|points-low|deadline")
	flag.StringVar(&o.proof, "proof", "", "Proof of completion (submit)")
	flag.Parse()
	if o.password == "" {
		o.password = os.Getenv("DESUITE_PASSWORD")
	}

	a, err := setup(*configPath, *serverFlag)
	if err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
	defer a.out.Flush()

	if err := a.run(*cmd, o); err != nil {
		a.out.Flush()
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func setup(configPath, server string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if server != "" {
		cfg.BackendURL = strings.TrimRight(server, "/")
	}
	// The session copy is encrypted when a key is configured.
	key, err := cfg.SessionKey()
	if err != nil {
		key = nil
	}
	store, err := session.NewFileStore(filepath.Join(cfg.SessionDir, "session.json"), key)
	if err != nil {
		return nil, err
	}
	svc := backend.NewClient(cfg.BackendURL, backend.WithTimeout(cfg.RequestTimeout.Std()))
	return &app{
		svc:  svc,
		sess: session.New(svc, store),
		out:  tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0),
	}, nil
}

func (a *app) run(cmd string, o options) error {
	switch cmd {
	case "login":
		return a.login(o)
	case "register":
		return a.register(o)
	case "logout":
		if err := a.sess.Logout(); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Signed out")
		return nil
	case "whoami":
		return a.whoami()
	case "spaces":
		return a.spaces(o)
	case "space":
		return a.space(o)
	case "join":
		return a.join(o)
	case "tasks":
		return a.tasks(o)
	case "task":
		return a.task(o)
	case "submit":
		return a.submit(o)
	case "leaderboard":
		return a.leaderboard(o)
	case "profile":
		return a.profile()
	default:
		return fmt.Errorf("unknown command %q (%s)", cmd, usage)
	}
}

func ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

// caller returns a context carrying the signed-in user's id.
func (a *app) caller() (context.Context, context.CancelFunc, *views.User, error) {
	u := a.sess.User()
	if u == nil {
		return nil, nil, nil, errors.New("not signed in; run -cmd login first")
	}
	c, cancel := ctx()
	return backend.WithCaller(c, u.ID), cancel, u, nil
}

func formError(errs forms.Errors) error {
	msgs := make([]string, 0, len(errs))
	for _, m := range errs {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return errors.New(strings.Join(msgs, "; "))
}

func (a *app) login(o options) error {
	f := forms.Login{Email: o.email, Password: o.password}
	if errs := f.Validate(); !errs.OK() {
		return formError(errs)
	}
	c, cancel := ctx()
	defer cancel()
	u, err := a.sess.Login(c, f.Email, f.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Welcome back, %s\n", u.Username)
	return nil
}

func (a *app) register(o options) error {
	f := forms.Register{Username: o.username, Email: o.email, Password: o.password, ConfirmPassword: o.password}
	if errs := f.Validate(); !errs.OK() {
		return formError(errs)
	}
	c, cancel := ctx()
	defer cancel()
	u, err := a.sess.Register(c, f.Username, f.Email, f.Password)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Account created. Signed in as %s (%s)\n", u.Username, u.RoleLabel())
	return nil
}

func (a *app) whoami() error {
	u := a.sess.User()
	if u == nil {
		fmt.Fprintln(a.out, "Not signed in")
		return nil
	}
	fmt.Fprintf(a.out, "User:\t%s\n", u.Username)
	fmt.Fprintf(a.out, "Email:\t%s\n", u.Email)
	fmt.Fprintf(a.out, "Role:\t%s\n", u.RoleLabel())
	fmt.Fprintf(a.out, "Points:\t%d\n", u.Points)
	fmt.Fprintf(a.out, "Spaces:\t%d\n", len(u.Spaces))
	return nil
}

func (a *app) spaces(o options) error {
	c, cancel := ctx()
	defer cancel()
	list, err := a.svc.ListSpaces(c)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to load spaces"))
	}
	userID := ""
	if u := a.sess.User(); u != nil {
		userID = u.ID
	}
	rows := views.FilterSpaces(views.FromSpaces(list), o.query, o.filter, userID)
	if len(rows) == 0 {
		fmt.Fprintln(a.out, "No spaces found")
		return nil
	}
	fmt.Fprintln(a.out, "ID\tNAME\tVISIBILITY\tMEMBERS\tJOINED")
	for _, s := range rows {
		joined := ""
		if s.HasMember(userID) {
			joined = "yes"
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%d\t%s\n", s.ID, s.Name, s.VisibilityLabel(), s.MemberCount(), joined)
	}
	return nil
}

func (a *app) space(o options) error {
	if o.id == "" {
		return errors.New("--id required")
	}
	c, cancel := ctx()
	defer cancel()
	sp, err := a.svc.GetSpace(c, o.id)
	if err != nil {
		return errors.New(backend.Message(err, "Space not found"))
	}
	tasks, err := a.svc.ListSpaceTasks(c, o.id)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to load tasks"))
	}
	s := views.FromSpace(*sp)
	fmt.Fprintf(a.out, "%s\t(%s, %d members)\n", s.Name, s.VisibilityLabel(), s.MemberCount())
	fmt.Fprintf(a.out, "%s\n", s.Description)
	if len(s.Categories) > 0 {
		fmt.Fprintf(a.out, "Categories:\t%s\n", strings.Join(s.Categories, ", "))
	}
	fmt.Fprintln(a.out)
	a.printTasks(views.FromTasks(tasks))
	return nil
}

func (a *app) join(o options) error {
	if o.id == "" {
		return errors.New("--id required")
	}
	c, cancel, u, err := a.caller()
	if err != nil {
		return err
	}
	defer cancel()
	if u.IsMemberOf(o.id) {
		fmt.Fprintln(a.out, "Already a member")
		return nil
	}
	sp, err := a.svc.JoinSpace(c, o.id)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to join space"))
	}
	u.AddSpace(sp.ID)
	if err := a.sess.Refresh(u); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Joined %s\n", sp.Name)
	return nil
}

func (a *app) tasks(o options) error {
	u := a.sess.User()
	if u == nil {
		return errors.New("not signed in; run -cmd login first")
	}
	c, cancel := ctx()
	defer cancel()
	var all []views.Task
	for _, spaceID := range u.Spaces {
		sp, err := a.svc.GetSpace(c, spaceID)
		if err != nil {
			if backend.IsRejected(err) {
				continue
			}
			return errors.New(backend.Message(err, "Failed to load tasks"))
		}
		list, err := a.svc.ListSpaceTasks(c, spaceID)
		if err != nil {
			return errors.New(backend.Message(err, "Failed to load tasks"))
		}
		for _, t := range views.FromTasks(list) {
			t.SpaceName = sp.Name
			all = append(all, t)
		}
	}
	all = views.FilterTasks(all, o.query, o.filter)
	views.SortTasks(all, o.sort)
	a.printTasks(all)
	return nil
}

func (a *app) printTasks(tasks []views.Task) {
	if len(tasks) == 0 {
		fmt.Fprintln(a.out, "No tasks found")
		return
	}
	fmt.Fprintln(a.out, "ID\tTITLE\tSPACE\tTYPE\tPOINTS\tSTATUS\tDEADLINE")
	for _, t := range tasks {
		deadline := "-"
		if t.Deadline != nil {
			deadline = t.Deadline.Format("Jan 2, 2006")
		}
		fmt.Fprintf(a.out, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			t.ID, t.Title, t.SpaceName, t.TypeLabel(), t.Points, t.StatusLabel(), deadline)
	}
}

func (a *app) task(o options) error {
	if o.id == "" {
		return errors.New("--id required")
	}
	c, cancel := ctx()
	defer cancel()
	got, err := a.svc.GetTask(c, o.id)
	if err != nil {
		return errors.New(backend.Message(err, "Task not found"))
	}
	t := views.FromTask(*got)
	fmt.Fprintf(a.out, "%s\n", t.Title)
	fmt.Fprintf(a.out, "%s\n\n", t.Description)
	fmt.Fprintf(a.out, "Points:\t%d\n", t.Points)
	fmt.Fprintf(a.out, "Type:\t%s\n", t.TypeLabel())
	fmt.Fprintf(a.out, "Status:\t%s\n", t.StatusLabel())
	fmt.Fprintf(a.out, "Visibility:\t%s\n", t.VisibilityLabel())
	fmt.Fprintf(a.out, "Submissions:\t%s\n", t.SubmissionsLabel())
	for i, req := range t.Requirements {
		fmt.Fprintf(a.out, "Requirement %d:\t%s\n", i+1, req)
	}
	u := a.sess.User()
	if u == nil {
		return nil
	}
	sub, err := a.svc.GetUserSubmission(c, t.ID, u.ID)
	switch {
	case err == nil:
		s := views.FromSubmission(*sub)
		fmt.Fprintf(a.out, "Your submission:\t%s\n", s.StatusLabel())
		if s.ReviewerNotes != "" {
			fmt.Fprintf(a.out, "Reviewer notes:\t%s\n", s.ReviewerNotes)
		}
	case backend.IsRejected(err):
		if t.Active() {
			fmt.Fprintln(a.out, "Not submitted yet; use -cmd submit -id", t.ID, "-proof ...")
		}
	default:
		return errors.New(backend.Message(err, "Failed to load submission"))
	}
	return nil
}

func (a *app) submit(o options) error {
	if o.id == "" {
		return errors.New("--id required")
	}
	f := forms.Submission{Proof: o.proof}
	if errs := f.Validate(); !errs.OK() {
		return formError(errs)
	}
	c, cancel, _, err := a.caller()
	if err != nil {
		return err
	}
	defer cancel()
	sub, err := a.svc.SubmitTask(c, o.id, f.Proof)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to submit task"))
	}
	fmt.Fprintf(a.out, "Submitted (%s)\n", views.FromSubmission(*sub).StatusLabel())
	return nil
}

func (a *app) leaderboard(o options) error {
	c, cancel := ctx()
	defer cancel()
	entries, err := a.svc.GetLeaderboard(c)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to load leaderboard"))
	}
	userID := ""
	if u := a.sess.User(); u != nil {
		userID = u.ID
	}
	rows := views.Leaderboard(entries, userID)
	if mine := views.FindRow(rows, userID); mine != nil {
		fmt.Fprintf(a.out, "You are ranked #%d with %d points.\n\n", mine.Rank, mine.Points)
	}
	fmt.Fprintln(a.out, "RANK\tUSER\tPOINTS")
	for _, r := range views.FilterLeaderboard(rows, o.query) {
		name := r.Username
		if r.IsCurrentUser {
			name += " (you)"
		}
		fmt.Fprintf(a.out, "#%d\t%s\t%d\n", r.Rank, name, r.Points)
	}
	return nil
}

func (a *app) profile() error {
	c, cancel, u, err := a.caller()
	if err != nil {
		return err
	}
	defer cancel()
	st, err := a.svc.GetUserStats(c, u.ID)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to load profile"))
	}
	done, err := a.svc.GetUserCompletedTasks(c, u.ID)
	if err != nil {
		return errors.New(backend.Message(err, "Failed to load profile"))
	}
	s := views.FromStats(*st)
	fmt.Fprintf(a.out, "%s\t%s\n", u.Username, u.RoleLabel())
	fmt.Fprintf(a.out, "Total points:\t%d\n", s.TotalPoints)
	fmt.Fprintf(a.out, "Completed tasks:\t%d\n", s.CompletedTasks)
	fmt.Fprintf(a.out, "Pending submissions:\t%d\n", s.PendingSubmissions)
	fmt.Fprintf(a.out, "Ranking:\t#%d\n", s.Ranking)
	if len(done) > 0 {
		fmt.Fprintln(a.out)
		a.printTasks(views.FromTasks(done))
	}
	return nil
}
