package rpc

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/backend/memory"
	"github.com/harrylevesque/desuite/internal/models"
	"github.com/harrylevesque/desuite/internal/utils"
)

func startRPC(t *testing.T) (*backend.Client, *httptest.Server) {
	t.Helper()
	mem := memory.New(memory.WithBcryptCost(bcrypt.MinCost))
	ts := httptest.NewServer(NewServer(mem, utils.NewWriterLogger(io.Discard)).Router())
	t.Cleanup(ts.Close)
	return backend.NewClient(ts.URL + "/"), ts
}

func TestClientRoundTrip(t *testing.T) {
	c, _ := startRPC(t)
	ctx := context.Background()

	u, err := c.Register(ctx, "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Role != models.RoleSuperAdmin {
		t.Fatalf("role = %q", u.Role)
	}
	ctx = backend.WithCaller(ctx, u.ID)

	sp, err := c.CreateSpace(ctx, backend.CreateSpaceInput{Name: "Go Club", Description: "gophers only", Categories: []string{"dev"}})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	task, err := c.CreateTask(ctx, backend.CreateTaskInput{
		SpaceID: sp.ID, Title: "Write", Description: "Write something good",
		Points: 10, TaskType: models.TaskWeekly, Visibility: models.VisibleEveryone,
		Requirements: []string{"a link"},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	if task.TaskType != models.TaskWeekly || task.Status != models.TaskActive {
		t.Fatalf("task enums lost in transit: %+v", task)
	}
	if _, ok := task.Deadline.Get(); ok {
		t.Fatalf("deadline should be absent")
	}

	sub, err := c.SubmitTask(ctx, task.ID, "done")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	reviewed, err := c.ReviewSubmission(ctx, backend.ReviewInput{SubmissionID: sub.ID, Approved: false})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != models.SubmissionRejected || reviewed.ReviewerNotes.Set {
		t.Fatalf("reviewed: %+v", reviewed)
	}

	board, err := c.GetLeaderboard(ctx)
	if err != nil || len(board) != 1 || board[0].Username != "alice" {
		t.Fatalf("leaderboard: %+v %v", board, err)
	}
	tasks, err := c.ListSpaceTasks(ctx, sp.ID)
	if err != nil || len(tasks) != 1 {
		t.Fatalf("space tasks: %+v %v", tasks, err)
	}
}

func TestRejectionCarriesBackendText(t *testing.T) {
	c, _ := startRPC(t)
	_, err := c.Login(context.Background(), "nobody@example.com", "secret1")
	if !backend.IsRejected(err) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if got := backend.Message(err, "Login failed"); got != memory.ErrTextInvalidCredentials {
		t.Fatalf("message = %q", got)
	}
	_, err = c.JoinSpace(context.Background(), "s1")
	if backend.Message(err, "") != memory.ErrTextNotLoggedIn {
		t.Fatalf("caller-less join: %v", err)
	}
}

func TestTransportFailures(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/rpc/" + backend.MethodGetAllSpaces:
			http.Error(w, "boom", http.StatusInternalServerError)
		case "/rpc/" + backend.MethodGetLeaderboard:
			w.Write([]byte("not json"))
		default:
			time.Sleep(200 * time.Millisecond)
		}
	}))
	defer broken.Close()

	c := backend.NewClient(broken.URL, backend.WithTimeout(50*time.Millisecond))
	ctx := context.Background()
	if _, err := c.ListSpaces(ctx); !backend.IsTransport(err) {
		t.Fatalf("500: %v", err)
	}
	if _, err := c.GetLeaderboard(ctx); !backend.IsTransport(err) {
		t.Fatalf("bad body: %v", err)
	}
	_, err := c.GetTask(ctx, "t1")
	if !backend.IsTransport(err) {
		t.Fatalf("timeout: %v", err)
	}
	if got := backend.Message(err, "Failed to load task"); got != "Failed to load task" {
		t.Fatalf("transport message = %q", got)
	}
}

func TestServerRejectsBadRequests(t *testing.T) {
	_, ts := startRPC(t)
	cases := []struct {
		path, body string
		status     int
	}{
		{"/rpc/nope", `{}`, http.StatusNotFound},
		{"/rpc/" + backend.MethodGetSpace, `not json`, http.StatusBadRequest},
		{"/rpc/" + backend.MethodGetSpace, ``, http.StatusBadRequest},
	}
	for _, tc := range cases {
		resp, err := http.Post(ts.URL+tc.path, "application/json", strings.NewReader(tc.body))
		if err != nil {
			t.Fatalf("%s: %v", tc.path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != tc.status {
			t.Fatalf("%s %q: status %d want %d", tc.path, tc.body, resp.StatusCode, tc.status)
		}
	}

	resp, err := http.Post(ts.URL+"/rpc/"+backend.MethodGetSpace, "application/json", strings.NewReader(`{"id":"missing"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), `"err":"Space not found"`) {
		t.Fatalf("rejection envelope: %d %s", resp.StatusCode, body)
	}
}
