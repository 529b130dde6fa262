package memory

import (
	"context"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/models"
)

type fixture struct {
	svc   *Service
	admin *models.User
	user  *models.User
	space *models.Space
	task  *models.Task
}

func as(u *models.User) context.Context {
	return backend.WithCaller(context.Background(), u.ID)
}

func setup(t *testing.T) fixture {
	t.Helper()
	clock := time.Unix(1_700_000_000, 0)
	svc := New(WithBcryptCost(bcrypt.MinCost), WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}))
	ctx := context.Background()
	admin, err := svc.Register(ctx, "alice", "alice@example.com", "secret1")
	if err != nil {
		t.Fatalf("register alice: %v", err)
	}
	user, err := svc.Register(ctx, "bob", "bob@example.com", "secret1")
	if err != nil {
		t.Fatalf("register bob: %v", err)
	}
	space, err := svc.CreateSpace(as(admin), backend.CreateSpaceInput{
		Name: "Go Club", Description: "All things Go", IsPublic: true, Categories: []string{"dev"},
	})
	if err != nil {
		t.Fatalf("create space: %v", err)
	}
	task, err := svc.CreateTask(as(admin), backend.CreateTaskInput{
		SpaceID: space.ID, Title: "Write a post", Description: "Blog about generics",
		Points: 40, TaskType: models.TaskOnce, Visibility: models.VisibleMembers,
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	return fixture{svc: svc, admin: admin, user: user, space: space, task: task}
}

func rejectedWith(t *testing.T, err error, msg string) {
	t.Helper()
	if !backend.IsRejected(err) || err.Error() != msg {
		t.Fatalf("expected rejection %q, got %v", msg, err)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := setup(t)
	if f.admin.Role != models.RoleSpaceAdmin && f.admin.Role != models.RoleSuperAdmin {
		t.Fatalf("first user role = %q", f.admin.Role)
	}
	if f.user.Role != models.RoleMember {
		t.Fatalf("second user role = %q", f.user.Role)
	}
	_, err := f.svc.Register(context.Background(), "bobby", "BOB@example.com", "secret1")
	rejectedWith(t, err, ErrTextEmailTaken)

	u, err := f.svc.Login(context.Background(), " Alice@Example.com ", "secret1")
	if err != nil || u.ID != f.admin.ID {
		t.Fatalf("login: %+v %v", u, err)
	}
	if len(u.Spaces) != 1 || u.Spaces[0] != f.space.ID {
		t.Fatalf("creator spaces = %v", u.Spaces)
	}
	_, err = f.svc.Login(context.Background(), "alice@example.com", "nope")
	rejectedWith(t, err, ErrTextInvalidCredentials)
}

func TestJoinIsIdempotent(t *testing.T) {
	f := setup(t)
	for i := 0; i < 2; i++ {
		sp, err := f.svc.JoinSpace(as(f.user), f.space.ID)
		if err != nil {
			t.Fatalf("join %d: %v", i, err)
		}
		if len(sp.Members) != 2 {
			t.Fatalf("members after join %d = %v", i, sp.Members)
		}
	}
	_, err := f.svc.JoinSpace(context.Background(), f.space.ID)
	rejectedWith(t, err, ErrTextNotLoggedIn)
}

func TestOnlyAdminCreatesTasks(t *testing.T) {
	f := setup(t)
	_, err := f.svc.CreateTask(as(f.user), backend.CreateTaskInput{
		SpaceID: f.space.ID, Title: "Nope", Description: "not allowed here",
		Points: 5, TaskType: models.TaskDaily, Visibility: models.VisibleEveryone,
	})
	rejectedWith(t, err, ErrTextNotSpaceAdmin)
}

func TestSubmissionRules(t *testing.T) {
	f := setup(t)
	_, err := f.svc.SubmitTask(as(f.user), f.task.ID, "done")
	rejectedWith(t, err, ErrTextNotMember)

	if _, err := f.svc.JoinSpace(as(f.user), f.space.ID); err != nil {
		t.Fatalf("join: %v", err)
	}
	sub, err := f.svc.SubmitTask(as(f.user), f.task.ID, " completed X ")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Status != models.SubmissionPending || sub.Proof != "completed X" {
		t.Fatalf("submission: %+v", sub)
	}
	_, err = f.svc.SubmitTask(as(f.user), f.task.ID, "again")
	rejectedWith(t, err, ErrTextAlreadySubmitted)

	got, err := f.svc.GetUserSubmission(context.Background(), f.task.ID, f.user.ID)
	if err != nil || got.ID != sub.ID {
		t.Fatalf("get user submission: %+v %v", got, err)
	}
	_, err = f.svc.GetUserSubmission(context.Background(), f.task.ID, f.admin.ID)
	rejectedWith(t, err, ErrTextSubmissionNotFound)

	task, _ := f.svc.GetTask(context.Background(), f.task.ID)
	if task.CurrentSubmissions != 1 {
		t.Fatalf("current submissions = %d", task.CurrentSubmissions)
	}

	if err := f.svc.SetTaskStatus(f.task.ID, models.TaskPaused); err != nil {
		t.Fatalf("pause: %v", err)
	}
	_, err = f.svc.SubmitTask(as(f.admin), f.task.ID, "mine")
	rejectedWith(t, err, ErrTextTaskNotActive)
}

func TestSubmissionLimit(t *testing.T) {
	f := setup(t)
	f.svc.tasks[f.task.ID].MaxSubmissions = 1
	f.svc.tasks[f.task.ID].Visibility = models.VisibleEveryone
	if _, err := f.svc.SubmitTask(as(f.user), f.task.ID, "first"); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := f.svc.SubmitTask(as(f.admin), f.task.ID, "second")
	rejectedWith(t, err, ErrTextTaskFull)
}

func TestReviewCreditsPoints(t *testing.T) {
	f := setup(t)
	f.svc.JoinSpace(as(f.user), f.space.ID)
	sub, err := f.svc.SubmitTask(as(f.user), f.task.ID, "completed X")
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, err = f.svc.ListTaskSubmissions(as(f.user), f.task.ID)
	rejectedWith(t, err, ErrTextNotTaskCreator)
	_, err = f.svc.ReviewSubmission(as(f.user), backend.ReviewInput{SubmissionID: sub.ID, Approved: true})
	rejectedWith(t, err, ErrTextNotTaskCreator)

	reviewed, err := f.svc.ReviewSubmission(as(f.admin), backend.ReviewInput{
		SubmissionID: sub.ID, Approved: true, Notes: models.Some("great work"),
	})
	if err != nil {
		t.Fatalf("review: %v", err)
	}
	if reviewed.Status != models.SubmissionApproved || reviewed.ReviewerNotes.Or("") != "great work" {
		t.Fatalf("reviewed: %+v", reviewed)
	}
	if id, _ := reviewed.ReviewerID.Get(); id != f.admin.ID {
		t.Fatalf("reviewer = %q", id)
	}
	_, err = f.svc.ReviewSubmission(as(f.admin), backend.ReviewInput{SubmissionID: sub.ID})
	rejectedWith(t, err, ErrTextAlreadyReviewed)

	stats, err := f.svc.GetUserStats(context.Background(), f.user.ID)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if stats.TotalPoints != 40 || stats.CompletedTasks != 1 || stats.Ranking != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	done, _ := f.svc.GetUserCompletedTasks(context.Background(), f.user.ID)
	if len(done) != 1 || done[0].ID != f.task.ID {
		t.Fatalf("completed: %+v", done)
	}

	board, _ := f.svc.GetLeaderboard(context.Background())
	if len(board) != 2 || board[0].Username != "bob" || board[1].Username != "alice" {
		t.Fatalf("leaderboard: %+v", board)
	}
}

func TestLeaderboardTiesByUsername(t *testing.T) {
	svc := New(WithBcryptCost(bcrypt.MinCost))
	for _, name := range []string{"zed", "amy", "kim"} {
		if _, err := svc.Register(context.Background(), name, name+"@example.com", "secret1"); err != nil {
			t.Fatalf("register %s: %v", name, err)
		}
	}
	board, _ := svc.GetLeaderboard(context.Background())
	got := board[0].Username + board[1].Username + board[2].Username
	if got != "amykimzed" {
		t.Fatalf("order = %s", got)
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	f := setup(t)
	sp, _ := f.svc.GetSpace(context.Background(), f.space.ID)
	sp.Members[0] = "mallory"
	again, _ := f.svc.GetSpace(context.Background(), f.space.ID)
	if again.Members[0] != f.admin.ID {
		t.Fatalf("caller mutated stored space")
	}
}

func TestSeed(t *testing.T) {
	svc := New(WithBcryptCost(bcrypt.MinCost))
	admin, err := Seed(context.Background(), svc)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if len(admin.Spaces) != 1 {
		t.Fatalf("demo spaces = %v", admin.Spaces)
	}
	tasks, _ := svc.ListSpaceTasks(context.Background(), admin.Spaces[0])
	seen := map[models.TaskType]bool{}
	for _, task := range tasks {
		seen[task.TaskType] = true
	}
	for _, tt := range models.TaskTypes {
		if !seen[tt] {
			t.Fatalf("no seeded task of type %s", tt)
		}
	}
}
