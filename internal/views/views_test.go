package views

import (
	"testing"
	"time"

	"github.com/harrylevesque/desuite/internal/models"
)

func task(id string, pts int64, created int, typ models.TaskType, status models.TaskStatus, deadline *time.Time) Task {
	return Task{
		ID:          id,
		Title:       "task " + id,
		Description: "description of " + id,
		Points:      pts,
		Type:        typ,
		Status:      status,
		CreatedAt:   time.Unix(int64(created), 0),
		Deadline:    deadline,
	}
}

func ids(tasks []Task) string {
	s := ""
	for _, t := range tasks {
		s += t.ID
	}
	return s
}

func TestFromTaskCarriesDeadline(t *testing.T) {
	m := models.Task{
		ID:       "t1",
		TaskType: models.TaskWeekly,
		Status:   models.TaskActive,
		Deadline: models.Some(models.Timestamp(2_000_000_000)),
	}
	v := FromTask(m)
	if v.Deadline == nil || v.Deadline.UnixNano() != 2_000_000_000 {
		t.Fatalf("deadline = %v", v.Deadline)
	}
	if v.TypeLabel() != "Weekly" || !v.Active() {
		t.Fatalf("labels: %q active=%v", v.TypeLabel(), v.Active())
	}
	if FromTask(models.Task{}).Deadline != nil {
		t.Fatalf("expected nil deadline for unset opt")
	}
}

func TestSortTasks(t *testing.T) {
	d1 := time.Unix(100, 0)
	d2 := time.Unix(50, 0)
	tasks := []Task{
		task("a", 10, 1, models.TaskOnce, models.TaskActive, nil),
		task("b", 30, 3, models.TaskDaily, models.TaskActive, &d1),
		task("c", 20, 2, models.TaskWeekly, models.TaskExpired, &d2),
	}
	cases := []struct {
		key  string
		want string
	}{
		{SortNewest, "bca"},
		{SortOldest, "acb"},
		{SortPointsHigh, "bca"},
		{SortPointsLow, "acb"},
		{SortDeadline, "cba"},
		{"bogus", "bca"},
	}
	for _, tc := range cases {
		cp := append([]Task{}, tasks...)
		SortTasks(cp, tc.key)
		if got := ids(cp); got != tc.want {
			t.Fatalf("sort %s: got %s want %s", tc.key, got, tc.want)
		}
	}
}

func TestFilterTasks(t *testing.T) {
	tasks := []Task{
		task("a", 10, 1, models.TaskOnce, models.TaskActive, nil),
		task("b", 30, 3, models.TaskDaily, models.TaskArchived, nil),
		task("c", 20, 2, models.TaskDaily, models.TaskExpired, nil),
		task("d", 20, 2, models.TaskMonthly, models.TaskPaused, nil),
	}
	cases := []struct {
		query, filter, want string
	}{
		{"", "all", "abcd"},
		{"", "active", "a"},
		{"", "completed", "bc"},
		{"", "daily", "bc"},
		{"", "monthly", "d"},
		{"TASK C", "", "c"},
		{"description of b", "daily", "b"},
		{"nothing", "all", ""},
	}
	for _, tc := range cases {
		if got := ids(FilterTasks(tasks, tc.query, tc.filter)); got != tc.want {
			t.Fatalf("filter %q/%q: got %q want %q", tc.query, tc.filter, got, tc.want)
		}
	}
	if got := ids(FilterByType(tasks, "daily")); got != "bc" {
		t.Fatalf("by type: %s", got)
	}
	if got := ids(ActiveTasks(tasks)); got != "a" {
		t.Fatalf("active: %s", got)
	}
}

func TestFilterSpaces(t *testing.T) {
	spaces := []Space{
		{ID: "1", Name: "Go Club", Description: "gophers unite", IsPublic: true, Members: []string{"u1"}},
		{ID: "2", Name: "Private Lab", Description: "invite only", Members: []string{"u2"}},
		{ID: "3", Name: "Open Art", Description: "draw things", IsPublic: true},
	}
	got := FilterSpaces(spaces, "", SpaceFilterJoined, "u1")
	if len(got) != 1 || got[0].ID != "1" {
		t.Fatalf("joined: %+v", got)
	}
	got = FilterSpaces(spaces, "", SpaceFilterPublic, "u1")
	if len(got) != 2 {
		t.Fatalf("public: %+v", got)
	}
	got = FilterSpaces(spaces, "INVITE", SpaceFilterAll, "u1")
	if len(got) != 1 || got[0].ID != "2" {
		t.Fatalf("search: %+v", got)
	}
}

func TestLeaderboardRanks(t *testing.T) {
	rows := Leaderboard([]models.LeaderboardEntry{
		{UserID: "u1", Username: "alice", Points: 90},
		{UserID: "u2", Username: "bob", Points: 40},
		{UserID: "u3", Username: "bobby", Points: 10},
	}, "u2")
	if rows[0].Rank != 1 || rows[2].Rank != 3 {
		t.Fatalf("ranks: %+v", rows)
	}
	if !rows[1].IsCurrentUser || rows[0].IsCurrentUser {
		t.Fatalf("current user flag: %+v", rows)
	}
	filtered := FilterLeaderboard(rows, "bob")
	if len(filtered) != 2 || filtered[1].Rank != 3 {
		t.Fatalf("filtered: %+v", filtered)
	}
	if FindRow(rows, "u3") == nil || FindRow(rows, "nobody") != nil {
		t.Fatalf("FindRow mismatch")
	}
}

func TestCountSubmissions(t *testing.T) {
	c := CountSubmissions([]Submission{
		{Status: models.SubmissionApproved},
		{Status: models.SubmissionPending},
		{Status: models.SubmissionPending},
		{Status: models.SubmissionRejected},
	})
	if c.Approved != 1 || c.Pending != 2 || c.Rejected != 1 {
		t.Fatalf("counts: %+v", c)
	}
}

func TestSessionUser(t *testing.T) {
	u := FromUser(&models.User{ID: "u1", Username: "zoe", Role: models.RoleSuperAdmin, Spaces: []string{"s1"}})
	if u.RoleLabel() != "Super Admin" || u.Initial() != "Z" {
		t.Fatalf("labels: %q %q", u.RoleLabel(), u.Initial())
	}
	if u.AddSpace("s1") {
		t.Fatalf("s1 already present")
	}
	if !u.AddSpace("s2") || !u.IsMemberOf("s2") {
		t.Fatalf("s2 not added")
	}
}
