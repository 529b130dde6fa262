// Package views maps backend records into the shapes pages render. Every
// page and the terminal client go through these mappings; none of them
// reshape backend records on their own.
package views

import (
	"strings"
	"time"

	"github.com/harrylevesque/desuite/internal/models"
)

// User is the session copy of the signed-in user. It is what gets persisted
// between requests, so it stays small and uses plain strings.
type User struct {
	ID       string   `json:"id"`
	Username string   `json:"username"`
	Email    string   `json:"email"`
	Role     string   `json:"role"`
	Points   int64    `json:"points"`
	Spaces   []string `json:"spaces"`
}

func FromUser(u *models.User) *User {
	spaces := append([]string{}, u.Spaces...)
	return &User{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
		Role:     string(u.Role),
		Points:   u.Points,
		Spaces:   spaces,
	}
}

func (u *User) RoleLabel() string {
	if r, err := models.ParseRole(u.Role); err == nil {
		return r.Label()
	}
	return u.Role
}

// Initial is the avatar letter shown in the navigation bar.
func (u *User) Initial() string {
	for _, r := range u.Username {
		return strings.ToUpper(string(r))
	}
	return "?"
}

func (u *User) IsMemberOf(spaceID string) bool {
	for _, id := range u.Spaces {
		if id == spaceID {
			return true
		}
	}
	return false
}

// AddSpace records a membership; it reports false if it was already there.
func (u *User) AddSpace(spaceID string) bool {
	if u.IsMemberOf(spaceID) {
		return false
	}
	u.Spaces = append(u.Spaces, spaceID)
	return true
}

type Space struct {
	ID          string
	Name        string
	Description string
	IsPublic    bool
	Categories  []string
	Members     []string
	AdminID     string
	CreatedAt   time.Time
}

func FromSpace(s models.Space) Space {
	return Space{
		ID:          s.ID,
		Name:        s.Name,
		Description: s.Description,
		IsPublic:    s.IsPublic,
		Categories:  append([]string{}, s.Categories...),
		Members:     append([]string{}, s.Members...),
		AdminID:     s.AdminID,
		CreatedAt:   s.CreatedAt.Time(),
	}
}

func FromSpaces(in []models.Space) []Space {
	out := make([]Space, 0, len(in))
	for _, s := range in {
		out = append(out, FromSpace(s))
	}
	return out
}

func (s Space) MemberCount() int { return len(s.Members) }

func (s Space) HasMember(userID string) bool {
	if userID == "" {
		return false
	}
	for _, m := range s.Members {
		if m == userID {
			return true
		}
	}
	return false
}

func (s Space) VisibilityLabel() string {
	if s.IsPublic {
		return "Public"
	}
	return "Private"
}

// Task is the single task shape used by every page. It is the superset of
// the fields any page shows.
type Task struct {
	ID                 string
	SpaceID            string
	SpaceName          string
	Title              string
	Description        string
	Points             int64
	Type               models.TaskType
	Category           string
	CreatedAt          time.Time
	Deadline           *time.Time
	Status             models.TaskStatus
	CreatorID          string
	MaxSubmissions     int64
	CurrentSubmissions int64
	Requirements       []string
	Visibility         models.Visibility
}

func FromTask(t models.Task) Task {
	v := Task{
		ID:                 t.ID,
		SpaceID:            t.SpaceID,
		Title:              t.Title,
		Description:        t.Description,
		Points:             t.Points,
		Type:               t.TaskType,
		Category:           t.Category,
		CreatedAt:          t.CreatedAt.Time(),
		Status:             t.Status,
		CreatorID:          t.CreatorID,
		MaxSubmissions:     t.MaxSubmissions,
		CurrentSubmissions: t.CurrentSubmissions,
		Requirements:       append([]string{}, t.Requirements...),
		Visibility:         t.Visibility,
	}
	if d, ok := t.Deadline.Get(); ok {
		dt := d.Time()
		v.Deadline = &dt
	}
	return v
}

func FromTasks(in []models.Task) []Task {
	out := make([]Task, 0, len(in))
	for _, t := range in {
		out = append(out, FromTask(t))
	}
	return out
}

func (t Task) TypeLabel() string       { return t.Type.Label() }
func (t Task) StatusLabel() string     { return t.Status.Label() }
func (t Task) VisibilityLabel() string { return t.Visibility.Label() }
func (t Task) Active() bool            { return t.Status == models.TaskActive }

// SubmissionsLabel renders "2 / 10", or just the count when unlimited.
func (t Task) SubmissionsLabel() string {
	if t.MaxSubmissions <= 0 {
		return itoa(t.CurrentSubmissions)
	}
	return itoa(t.CurrentSubmissions) + " / " + itoa(t.MaxSubmissions)
}

type Submission struct {
	ID            string
	TaskID        string
	UserID        string
	Proof         string
	SubmittedAt   time.Time
	Status        models.SubmissionStatus
	ReviewerNotes string
	ReviewerID    string
	ReviewedAt    *time.Time
}

func FromSubmission(s models.Submission) Submission {
	v := Submission{
		ID:            s.ID,
		TaskID:        s.TaskID,
		UserID:        s.UserID,
		Proof:         s.Proof,
		SubmittedAt:   s.SubmittedAt.Time(),
		Status:        s.Status,
		ReviewerNotes: s.ReviewerNotes.Or(""),
		ReviewerID:    s.ReviewerID.Or(""),
	}
	if at, ok := s.ReviewedAt.Get(); ok {
		t := at.Time()
		v.ReviewedAt = &t
	}
	return v
}

func FromSubmissions(in []models.Submission) []Submission {
	out := make([]Submission, 0, len(in))
	for _, s := range in {
		out = append(out, FromSubmission(s))
	}
	return out
}

func (s Submission) StatusLabel() string { return s.Status.Label() }
func (s Submission) Pending() bool       { return s.Status == models.SubmissionPending }
func (s Submission) Reviewed() bool      { return !s.Pending() }

type SubmissionCounts struct {
	Approved int
	Pending  int
	Rejected int
}

func CountSubmissions(subs []Submission) SubmissionCounts {
	var c SubmissionCounts
	for _, s := range subs {
		switch s.Status {
		case models.SubmissionApproved:
			c.Approved++
		case models.SubmissionPending:
			c.Pending++
		case models.SubmissionRejected:
			c.Rejected++
		}
	}
	return c
}

type Stats struct {
	TotalPoints        int64
	CompletedTasks     int64
	PendingSubmissions int64
	Ranking            int64
}

func FromStats(s models.UserStats) Stats {
	return Stats{
		TotalPoints:        s.TotalPoints,
		CompletedTasks:     s.CompletedTasks,
		PendingSubmissions: s.PendingSubmissions,
		Ranking:            s.Ranking,
	}
}

type LeaderboardRow struct {
	UserID        string
	Username      string
	Points        int64
	Rank          int
	IsCurrentUser bool
}

// Leaderboard ranks entries in the order the backend returned them.
func Leaderboard(entries []models.LeaderboardEntry, currentUserID string) []LeaderboardRow {
	rows := make([]LeaderboardRow, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, LeaderboardRow{
			UserID:        e.UserID,
			Username:      e.Username,
			Points:        e.Points,
			Rank:          i + 1,
			IsCurrentUser: currentUserID != "" && e.UserID == currentUserID,
		})
	}
	return rows
}

// FindRow returns the row for userID, or nil.
func FindRow(rows []LeaderboardRow, userID string) *LeaderboardRow {
	for i := range rows {
		if rows[i].UserID == userID {
			return &rows[i]
		}
	}
	return nil
}
