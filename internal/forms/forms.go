// Package forms parses and validates page input. Nothing here talks to the
// backend: a form with errors never produces a remote call.
package forms

import (
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/models"
)

const (
	MaxCategories   = 5
	MaxRequirements = 5
)

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Errors maps a field name to the message shown next to it.
type Errors map[string]string

func (e Errors) Add(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

func (e Errors) Get(field string) string { return e[field] }

func (e Errors) OK() bool { return len(e) == 0 }

func length(s string) int { return utf8.RuneCountInString(strings.TrimSpace(s)) }

// ===== Auth =====

type Register struct {
	Username        string
	Email           string
	Password        string
	ConfirmPassword string
}

func ParseRegister(v url.Values) Register {
	return Register{
		Username:        strings.TrimSpace(v.Get("username")),
		Email:           strings.TrimSpace(v.Get("email")),
		Password:        v.Get("password"),
		ConfirmPassword: v.Get("confirmPassword"),
	}
}

func (f Register) Validate() Errors {
	errs := Errors{}
	if length(f.Username) < 3 {
		errs.Add("username", "Username must be at least 3 characters")
	}
	if !emailRe.MatchString(f.Email) {
		errs.Add("email", "Invalid email address")
	}
	if utf8.RuneCountInString(f.Password) < 6 {
		errs.Add("password", "Password must be at least 6 characters")
	}
	if f.Password != f.ConfirmPassword {
		errs.Add("confirmPassword", "Passwords do not match")
	}
	return errs
}

type Login struct {
	Email    string
	Password string
}

func ParseLogin(v url.Values) Login {
	return Login{Email: strings.TrimSpace(v.Get("email")), Password: v.Get("password")}
}

func (f Login) Validate() Errors {
	errs := Errors{}
	if f.Email == "" {
		errs.Add("email", "Email is required")
	}
	if f.Password == "" {
		errs.Add("password", "Password is required")
	}
	return errs
}

// ===== Spaces =====

type CreateSpace struct {
	Name        string
	Description string
	IsPublic    bool
	Categories  []string
}

// ParseCreateSpace accepts categories either as repeated "category" fields
// or as one comma separated "categories" field.
func ParseCreateSpace(v url.Values) CreateSpace {
	raw := append([]string{}, v["category"]...)
	if c := v.Get("categories"); c != "" {
		raw = append(raw, strings.Split(c, ",")...)
	}
	return CreateSpace{
		Name:        strings.TrimSpace(v.Get("name")),
		Description: strings.TrimSpace(v.Get("description")),
		IsPublic:    checkbox(v.Get("isPublic")),
		Categories:  compact(raw),
	}
}

func (f CreateSpace) Validate() Errors {
	errs := Errors{}
	switch n := length(f.Name); {
	case n == 0:
		errs.Add("name", "Space name is required")
	case n < 3:
		errs.Add("name", "Space name must be at least 3 characters")
	case n > 50:
		errs.Add("name", "Space name must be less than 50 characters")
	}
	switch n := length(f.Description); {
	case n == 0:
		errs.Add("description", "Description is required")
	case n < 10:
		errs.Add("description", "Description must be at least 10 characters")
	case n > 500:
		errs.Add("description", "Description must be less than 500 characters")
	}
	switch {
	case len(f.Categories) == 0:
		errs.Add("categories", "At least one category is required")
	case len(f.Categories) > MaxCategories:
		errs.Add("categories", "At most 5 categories are allowed")
	}
	return errs
}

func (f CreateSpace) Input() backend.CreateSpaceInput {
	return backend.CreateSpaceInput{
		Name:        f.Name,
		Description: f.Description,
		IsPublic:    f.IsPublic,
		Categories:  append([]string{}, f.Categories...),
	}
}

// ===== Tasks =====

type CreateTask struct {
	Title        string
	Description  string
	PointsRaw    string
	Points       int64
	TaskType     string
	Visibility   string
	Requirements []string
}

func ParseCreateTask(v url.Values) CreateTask {
	f := CreateTask{
		Title:        strings.TrimSpace(v.Get("title")),
		Description:  strings.TrimSpace(v.Get("description")),
		PointsRaw:    strings.TrimSpace(v.Get("points")),
		TaskType:     v.Get("taskType"),
		Visibility:   v.Get("visibility"),
		Requirements: compact(v["requirement"]),
	}
	if f.TaskType == "" {
		f.TaskType = string(models.TaskOnce)
	}
	if f.Visibility == "" {
		f.Visibility = string(models.VisibleEveryone)
	}
	f.Points, _ = strconv.ParseInt(f.PointsRaw, 10, 64)
	return f
}

func (f CreateTask) Validate() Errors {
	errs := Errors{}
	if length(f.Title) < 3 {
		errs.Add("title", "Title must be at least 3 characters long")
	}
	if length(f.Description) < 10 {
		errs.Add("description", "Description must be at least 10 characters long")
	}
	if f.Points <= 0 {
		errs.Add("points", "Points must be greater than 0")
	}
	if _, err := models.ParseTaskType(f.TaskType); err != nil {
		errs.Add("taskType", "Unknown task type")
	}
	if _, err := models.ParseVisibility(f.Visibility); err != nil {
		errs.Add("visibility", "Unknown visibility")
	}
	if len(f.Requirements) > MaxRequirements {
		errs.Add("requirements", "At most 5 requirements are allowed")
	}
	return errs
}

// Input assumes Validate passed.
func (f CreateTask) Input(spaceID string) backend.CreateTaskInput {
	tt, _ := models.ParseTaskType(f.TaskType)
	vis, _ := models.ParseVisibility(f.Visibility)
	return backend.CreateTaskInput{
		SpaceID:      spaceID,
		Title:        f.Title,
		Description:  f.Description,
		Points:       f.Points,
		TaskType:     tt,
		Visibility:   vis,
		Requirements: append([]string{}, f.Requirements...),
	}
}

// ===== Submissions =====

type Submission struct {
	Proof string
}

func ParseSubmission(v url.Values) Submission {
	return Submission{Proof: strings.TrimSpace(v.Get("proof"))}
}

func (f Submission) Validate() Errors {
	errs := Errors{}
	if f.Proof == "" {
		errs.Add("proof", "Please provide proof of completion")
	}
	return errs
}

type Review struct {
	Approved bool
	Notes    string
}

func ParseReview(v url.Values) Review {
	return Review{
		Approved: v.Get("decision") == "approve",
		Notes:    strings.TrimSpace(v.Get("notes")),
	}
}

// Input sends blank notes as absent.
func (f Review) Input(submissionID string) backend.ReviewInput {
	in := backend.ReviewInput{SubmissionID: submissionID, Approved: f.Approved}
	if f.Notes != "" {
		in.Notes = models.Some(f.Notes)
	}
	return in
}

func checkbox(v string) bool {
	switch strings.ToLower(v) {
	case "on", "true", "1", "yes":
		return true
	}
	return false
}

// compact trims entries and drops blanks and duplicates.
func compact(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
