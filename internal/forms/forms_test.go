package forms

import (
	"net/url"
	"strings"
	"testing"

	"github.com/harrylevesque/desuite/internal/models"
)

func TestRegisterValidation(t *testing.T) {
	ok := url.Values{
		"username":        {"alice"},
		"email":           {"alice@example.com"},
		"password":        {"secret1"},
		"confirmPassword": {"secret1"},
	}
	if errs := ParseRegister(ok).Validate(); !errs.OK() {
		t.Fatalf("valid form rejected: %v", errs)
	}

	cases := []struct {
		field, value, key, msg string
	}{
		{"username", "al", "username", "Username must be at least 3 characters"},
		{"email", "alice@example", "email", "Invalid email address"},
		{"email", "alice example.com", "email", "Invalid email address"},
		{"password", "12345", "password", "Password must be at least 6 characters"},
		{"password", "ééé", "password", "Password must be at least 6 characters"},
		{"confirmPassword", "secret2", "confirmPassword", "Passwords do not match"},
	}
	for _, tc := range cases {
		v := url.Values{}
		for k, vs := range ok {
			v[k] = vs
		}
		v.Set(tc.field, tc.value)
		errs := ParseRegister(v).Validate()
		if errs.Get(tc.key) != tc.msg {
			t.Fatalf("%s=%q: got %v", tc.field, tc.value, errs)
		}
	}
}

func TestLoginRequiresFields(t *testing.T) {
	errs := ParseLogin(url.Values{}).Validate()
	if errs.Get("email") == "" || errs.Get("password") == "" {
		t.Fatalf("expected both fields required: %v", errs)
	}
}

func TestCreateSpaceValidation(t *testing.T) {
	base := func() url.Values {
		return url.Values{
			"name":        {"Go Club"},
			"description": {"A place for gophers"},
			"categories":  {"dev, go, ,dev"},
		}
	}
	f := ParseCreateSpace(base())
	if errs := f.Validate(); !errs.OK() {
		t.Fatalf("valid form rejected: %v", errs)
	}
	if len(f.Categories) != 2 || f.Categories[1] != "go" {
		t.Fatalf("categories not compacted: %q", f.Categories)
	}

	cases := []struct {
		field, value, key, msg string
	}{
		{"name", "", "name", "Space name is required"},
		{"name", "Go", "name", "Space name must be at least 3 characters"},
		{"name", strings.Repeat("x", 51), "name", "Space name must be less than 50 characters"},
		{"description", "", "description", "Description is required"},
		{"description", "too short", "description", "Description must be at least 10 characters"},
		{"description", strings.Repeat("d", 501), "description", "Description must be less than 500 characters"},
		{"categories", " , ", "categories", "At least one category is required"},
		{"categories", "a,b,c,d,e,f", "categories", "At most 5 categories are allowed"},
	}
	for _, tc := range cases {
		v := base()
		v.Set(tc.field, tc.value)
		if got := ParseCreateSpace(v).Validate().Get(tc.key); got != tc.msg {
			t.Fatalf("%s=%q: got %q want %q", tc.field, tc.value, got, tc.msg)
		}
	}

	v := base()
	v.Del("categories")
	v["category"] = []string{"art", "music"}
	v.Set("isPublic", "on")
	f = ParseCreateSpace(v)
	if len(f.Categories) != 2 || !f.IsPublic {
		t.Fatalf("repeated categories: %+v", f)
	}
}

func TestCreateTaskValidation(t *testing.T) {
	v := url.Values{
		"title":       {"Write a post"},
		"description": {"Share the launch on your blog"},
		"points":      {"50"},
		"taskType":    {"weekly"},
		"visibility":  {"members"},
		"requirement": {"link", " ", "screenshot"},
	}
	f := ParseCreateTask(v)
	if errs := f.Validate(); !errs.OK() {
		t.Fatalf("valid task rejected: %v", errs)
	}
	in := f.Input("s1")
	if in.TaskType != models.TaskWeekly || in.Visibility != models.VisibleMembers || len(in.Requirements) != 2 {
		t.Fatalf("input: %+v", in)
	}

	bad := ParseCreateTask(url.Values{
		"title":       {" ab "},
		"description": {"short"},
		"points":      {"0"},
		"taskType":    {"yearly"},
	})
	errs := bad.Validate()
	want := map[string]string{
		"title":       "Title must be at least 3 characters long",
		"description": "Description must be at least 10 characters long",
		"points":      "Points must be greater than 0",
		"taskType":    "Unknown task type",
	}
	for k, msg := range want {
		if errs.Get(k) != msg {
			t.Fatalf("%s: got %q want %q", k, errs.Get(k), msg)
		}
	}
	if errs.Get("visibility") != "" {
		t.Fatalf("blank visibility should default to everyone")
	}
}

func TestReviewNotesOptional(t *testing.T) {
	in := ParseReview(url.Values{"decision": {"approve"}, "notes": {"  "}}).Input("sub1")
	if !in.Approved || in.Notes.Set {
		t.Fatalf("blank notes should be absent: %+v", in)
	}
	in = ParseReview(url.Values{"decision": {"reject"}, "notes": {"needs a link"}}).Input("sub1")
	if in.Approved || in.Notes.Or("") != "needs a link" {
		t.Fatalf("notes lost: %+v", in)
	}
}

func TestSubmissionProofRequired(t *testing.T) {
	if ParseSubmission(url.Values{"proof": {"   "}}).Validate().OK() {
		t.Fatalf("blank proof accepted")
	}
	if !ParseSubmission(url.Values{"proof": {"completed X"}}).Validate().OK() {
		t.Fatalf("proof rejected")
	}
}
