package models

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestTaskDecodesTaggedFields(t *testing.T) {
	raw := `{
		"id": "t1",
		"spaceId": "s1",
		"title": "Write a thread",
		"description": "Post about the launch",
		"points": 50,
		"taskType": {"once": null},
		"category": "social",
		"createdAt": 1700000000000000000,
		"deadline": [1700086400000000000],
		"status": {"active": null},
		"creatorId": "u1",
		"maxSubmissions": 10,
		"currentSubmissions": 2,
		"requirements": ["link to post"],
		"visibility": {"members": null}
	}`
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		t.Fatalf("unmarshal task: %v", err)
	}
	if task.TaskType != TaskOnce || task.Status != TaskActive || task.Visibility != VisibleMembers {
		t.Fatalf("unexpected enums: %q %q %q", task.TaskType, task.Status, task.Visibility)
	}
	d, ok := task.Deadline.Get()
	if !ok || d != 1700086400000000000 {
		t.Fatalf("deadline = %v, %v", d, ok)
	}
}

func TestEveryTagHasLabel(t *testing.T) {
	cases := []struct {
		raw   string
		label func([]byte) (string, error)
		known []string
	}{
		{`{"superAdmin":null}`, decodeLabel[Role], []string{"Super Admin", "Space Admin", "Member"}},
		{`{"spaceAdmin":null}`, decodeLabel[Role], []string{"Super Admin", "Space Admin", "Member"}},
		{`{"member":null}`, decodeLabel[Role], []string{"Super Admin", "Space Admin", "Member"}},
		{`{"once":null}`, decodeLabel[TaskType], []string{"One-time", "Daily", "Weekly", "Monthly"}},
		{`{"daily":null}`, decodeLabel[TaskType], []string{"One-time", "Daily", "Weekly", "Monthly"}},
		{`{"weekly":null}`, decodeLabel[TaskType], []string{"One-time", "Daily", "Weekly", "Monthly"}},
		{`{"monthly":null}`, decodeLabel[TaskType], []string{"One-time", "Daily", "Weekly", "Monthly"}},
		{`{"everyone":null}`, decodeLabel[Visibility], []string{"Everyone", "Members only", "Selected members"}},
		{`{"members":null}`, decodeLabel[Visibility], []string{"Everyone", "Members only", "Selected members"}},
		{`{"selected":null}`, decodeLabel[Visibility], []string{"Everyone", "Members only", "Selected members"}},
		{`{"active":null}`, decodeLabel[TaskStatus], []string{"Active", "Paused", "Expired", "Archived"}},
		{`{"paused":null}`, decodeLabel[TaskStatus], []string{"Active", "Paused", "Expired", "Archived"}},
		{`{"expired":null}`, decodeLabel[TaskStatus], []string{"Active", "Paused", "Expired", "Archived"}},
		{`{"archived":null}`, decodeLabel[TaskStatus], []string{"Active", "Paused", "Expired", "Archived"}},
		{`{"pending":null}`, decodeLabel[SubmissionStatus], []string{"Pending Review", "Approved", "Rejected"}},
		{`{"approved":null}`, decodeLabel[SubmissionStatus], []string{"Pending Review", "Approved", "Rejected"}},
		{`{"rejected":null}`, decodeLabel[SubmissionStatus], []string{"Pending Review", "Approved", "Rejected"}},
	}
	for _, tc := range cases {
		got, err := tc.label([]byte(tc.raw))
		if err != nil {
			t.Fatalf("%s: %v", tc.raw, err)
		}
		found := false
		for _, k := range tc.known {
			if k == got {
				found = true
			}
		}
		if !found {
			t.Fatalf("%s: label %q not in %v", tc.raw, got, tc.known)
		}
	}
}

type labeled interface {
	enum
	Label() string
}

func decodeLabel[T labeled](raw []byte) (string, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	return v.Label(), nil
}

func TestTagDecodeErrors(t *testing.T) {
	var status TaskStatus
	err := json.Unmarshal([]byte(`{"completed":null}`), &status)
	var unknown *UnknownTagError
	if !errors.As(err, &unknown) || unknown.Tag != "completed" {
		t.Fatalf("expected unknown tag error, got %v", err)
	}

	err = json.Unmarshal([]byte(`{"active":null,"paused":null}`), &status)
	var tagErr *TagError
	if !errors.As(err, &tagErr) || len(tagErr.Keys) != 2 {
		t.Fatalf("expected multi-key error, got %v", err)
	}

	err = json.Unmarshal([]byte(`{}`), &status)
	if !errors.As(err, &tagErr) || len(tagErr.Keys) != 0 {
		t.Fatalf("expected empty tag error, got %v", err)
	}
}

func TestEnumEncodesAsTag(t *testing.T) {
	b, err := json.Marshal(SubmissionApproved)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `{"approved":null}` {
		t.Fatalf("got %s", b)
	}
	if _, err := json.Marshal(TaskType("yearly")); err == nil {
		t.Fatalf("expected error encoding unknown task type")
	}
}

func TestOptForms(t *testing.T) {
	var o Opt[string]
	for _, raw := range []string{`null`, `[]`} {
		if err := json.Unmarshal([]byte(raw), &o); err != nil || o.Set {
			t.Fatalf("%s: set=%v err=%v", raw, o.Set, err)
		}
	}
	if err := json.Unmarshal([]byte(`["great work"]`), &o); err != nil || o.Value != "great work" {
		t.Fatalf("array form: %+v %v", o, err)
	}
	if err := json.Unmarshal([]byte(`"plain"`), &o); err != nil || o.Value != "plain" {
		t.Fatalf("bare form: %+v %v", o, err)
	}
	if err := json.Unmarshal([]byte(`["a","b"]`), &o); err == nil {
		t.Fatalf("expected error for two elements")
	}
}

func TestLeaderboardEntryTuple(t *testing.T) {
	var entries []LeaderboardEntry
	if err := json.Unmarshal([]byte(`[["u1","alice",120],["u2","bob",80]]`), &entries); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(entries) != 2 || entries[0].Username != "alice" || entries[1].Points != 80 {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if err := json.Unmarshal([]byte(`[["u1","alice"]]`), &entries); err == nil {
		t.Fatalf("expected error for short tuple")
	}
}
