package models

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ===== Tagged Enumerations =====
// The backend carries every enumerated field as a single-key object whose
// value is null, e.g. {"active": null}. Each field gets its own closed string
// type here and is decoded exactly once, at this boundary.

// TagError reports a tagged object that did not carry exactly one key.
type TagError struct {
	Kind string
	Keys []string
}

func (e *TagError) Error() string {
	return fmt.Sprintf("%s: expected exactly one tag, got %d [%s]", e.Kind, len(e.Keys), strings.Join(e.Keys, ","))
}

// UnknownTagError reports a tag outside the known set for its field.
type UnknownTagError struct {
	Kind string
	Tag  string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("%s: unknown tag %q", e.Kind, e.Tag)
}

type enum interface {
	~string
	Valid() bool
}

func decodeTag(data []byte, kind string) (string, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return "", fmt.Errorf("%s: %w", kind, err)
	}
	if len(m) != 1 {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return "", &TagError{Kind: kind, Keys: keys}
	}
	for k := range m {
		return k, nil
	}
	return "", nil
}

func unmarshalEnum[T enum](data []byte, kind string, dst *T) error {
	tag, err := decodeTag(data, kind)
	if err != nil {
		return err
	}
	v := T(tag)
	if !v.Valid() {
		return &UnknownTagError{Kind: kind, Tag: tag}
	}
	*dst = v
	return nil
}

func marshalEnum[T enum](v T, kind string) ([]byte, error) {
	if !v.Valid() {
		return nil, &UnknownTagError{Kind: kind, Tag: string(v)}
	}
	return json.Marshal(map[string]any{string(v): nil})
}

func parseEnum[T enum](s, kind string) (T, error) {
	v := T(strings.TrimSpace(s))
	if !v.Valid() {
		var zero T
		return zero, &UnknownTagError{Kind: kind, Tag: s}
	}
	return v, nil
}

// ===== Role =====

type Role string

const (
	RoleSuperAdmin Role = "superAdmin"
	RoleSpaceAdmin Role = "spaceAdmin"
	RoleMember     Role = "member"
)

var roleLabels = map[Role]string{
	RoleSuperAdmin: "Super Admin",
	RoleSpaceAdmin: "Space Admin",
	RoleMember:     "Member",
}

func (r Role) Valid() bool {
	_, ok := roleLabels[r]
	return ok
}

func (r Role) Label() string { return roleLabels[r] }

func (r Role) MarshalJSON() ([]byte, error) { return marshalEnum(r, "Role") }
func (r *Role) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, "Role", r) }

func ParseRole(s string) (Role, error) { return parseEnum[Role](s, "Role") }

// ===== TaskType =====

// TaskType is the recurrence class of a task.
type TaskType string

const (
	TaskOnce    TaskType = "once"
	TaskDaily   TaskType = "daily"
	TaskWeekly  TaskType = "weekly"
	TaskMonthly TaskType = "monthly"
)

// TaskTypes lists the recurrence classes in display order.
var TaskTypes = []TaskType{TaskOnce, TaskDaily, TaskWeekly, TaskMonthly}

var taskTypeLabels = map[TaskType]string{
	TaskOnce:    "One-time",
	TaskDaily:   "Daily",
	TaskWeekly:  "Weekly",
	TaskMonthly: "Monthly",
}

func (t TaskType) Valid() bool {
	_, ok := taskTypeLabels[t]
	return ok
}

func (t TaskType) Label() string { return taskTypeLabels[t] }

func (t TaskType) MarshalJSON() ([]byte, error) { return marshalEnum(t, "TaskType") }
func (t *TaskType) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, "TaskType", t) }

func ParseTaskType(s string) (TaskType, error) { return parseEnum[TaskType](s, "TaskType") }

// ===== Visibility =====

type Visibility string

const (
	VisibleEveryone Visibility = "everyone"
	VisibleMembers  Visibility = "members"
	VisibleSelected Visibility = "selected"
)

var Visibilities = []Visibility{VisibleEveryone, VisibleMembers, VisibleSelected}

var visibilityLabels = map[Visibility]string{
	VisibleEveryone: "Everyone",
	VisibleMembers:  "Members only",
	VisibleSelected: "Selected members",
}

func (v Visibility) Valid() bool {
	_, ok := visibilityLabels[v]
	return ok
}

func (v Visibility) Label() string { return visibilityLabels[v] }

func (v Visibility) MarshalJSON() ([]byte, error) { return marshalEnum(v, "Visibility") }
func (v *Visibility) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, "Visibility", v) }

func ParseVisibility(s string) (Visibility, error) { return parseEnum[Visibility](s, "Visibility") }

// ===== TaskStatus =====

type TaskStatus string

const (
	TaskActive   TaskStatus = "active"
	TaskPaused   TaskStatus = "paused"
	TaskExpired  TaskStatus = "expired"
	TaskArchived TaskStatus = "archived"
)

var taskStatusLabels = map[TaskStatus]string{
	TaskActive:   "Active",
	TaskPaused:   "Paused",
	TaskExpired:  "Expired",
	TaskArchived: "Archived",
}

func (s TaskStatus) Valid() bool {
	_, ok := taskStatusLabels[s]
	return ok
}

func (s TaskStatus) Label() string { return taskStatusLabels[s] }

func (s TaskStatus) MarshalJSON() ([]byte, error) { return marshalEnum(s, "TaskStatus") }
func (s *TaskStatus) UnmarshalJSON(data []byte) error { return unmarshalEnum(data, "TaskStatus", s) }

func ParseTaskStatus(s string) (TaskStatus, error) { return parseEnum[TaskStatus](s, "TaskStatus") }

// ===== SubmissionStatus =====

type SubmissionStatus string

const (
	SubmissionPending  SubmissionStatus = "pending"
	SubmissionApproved SubmissionStatus = "approved"
	SubmissionRejected SubmissionStatus = "rejected"
)

var submissionStatusLabels = map[SubmissionStatus]string{
	SubmissionPending:  "Pending Review",
	SubmissionApproved: "Approved",
	SubmissionRejected: "Rejected",
}

func (s SubmissionStatus) Valid() bool {
	_, ok := submissionStatusLabels[s]
	return ok
}

func (s SubmissionStatus) Label() string { return submissionStatusLabels[s] }

func (s SubmissionStatus) MarshalJSON() ([]byte, error) {
	return marshalEnum(s, "SubmissionStatus")
}

func (s *SubmissionStatus) UnmarshalJSON(data []byte) error {
	return unmarshalEnum(data, "SubmissionStatus", s)
}

func ParseSubmissionStatus(s string) (SubmissionStatus, error) {
	return parseEnum[SubmissionStatus](s, "SubmissionStatus")
}
