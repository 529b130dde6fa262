package views

import (
	"sort"
	"strconv"
	"strings"

	"github.com/harrylevesque/desuite/internal/models"
)

func itoa(n int64) string { return strconv.FormatInt(n, 10) }

func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}

// ===== Spaces =====

const (
	SpaceFilterAll    = "all"
	SpaceFilterJoined = "joined"
	SpaceFilterPublic = "public"
)

// FilterSpaces applies the search query (name or description, case
// insensitive) and one of the space filters. Unknown filters act as "all".
func FilterSpaces(spaces []Space, query, filter, userID string) []Space {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Space, 0, len(spaces))
	for _, s := range spaces {
		if q != "" && !containsFold(s.Name, q) && !containsFold(s.Description, q) {
			continue
		}
		switch filter {
		case SpaceFilterJoined:
			if !s.HasMember(userID) {
				continue
			}
		case SpaceFilterPublic:
			if !s.IsPublic {
				continue
			}
		}
		out = append(out, s)
	}
	return out
}

// ===== Tasks =====

const (
	TaskFilterAll       = "all"
	TaskFilterActive    = "active"
	TaskFilterCompleted = "completed"
)

const (
	SortNewest     = "newest"
	SortOldest     = "oldest"
	SortPointsHigh = "points-high"
	SortPointsLow  = "points-low"
	SortDeadline   = "deadline"
)

// FilterTasks searches title and description and applies a status or type
// filter. "completed" matches tasks that are no longer running (expired or
// archived). A task type tag ("once", "daily", ...) matches on type.
func FilterTasks(tasks []Task, query, filter string) []Task {
	q := strings.ToLower(strings.TrimSpace(query))
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if q != "" && !containsFold(t.Title, q) && !containsFold(t.Description, q) {
			continue
		}
		if !matchTaskFilter(t, filter) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func matchTaskFilter(t Task, filter string) bool {
	switch filter {
	case "", TaskFilterAll:
		return true
	case TaskFilterActive:
		return t.Status == models.TaskActive
	case TaskFilterCompleted:
		return t.Status == models.TaskExpired || t.Status == models.TaskArchived
	}
	if tt, err := models.ParseTaskType(filter); err == nil {
		return t.Type == tt
	}
	return true
}

// SortTasks orders tasks in place. Unknown keys sort newest first.
func SortTasks(tasks []Task, key string) {
	var less func(a, b Task) bool
	switch key {
	case SortOldest:
		less = func(a, b Task) bool { return a.CreatedAt.Before(b.CreatedAt) }
	case SortPointsHigh:
		less = func(a, b Task) bool { return a.Points > b.Points }
	case SortPointsLow:
		less = func(a, b Task) bool { return a.Points < b.Points }
	case SortDeadline:
		less = func(a, b Task) bool {
			switch {
			case a.Deadline == nil:
				return false
			case b.Deadline == nil:
				return true
			}
			return a.Deadline.Before(*b.Deadline)
		}
	default:
		less = func(a, b Task) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(tasks, func(i, j int) bool { return less(tasks[i], tasks[j]) })
}

// FilterByType keeps tasks of one type; "" and "all" keep everything.
func FilterByType(tasks []Task, typ string) []Task {
	if typ == "" || typ == TaskFilterAll {
		return tasks
	}
	tt, err := models.ParseTaskType(typ)
	if err != nil {
		return tasks
	}
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Type == tt {
			out = append(out, t)
		}
	}
	return out
}

func ActiveTasks(tasks []Task) []Task {
	out := make([]Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Active() {
			out = append(out, t)
		}
	}
	return out
}

// ===== Leaderboard =====

// FilterLeaderboard keeps rows whose username contains query. Ranks are
// not recomputed.
func FilterLeaderboard(rows []LeaderboardRow, query string) []LeaderboardRow {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return rows
	}
	out := make([]LeaderboardRow, 0, len(rows))
	for _, r := range rows {
		if containsFold(r.Username, q) {
			out = append(out, r)
		}
	}
	return out
}
