package models

import (
	"encoding/json"
	"fmt"
)

// ===== Domain Records =====
// Shapes as the platform backend sends them. The client never validates
// them beyond decoding; the backend owns these records.

type User struct {
	ID        string      `json:"id"`
	Username  string      `json:"username"`
	Email     string      `json:"email"`
	Role      Role        `json:"role"`
	CreatedAt Timestamp   `json:"createdAt"`
	Bio       Opt[string] `json:"bio"`
	Avatar    Opt[string] `json:"avatar"`
	Points    int64       `json:"points"`
	Spaces    []string    `json:"spaces"`
}

type Space struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	IsPublic    bool      `json:"isPublic"`
	Categories  []string  `json:"categories"`
	Members     []string  `json:"members"`
	AdminID     string    `json:"adminId"`
	CreatedAt   Timestamp `json:"createdAt"`
}

// HasMember reports whether userID is in the member list.
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

type Task struct {
	ID                 string         `json:"id"`
	SpaceID            string         `json:"spaceId"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Points             int64          `json:"points"`
	TaskType           TaskType       `json:"taskType"`
	Category           string         `json:"category"`
	CreatedAt          Timestamp      `json:"createdAt"`
	Deadline           Opt[Timestamp] `json:"deadline"`
	Status             TaskStatus     `json:"status"`
	CreatorID          string         `json:"creatorId"`
	MaxSubmissions     int64          `json:"maxSubmissions"`
	CurrentSubmissions int64          `json:"currentSubmissions"`
	Requirements       []string       `json:"requirements"`
	Visibility         Visibility     `json:"visibility"`
}

type Submission struct {
	ID            string           `json:"id"`
	TaskID        string           `json:"taskId"`
	SpaceID       string           `json:"spaceId"`
	UserID        string           `json:"userId"`
	Proof         string           `json:"proof"`
	SubmittedAt   Timestamp        `json:"submittedAt"`
	Status        SubmissionStatus `json:"status"`
	ReviewerNotes Opt[string]      `json:"reviewerNotes"`
	ReviewerID    Opt[string]      `json:"reviewerId"`
	ReviewedAt    Opt[Timestamp]   `json:"reviewedAt"`
}

type UserStats struct {
	TotalPoints        int64 `json:"totalPoints"`
	CompletedTasks     int64 `json:"completedTasks"`
	PendingSubmissions int64 `json:"pendingSubmissions"`
	Ranking            int64 `json:"ranking"`
}

// LeaderboardEntry travels as a [userId, username, points] tuple.
type LeaderboardEntry struct {
	UserID   string
	Username string
	Points   int64
}

func (e LeaderboardEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.UserID, e.Username, e.Points})
}

func (e *LeaderboardEntry) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("leaderboard entry: %w", err)
	}
	if len(raw) != 3 {
		return fmt.Errorf("leaderboard entry: expected 3 fields, got %d", len(raw))
	}
	if err := json.Unmarshal(raw[0], &e.UserID); err != nil {
		return fmt.Errorf("leaderboard entry id: %w", err)
	}
	if err := json.Unmarshal(raw[1], &e.Username); err != nil {
		return fmt.Errorf("leaderboard entry username: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Points); err != nil {
		return fmt.Errorf("leaderboard entry points: %w", err)
	}
	return nil
}
