package backend

import (
	"context"

	"github.com/harrylevesque/desuite/internal/models"
)

// Service is the platform backend as the pages consume it. Every method
// returns either the payload or an *Error; callers surface Error text and
// never retry.
type Service interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, username, email, password string) (*models.User, error)

	ListSpaces(ctx context.Context) ([]models.Space, error)
	GetSpace(ctx context.Context, id string) (*models.Space, error)
	CreateSpace(ctx context.Context, in CreateSpaceInput) (*models.Space, error)
	JoinSpace(ctx context.Context, id string) (*models.Space, error)

	ListSpaceTasks(ctx context.Context, spaceID string) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (*models.Task, error)
	CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error)

	SubmitTask(ctx context.Context, taskID, proof string) (*models.Submission, error)
	GetUserSubmission(ctx context.Context, taskID, userID string) (*models.Submission, error)
	ListTaskSubmissions(ctx context.Context, taskID string) ([]models.Submission, error)
	ReviewSubmission(ctx context.Context, in ReviewInput) (*models.Submission, error)

	GetUserStats(ctx context.Context, userID string) (*models.UserStats, error)
	GetUserCompletedTasks(ctx context.Context, userID string) ([]models.Task, error)
	GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error)
}

type CreateSpaceInput struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	IsPublic    bool     `json:"isPublic"`
	Categories  []string `json:"categories"`
}

type CreateTaskInput struct {
	SpaceID      string            `json:"spaceId"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Points       int64             `json:"points"`
	TaskType     models.TaskType   `json:"taskType"`
	Visibility   models.Visibility `json:"visibility"`
	Requirements []string          `json:"requirements"`
}

type ReviewInput struct {
	SubmissionID string             `json:"submissionId"`
	Approved     bool               `json:"approved"`
	Notes        models.Opt[string] `json:"notes"`
}

type callerKey struct{}

// WithCaller attaches the acting user's id. Writes (join, create, submit,
// review) are attributed to this id.
func WithCaller(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, callerKey{}, userID)
}

func CallerFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(callerKey{}).(string)
	return id, ok && id != ""
}
