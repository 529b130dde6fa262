package memory

import (
	"context"
	"fmt"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/models"
)

// Demo account created by Seed. The password is only good for local use.
const (
	DemoEmail    = "demo@desuite.local"
	DemoPassword = "demo-password"
)

// Seed fills an empty backend with one admin, one space and a task of each
// type so the pages have something to show.
func Seed(ctx context.Context, s *Service) (*models.User, error) {
	admin, err := s.Register(ctx, "demo", DemoEmail, DemoPassword)
	if err != nil {
		return nil, fmt.Errorf("seed admin: %w", err)
	}
	ctx = backend.WithCaller(ctx, admin.ID)
	sp, err := s.CreateSpace(ctx, backend.CreateSpaceInput{
		Name:        "Community Launch",
		Description: "Help us spread the word about the launch.",
		IsPublic:    true,
		Categories:  []string{"social", "content"},
	})
	if err != nil {
		return nil, fmt.Errorf("seed space: %w", err)
	}
	tasks := []backend.CreateTaskInput{
		{Title: "Share the announcement", Description: "Post the launch announcement on any social network.", Points: 50, TaskType: models.TaskOnce},
		{Title: "Daily check-in", Description: "Say hello in the community chat today.", Points: 5, TaskType: models.TaskDaily},
		{Title: "Weekly write-up", Description: "Write a short summary of what you built this week.", Points: 25, TaskType: models.TaskWeekly},
		{Title: "Monthly showcase", Description: "Present a project at the monthly community call.", Points: 100, TaskType: models.TaskMonthly, Visibility: models.VisibleMembers},
	}
	for _, in := range tasks {
		in.SpaceID = sp.ID
		if in.Visibility == "" {
			in.Visibility = models.VisibleEveryone
		}
		if _, err := s.CreateTask(ctx, in); err != nil {
			return nil, fmt.Errorf("seed task %q: %w", in.Title, err)
		}
	}
	return s.Login(context.Background(), DemoEmail, DemoPassword)
}
