package web

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/models"
	"github.com/harrylevesque/desuite/internal/views"
)

const dashboardTaskLimit = 10

type dashboardData struct {
	Spaces      []views.Space
	ActiveTasks []views.Task
	TotalActive int
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r).User()
	ctx, cancel := s.remote(r)
	defer cancel()

	var data dashboardData
	spaces, tasks, err := s.loadMemberships(ctx, user.Spaces)
	if err != nil {
		s.render(w, r, http.StatusOK, "dashboard", "Dashboard", s.failure(r, err, "Failed to load dashboard"), data)
		return
	}
	data.Spaces = spaces
	active := views.ActiveTasks(tasks)
	views.SortTasks(active, views.SortNewest)
	data.TotalActive = len(active)
	if len(active) > dashboardTaskLimit {
		active = active[:dashboardTaskLimit]
	}
	data.ActiveTasks = active
	s.render(w, r, http.StatusOK, "dashboard", "Dashboard", "", data)
}

type profileData struct {
	Stats     views.Stats
	Completed []views.Task
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r).User()
	ctx, cancel := s.remote(r)
	defer cancel()

	var (
		stats     *models.UserStats
		completed []models.Task
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		stats, err = s.svc.GetUserStats(gctx, user.ID)
		return err
	})
	g.Go(func() error {
		var err error
		completed, err = s.svc.GetUserCompletedTasks(gctx, user.ID)
		return err
	})
	var data profileData
	if err := g.Wait(); err != nil {
		s.render(w, r, http.StatusOK, "profile", "Profile", s.failure(r, err, "Failed to load profile"), data)
		return
	}
	data.Stats = views.FromStats(*stats)
	data.Completed = views.FromTasks(completed)
	views.SortTasks(data.Completed, views.SortNewest)
	s.render(w, r, http.StatusOK, "profile", "Profile", "", data)
}

type leaderboardData struct {
	Rows  []views.LeaderboardRow
	Query string
	Mine  *views.LeaderboardRow
	Total int
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r).User()
	data := leaderboardData{Query: r.URL.Query().Get("q")}
	ctx, cancel := s.remote(r)
	defer cancel()

	entries, err := s.svc.GetLeaderboard(ctx)
	if err != nil {
		s.render(w, r, http.StatusOK, "leaderboard", "Leaderboard", s.failure(r, err, "Failed to load leaderboard"), data)
		return
	}
	rows := views.Leaderboard(entries, user.ID)
	data.Total = len(rows)
	data.Mine = views.FindRow(rows, user.ID)
	data.Rows = views.FilterLeaderboard(rows, data.Query)
	s.render(w, r, http.StatusOK, "leaderboard", "Leaderboard", "", data)
}
