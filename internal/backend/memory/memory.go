// Package memory is an in-process platform backend used by the dev backend
// binary and by tests. It keeps the rules the pages depend on and nothing
// more; it is not the production service.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/models"
)

// Rejection texts.
const (
	ErrTextInvalidCredentials = "Invalid email or password"
	ErrTextEmailTaken         = "Email already registered"
	ErrTextUsernameTaken      = "Username already taken"
	ErrTextNotLoggedIn        = "You must be logged in"
	ErrTextUserNotFound       = "User not found"
	ErrTextSpaceNotFound      = "Space not found"
	ErrTextTaskNotFound       = "Task not found"
	ErrTextSubmissionNotFound = "Submission not found"
	ErrTextNotSpaceAdmin      = "Only the space admin can create tasks"
	ErrTextNotTaskCreator     = "Only the task creator can review submissions"
	ErrTextAlreadySubmitted   = "You have already submitted this task"
	ErrTextTaskNotActive      = "Task is not accepting submissions"
	ErrTextTaskFull           = "Task has reached its submission limit"
	ErrTextAlreadyReviewed    = "Submission has already been reviewed"
	ErrTextNotMember          = "Join the space before submitting"
)

type account struct {
	user         models.User
	passwordHash []byte
}

// Service implements backend.Service in memory.
type Service struct {
	mu sync.RWMutex

	users       map[string]*account
	byEmail     map[string]string
	spaces      map[string]*models.Space
	tasks       map[string]*models.Task
	submissions map[string]*models.Submission

	// insertion order for stable listings
	userOrder  []string
	spaceOrder []string
	taskOrder  []string
	subOrder   []string

	now  func() time.Time
	cost int
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the password hashing cost; tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

func New(opts ...Option) *Service {
	s := &Service{
		users:       make(map[string]*account),
		byEmail:     make(map[string]string),
		spaces:      make(map[string]*models.Space),
		tasks:       make(map[string]*models.Task),
		submissions: make(map[string]*models.Submission),
		now:         time.Now,
		cost:        bcrypt.DefaultCost,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ backend.Service = (*Service)(nil)

func (s *Service) stamp() models.Timestamp { return models.TimestampOf(s.now()) }

func (s *Service) caller(ctx context.Context, op string) (*account, error) {
	id, ok := backend.CallerFrom(ctx)
	if !ok {
		return nil, backend.Rejected(op, ErrTextNotLoggedIn)
	}
	acc, ok := s.users[id]
	if !ok {
		return nil, backend.Rejected(op, ErrTextUserNotFound)
	}
	return acc, nil
}

// ===== Users =====

func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return nil, backend.Rejected(backend.MethodLogin, ErrTextInvalidCredentials)
	}
	acc := s.users[id]
	if err := bcrypt.CompareHashAndPassword(acc.passwordHash, []byte(password)); err != nil {
		return nil, backend.Rejected(backend.MethodLogin, ErrTextInvalidCredentials)
	}
	return cloneUser(acc.user), nil
}

func (s *Service) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	username = strings.TrimSpace(username)
	key := normalizeEmail(email)
	if username == "" || key == "" || password == "" {
		return nil, backend.Rejected(backend.MethodRegister, "Username, email and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, backend.Rejected(backend.MethodRegister, "Could not register user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[key]; taken {
		return nil, backend.Rejected(backend.MethodRegister, ErrTextEmailTaken)
	}
	for _, acc := range s.users {
		if strings.EqualFold(acc.user.Username, username) {
			return nil, backend.Rejected(backend.MethodRegister, ErrTextUsernameTaken)
		}
	}
	role := models.RoleMember
	if len(s.users) == 0 {
		role = models.RoleSuperAdmin
	}
	u := models.User{
		ID:        uuid.NewString(),
		Username:  username,
		Email:     strings.TrimSpace(email),
		Role:      role,
		CreatedAt: s.stamp(),
		Spaces:    []string{},
	}
	s.users[u.ID] = &account{user: u, passwordHash: hash}
	s.byEmail[key] = u.ID
	s.userOrder = append(s.userOrder, u.ID)
	return cloneUser(u), nil
}

// ===== Spaces =====

func (s *Service) ListSpaces(ctx context.Context) ([]models.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Space, 0, len(s.spaceOrder))
	for _, id := range s.spaceOrder {
		out = append(out, *cloneSpace(*s.spaces[id]))
	}
	return out, nil
}

func (s *Service) GetSpace(ctx context.Context, id string) (*models.Space, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sp, ok := s.spaces[id]
	if !ok {
		return nil, backend.Rejected(backend.MethodGetSpace, ErrTextSpaceNotFound)
	}
	return cloneSpace(*sp), nil
}

func (s *Service) CreateSpace(ctx context.Context, in backend.CreateSpaceInput) (*models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.caller(ctx, backend.MethodCreateSpace)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, backend.Rejected(backend.MethodCreateSpace, "Space name is required")
	}
	for _, sp := range s.spaces {
		if strings.EqualFold(sp.Name, name) {
			return nil, backend.Rejected(backend.MethodCreateSpace, "A space with this name already exists")
		}
	}
	sp := &models.Space{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		IsPublic:    in.IsPublic,
		Categories:  append([]string{}, in.Categories...),
		Members:     []string{acc.user.ID},
		AdminID:     acc.user.ID,
		CreatedAt:   s.stamp(),
	}
	s.spaces[sp.ID] = sp
	s.spaceOrder = append(s.spaceOrder, sp.ID)
	acc.user.Spaces = append(acc.user.Spaces, sp.ID)
	if acc.user.Role == models.RoleMember {
		acc.user.Role = models.RoleSpaceAdmin
	}
	return cloneSpace(*sp), nil
}

// JoinSpace is idempotent: joining twice leaves one membership.
func (s *Service) JoinSpace(ctx context.Context, id string) (*models.Space, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.caller(ctx, backend.MethodJoinSpace)
	if err != nil {
		return nil, err
	}
	sp, ok := s.spaces[id]
	if !ok {
		return nil, backend.Rejected(backend.MethodJoinSpace, ErrTextSpaceNotFound)
	}
	if !sp.HasMember(acc.user.ID) {
		sp.Members = append(sp.Members, acc.user.ID)
		acc.user.Spaces = append(acc.user.Spaces, sp.ID)
	}
	return cloneSpace(*sp), nil
}

// ===== Tasks =====

func (s *Service) ListSpaceTasks(ctx context.Context, spaceID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, id := range s.taskOrder {
		if t := s.tasks[id]; t.SpaceID == spaceID {
			out = append(out, *cloneTask(*t))
		}
	}
	return out, nil
}

func (s *Service) GetTask(ctx context.Context, id string) (*models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, backend.Rejected(backend.MethodGetTask, ErrTextTaskNotFound)
	}
	return cloneTask(*t), nil
}

func (s *Service) CreateTask(ctx context.Context, in backend.CreateTaskInput) (*models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.caller(ctx, backend.MethodCreateTask)
	if err != nil {
		return nil, err
	}
	sp, ok := s.spaces[in.SpaceID]
	if !ok {
		return nil, backend.Rejected(backend.MethodCreateTask, ErrTextSpaceNotFound)
	}
	if sp.AdminID != acc.user.ID {
		return nil, backend.Rejected(backend.MethodCreateTask, ErrTextNotSpaceAdmin)
	}
	if in.Points <= 0 {
		return nil, backend.Rejected(backend.MethodCreateTask, "Points must be greater than 0")
	}
	if !in.TaskType.Valid() || !in.Visibility.Valid() {
		return nil, backend.Rejected(backend.MethodCreateTask, "Invalid task type or visibility")
	}
	t := &models.Task{
		ID:           uuid.NewString(),
		SpaceID:      sp.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  strings.TrimSpace(in.Description),
		Points:       in.Points,
		TaskType:     in.TaskType,
		Category:     firstOr(sp.Categories, "general"),
		CreatedAt:    s.stamp(),
		Status:       models.TaskActive,
		CreatorID:    acc.user.ID,
		Requirements: append([]string{}, in.Requirements...),
		Visibility:   in.Visibility,
	}
	s.tasks[t.ID] = t
	s.taskOrder = append(s.taskOrder, t.ID)
	return cloneTask(*t), nil
}

// SetTaskStatus changes a task's lifecycle status. The remote service does
// this on its own schedule; the dev backend exposes it for tests and seeding.
func (s *Service) SetTaskStatus(id string, status models.TaskStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return backend.Rejected("setTaskStatus", ErrTextTaskNotFound)
	}
	t.Status = status
	return nil
}

// ===== Submissions =====

func (s *Service) SubmitTask(ctx context.Context, taskID, proof string) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.caller(ctx, backend.MethodSubmitTask)
	if err != nil {
		return nil, err
	}
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, backend.Rejected(backend.MethodSubmitTask, ErrTextTaskNotFound)
	}
	if t.Status != models.TaskActive {
		return nil, backend.Rejected(backend.MethodSubmitTask, ErrTextTaskNotActive)
	}
	if t.Visibility != models.VisibleEveryone {
		if sp := s.spaces[t.SpaceID]; sp == nil || !sp.HasMember(acc.user.ID) {
			return nil, backend.Rejected(backend.MethodSubmitTask, ErrTextNotMember)
		}
	}
	if t.MaxSubmissions > 0 && t.CurrentSubmissions >= t.MaxSubmissions {
		return nil, backend.Rejected(backend.MethodSubmitTask, ErrTextTaskFull)
	}
	if s.findSubmission(taskID, acc.user.ID) != nil {
		return nil, backend.Rejected(backend.MethodSubmitTask, ErrTextAlreadySubmitted)
	}
	sub := &models.Submission{
		ID:          uuid.NewString(),
		TaskID:      t.ID,
		SpaceID:     t.SpaceID,
		UserID:      acc.user.ID,
		Proof:       strings.TrimSpace(proof),
		SubmittedAt: s.stamp(),
		Status:      models.SubmissionPending,
	}
	s.submissions[sub.ID] = sub
	s.subOrder = append(s.subOrder, sub.ID)
	t.CurrentSubmissions++
	c := *sub
	return &c, nil
}

func (s *Service) findSubmission(taskID, userID string) *models.Submission {
	for _, id := range s.subOrder {
		if sub := s.submissions[id]; sub.TaskID == taskID && sub.UserID == userID {
			return sub
		}
	}
	return nil
}

func (s *Service) GetUserSubmission(ctx context.Context, taskID, userID string) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub := s.findSubmission(taskID, userID)
	if sub == nil {
		return nil, backend.Rejected(backend.MethodGetUserTaskSubmission, ErrTextSubmissionNotFound)
	}
	c := *sub
	return &c, nil
}

func (s *Service) ListTaskSubmissions(ctx context.Context, taskID string) ([]models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, err := s.caller(ctx, backend.MethodGetAllTaskSubmissions)
	if err != nil {
		return nil, err
	}
	t, ok := s.tasks[taskID]
	if !ok {
		return nil, backend.Rejected(backend.MethodGetAllTaskSubmissions, ErrTextTaskNotFound)
	}
	if t.CreatorID != acc.user.ID {
		return nil, backend.Rejected(backend.MethodGetAllTaskSubmissions, ErrTextNotTaskCreator)
	}
	out := []models.Submission{}
	for _, id := range s.subOrder {
		if sub := s.submissions[id]; sub.TaskID == taskID {
			out = append(out, *sub)
		}
	}
	return out, nil
}

// ReviewSubmission settles a pending submission; approval credits the
// task's points to the submitter.
func (s *Service) ReviewSubmission(ctx context.Context, in backend.ReviewInput) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, err := s.caller(ctx, backend.MethodReviewTaskSubmission)
	if err != nil {
		return nil, err
	}
	sub, ok := s.submissions[in.SubmissionID]
	if !ok {
		return nil, backend.Rejected(backend.MethodReviewTaskSubmission, ErrTextSubmissionNotFound)
	}
	t := s.tasks[sub.TaskID]
	if t == nil || t.CreatorID != acc.user.ID {
		return nil, backend.Rejected(backend.MethodReviewTaskSubmission, ErrTextNotTaskCreator)
	}
	if sub.Status != models.SubmissionPending {
		return nil, backend.Rejected(backend.MethodReviewTaskSubmission, ErrTextAlreadyReviewed)
	}
	if in.Approved {
		sub.Status = models.SubmissionApproved
		if owner, ok := s.users[sub.UserID]; ok {
			owner.user.Points += t.Points
		}
	} else {
		sub.Status = models.SubmissionRejected
	}
	if notes, ok := in.Notes.Get(); ok && strings.TrimSpace(notes) != "" {
		sub.ReviewerNotes = models.Some(strings.TrimSpace(notes))
	}
	sub.ReviewerID = models.Some(acc.user.ID)
	sub.ReviewedAt = models.Some(s.stamp())
	c := *sub
	return &c, nil
}

// ===== Stats & Leaderboard =====

func (s *Service) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.users[userID]
	if !ok {
		return nil, backend.Rejected(backend.MethodGetUserStats, ErrTextUserNotFound)
	}
	st := &models.UserStats{TotalPoints: acc.user.Points}
	for _, id := range s.subOrder {
		sub := s.submissions[id]
		if sub.UserID != userID {
			continue
		}
		switch sub.Status {
		case models.SubmissionApproved:
			st.CompletedTasks++
		case models.SubmissionPending:
			st.PendingSubmissions++
		}
	}
	for i, e := range s.rankedLocked() {
		if e.UserID == userID {
			st.Ranking = int64(i + 1)
			break
		}
	}
	return st, nil
}

func (s *Service) GetUserCompletedTasks(ctx context.Context, userID string) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []models.Task{}
	for _, id := range s.subOrder {
		sub := s.submissions[id]
		if sub.UserID != userID || sub.Status != models.SubmissionApproved {
			continue
		}
		if t, ok := s.tasks[sub.TaskID]; ok {
			out = append(out, *cloneTask(*t))
		}
	}
	return out, nil
}

func (s *Service) GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rankedLocked(), nil
}

// rankedLocked orders users by points descending, then username.
func (s *Service) rankedLocked() []models.LeaderboardEntry {
	out := make([]models.LeaderboardEntry, 0, len(s.userOrder))
	for _, id := range s.userOrder {
		u := s.users[id].user
		out = append(out, models.LeaderboardEntry{UserID: u.ID, Username: u.Username, Points: u.Points})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Points != out[j].Points {
			return out[i].Points > out[j].Points
		}
		return out[i].Username < out[j].Username
	})
	return out
}

// ===== Helpers =====

func normalizeEmail(email string) string { return strings.ToLower(strings.TrimSpace(email)) }

func firstOr(xs []string, fallback string) string {
	if len(xs) > 0 {
		return xs[0]
	}
	return fallback
}

func cloneUser(u models.User) *models.User {
	u.Spaces = append([]string{}, u.Spaces...)
	return &u
}

func cloneSpace(sp models.Space) *models.Space {
	sp.Categories = append([]string{}, sp.Categories...)
	sp.Members = append([]string{}, sp.Members...)
	return &sp
}

func cloneTask(t models.Task) *models.Task {
	t.Requirements = append([]string{}, t.Requirements...)
	return &t
}
