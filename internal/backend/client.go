package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/harrylevesque/desuite/internal/models"
)

// CallerHeader carries the acting user's id on the wire.
const CallerHeader = "X-Desuite-Caller"

const maxResponseBytes = 4 << 20

// Method names as the platform backend exposes them.
const (
	MethodLogin                 = "login"
	MethodRegister              = "register"
	MethodGetAllSpaces          = "getAllSpaces"
	MethodGetSpace              = "getSpace"
	MethodCreateSpace           = "createSpace"
	MethodJoinSpace             = "joinSpace"
	MethodGetSpaceTasks         = "getSpaceTasks"
	MethodGetTask               = "getTask"
	MethodCreateTask            = "createTask"
	MethodSubmitTask            = "submitTask"
	MethodGetUserTaskSubmission = "getUserTaskSubmission"
	MethodGetAllTaskSubmissions = "getAllTaskSubmissions"
	MethodReviewTaskSubmission  = "reviewTaskSubmission"
	MethodGetUserStats          = "getUserStats"
	MethodGetUserCompletedTasks = "getUserCompletedTasks"
	MethodGetLeaderboard        = "getLeaderboard"
)

// Envelope is the result shape of every call: exactly one of Ok or Err.
type Envelope struct {
	Ok  json.RawMessage `json:"ok,omitempty"`
	Err *string         `json:"err,omitempty"`
}

// Wire argument shapes, shared with the rpc server.
type (
	LoginArgs struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	RegisterArgs struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	IDArgs struct {
		ID string `json:"id"`
	}
	SubmitArgs struct {
		TaskID string `json:"taskId"`
		Proof  string `json:"proof"`
	}
	UserSubmissionArgs struct {
		TaskID string `json:"taskId"`
		UserID string `json:"userId"`
	}
)

// Client talks to a remote platform backend over HTTP+JSON.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = hc }
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.httpClient.Timeout = d }
}

func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) BaseURL() string { return c.baseURL }

var _ Service = (*Client)(nil)

// call posts args to /rpc/{method} and decodes the ok payload into out.
func (c *Client) call(ctx context.Context, method string, args any, out any) error {
	if args == nil {
		args = struct{}{}
	}
	data, err := json.Marshal(args)
	if err != nil {
		return Transport(method, fmt.Errorf("encode args: %w", err))
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/rpc/"+method, bytes.NewReader(data))
	if err != nil {
		return Transport(method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if caller, ok := CallerFrom(ctx); ok {
		req.Header.Set(CallerHeader, caller)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Transport(method, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return Transport(method, fmt.Errorf("read body: %w", err))
	}
	if resp.StatusCode != http.StatusOK {
		return Transport(method, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))))
	}

	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Transport(method, fmt.Errorf("decode envelope: %w", err))
	}
	if env.Err != nil {
		return Rejected(method, *env.Err)
	}
	if out == nil {
		return nil
	}
	if len(env.Ok) == 0 {
		return Transport(method, fmt.Errorf("empty ok payload"))
	}
	if err := json.Unmarshal(env.Ok, out); err != nil {
		return Transport(method, fmt.Errorf("decode payload: %w", err))
	}
	return nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, MethodLogin, LoginArgs{Email: email, Password: password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) Register(ctx context.Context, username, email, password string) (*models.User, error) {
	var u models.User
	if err := c.call(ctx, MethodRegister, RegisterArgs{Username: username, Email: email, Password: password}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) ListSpaces(ctx context.Context) ([]models.Space, error) {
	var spaces []models.Space
	if err := c.call(ctx, MethodGetAllSpaces, nil, &spaces); err != nil {
		return nil, err
	}
	return spaces, nil
}

func (c *Client) GetSpace(ctx context.Context, id string) (*models.Space, error) {
	var s models.Space
	if err := c.call(ctx, MethodGetSpace, IDArgs{ID: id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) CreateSpace(ctx context.Context, in CreateSpaceInput) (*models.Space, error) {
	var s models.Space
	if err := c.call(ctx, MethodCreateSpace, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) JoinSpace(ctx context.Context, id string) (*models.Space, error) {
	var s models.Space
	if err := c.call(ctx, MethodJoinSpace, IDArgs{ID: id}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListSpaceTasks(ctx context.Context, spaceID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.call(ctx, MethodGetSpaceTasks, IDArgs{ID: spaceID}, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*models.Task, error) {
	var t models.Task
	if err := c.call(ctx, MethodGetTask, IDArgs{ID: id}, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	var t models.Task
	if err := c.call(ctx, MethodCreateTask, in, &t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (c *Client) SubmitTask(ctx context.Context, taskID, proof string) (*models.Submission, error) {
	var s models.Submission
	if err := c.call(ctx, MethodSubmitTask, SubmitArgs{TaskID: taskID, Proof: proof}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetUserSubmission(ctx context.Context, taskID, userID string) (*models.Submission, error) {
	var s models.Submission
	if err := c.call(ctx, MethodGetUserTaskSubmission, UserSubmissionArgs{TaskID: taskID, UserID: userID}, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListTaskSubmissions(ctx context.Context, taskID string) ([]models.Submission, error) {
	var subs []models.Submission
	if err := c.call(ctx, MethodGetAllTaskSubmissions, IDArgs{ID: taskID}, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *Client) ReviewSubmission(ctx context.Context, in ReviewInput) (*models.Submission, error) {
	var s models.Submission
	if err := c.call(ctx, MethodReviewTaskSubmission, in, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) GetUserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	var st models.UserStats
	if err := c.call(ctx, MethodGetUserStats, IDArgs{ID: userID}, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func (c *Client) GetUserCompletedTasks(ctx context.Context, userID string) ([]models.Task, error) {
	var tasks []models.Task
	if err := c.call(ctx, MethodGetUserCompletedTasks, IDArgs{ID: userID}, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

func (c *Client) GetLeaderboard(ctx context.Context) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	if err := c.call(ctx, MethodGetLeaderboard, nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
