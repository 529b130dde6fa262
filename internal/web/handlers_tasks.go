package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/forms"
	"github.com/harrylevesque/desuite/internal/models"
	"github.com/harrylevesque/desuite/internal/utils"
	"github.com/harrylevesque/desuite/internal/views"
)

func taskTypeTags() []string {
	out := make([]string, 0, len(models.TaskTypes))
	for _, t := range models.TaskTypes {
		out = append(out, string(t))
	}
	return out
}

type option struct {
	Value string
	Label string
}

func taskTypeOptions() []option {
	out := make([]option, 0, len(models.TaskTypes))
	for _, t := range models.TaskTypes {
		out = append(out, option{Value: string(t), Label: t.Label()})
	}
	return out
}

func visibilityOptions() []option {
	out := make([]option, 0, len(models.Visibilities))
	for _, v := range models.Visibilities {
		out = append(out, option{Value: string(v), Label: v.Label()})
	}
	return out
}

// ===== Create task =====

type createTaskData struct {
	Space        views.Space
	Form         forms.CreateTask
	Errors       forms.Errors
	Types        []option
	Visibilities []option
	// Slots pads the requirement inputs up to the maximum.
	Slots        []string
}

func newCreateTaskData(sp views.Space, f forms.CreateTask, errs forms.Errors) createTaskData {
	slots := append([]string{}, f.Requirements...)
	for len(slots) < forms.MaxRequirements {
		slots = append(slots, "")
	}
	return createTaskData{
		Space:        sp,
		Form:         f,
		Errors:       errs,
		Types:        taskTypeOptions(),
		Visibilities: visibilityOptions(),
		Slots:        slots,
	}
}

func (s *Server) handleCreateTaskForm(w http.ResponseWriter, r *http.Request) {
	s.renderCreateTask(w, r, forms.CreateTask{TaskType: string(models.TaskOnce), Visibility: string(models.VisibleEveryone)}, nil, http.StatusOK, "")
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	spaceID := mux.Vars(r)["spaceId"]
	f := forms.ParseCreateTask(r.PostForm)
	if errs := f.Validate(); !errs.OK() {
		s.renderCreateTask(w, r, f, errs, http.StatusUnprocessableEntity, "")
		return
	}
	ctx, cancel := s.remote(r)
	defer cancel()
	if _, err := s.svc.CreateTask(ctx, f.Input(spaceID)); err != nil {
		s.renderCreateTask(w, r, f, nil, http.StatusOK, s.failure(r, err, "Failed to create task"))
		return
	}
	http.Redirect(w, r, "/spaces/"+spaceID, http.StatusSeeOther)
}

func (s *Server) renderCreateTask(w http.ResponseWriter, r *http.Request, f forms.CreateTask, errs forms.Errors, status int, errMsg string) {
	spaceID := mux.Vars(r)["spaceId"]
	ctx, cancel := s.remote(r)
	defer cancel()
	sp, err := s.svc.GetSpace(ctx, spaceID)
	if err != nil {
		s.renderStatusError(w, r, s.lookupError(r, err, "Space not found", "Failed to load space"))
		return
	}
	user := auth.FromRequest(r).User()
	if sp.AdminID != user.ID && errMsg == "" {
		errMsg = "Only the space admin can create tasks"
	}
	s.render(w, r, status, "task_create", "Create task", errMsg, newCreateTaskData(views.FromSpace(*sp), f, errs))
}

// ===== Task view =====

type taskData struct {
	Space       views.Space
	Task        views.Task
	IsAdmin     bool
	Own         *views.Submission
	CanSubmit   bool
	Proof       string
	ProofError  string
	Submissions []views.Submission
	Counts      views.SubmissionCounts
}

type taskState struct {
	proof      string
	proofError string
	errMsg     string
}

func (s *Server) handleTask(w http.ResponseWriter, r *http.Request) {
	s.renderTask(w, r, taskState{})
}

// renderTask loads a task, the user's own submission and, for the task's
// creator, every submission with per-status counts.
func (s *Server) renderTask(w http.ResponseWriter, r *http.Request, st taskState) {
	vars := mux.Vars(r)
	spaceID, taskID := vars["spaceId"], vars["taskId"]
	user := auth.FromRequest(r).User()
	ctx, cancel := s.remote(r)
	defer cancel()

	t, err := s.svc.GetTask(ctx, taskID)
	if err != nil {
		s.renderStatusError(w, r, s.lookupError(r, err, "Task not found", "Failed to load task"))
		return
	}
	if t.SpaceID != spaceID {
		s.renderStatusError(w, r, utils.NotFound("Task not found"))
		return
	}
	data := taskData{
		Task:       views.FromTask(*t),
		Proof:      st.proof,
		ProofError: st.proofError,
	}
	data.IsAdmin = data.Task.CreatorID == user.ID
	data.Space.ID = spaceID

	var subs []models.Submission
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		sp, err := s.svc.GetSpace(gctx, spaceID)
		if err == nil {
			data.Space = views.FromSpace(*sp)
		}
		return nil
	})
	g.Go(func() error {
		own, err := s.svc.GetUserSubmission(gctx, taskID, user.ID)
		switch {
		case err == nil:
			v := views.FromSubmission(*own)
			data.Own = &v
		case backend.IsRejected(err):
			// no submission yet
		default:
			return err
		}
		return nil
	})
	if data.IsAdmin {
		g.Go(func() error {
			list, err := s.svc.ListTaskSubmissions(gctx, taskID)
			if err != nil {
				return err
			}
			subs = list
			return nil
		})
	}
	if err := g.Wait(); err != nil && st.errMsg == "" {
		st.errMsg = s.failure(r, err, "Failed to load submissions")
	}
	data.Submissions = views.FromSubmissions(subs)
	data.Counts = views.CountSubmissions(data.Submissions)
	data.CanSubmit = data.Own == nil && data.Task.Active()
	s.render(w, r, http.StatusOK, "task", data.Task.Title, st.errMsg, data)
}

func (s *Server) taskURL(r *http.Request) string {
	vars := mux.Vars(r)
	return "/spaces/" + vars["spaceId"] + "/tasks/" + vars["taskId"]
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	f := forms.ParseSubmission(r.PostForm)
	if errs := f.Validate(); !errs.OK() {
		s.renderTask(w, r, taskState{proof: f.Proof, proofError: errs.Get("proof")})
		return
	}
	ctx, cancel := s.remote(r)
	defer cancel()
	if _, err := s.svc.SubmitTask(ctx, mux.Vars(r)["taskId"], f.Proof); err != nil {
		s.renderTask(w, r, taskState{proof: f.Proof, errMsg: s.failure(r, err, "Failed to submit task")})
		return
	}
	http.Redirect(w, r, s.taskURL(r), http.StatusSeeOther)
}

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	switch r.PostForm.Get("decision") {
	case "approve", "reject":
	default:
		s.renderStatusError(w, r, utils.BadRequest("Choose approve or reject"))
		return
	}
	f := forms.ParseReview(r.PostForm)
	ctx, cancel := s.remote(r)
	defer cancel()
	if _, err := s.svc.ReviewSubmission(ctx, f.Input(mux.Vars(r)["submissionId"])); err != nil {
		s.renderTask(w, r, taskState{errMsg: s.failure(r, err, "Failed to review submission")})
		return
	}
	http.Redirect(w, r, s.taskURL(r), http.StatusSeeOther)
}

// ===== Task list =====

type tasksData struct {
	Tasks   []views.Task
	Query   string
	Filter  string
	Sort    string
	Filters []option
	Sorts   []option
	Total   int
}

var taskFilters = []option{
	{views.TaskFilterAll, "All tasks"},
	{views.TaskFilterActive, "Active"},
	{views.TaskFilterCompleted, "Completed"},
	{string(models.TaskDaily), "Daily"},
	{string(models.TaskWeekly), "Weekly"},
	{string(models.TaskMonthly), "Monthly"},
	{string(models.TaskOnce), "One-time"},
}

var taskSorts = []option{
	{views.SortNewest, "Newest first"},
	{views.SortOldest, "Oldest first"},
	{views.SortPointsHigh, "Most points"},
	{views.SortPointsLow, "Fewest points"},
	{views.SortDeadline, "Deadline"},
}

func (s *Server) handleTasks(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r).User()
	q := r.URL.Query()
	data := tasksData{
		Query:   q.Get("q"),
		Filter:  q.Get("filter"),
		Sort:    q.Get("sort"),
		Filters: taskFilters,
		Sorts:   taskSorts,
	}
	if data.Filter == "" {
		data.Filter = views.TaskFilterAll
	}
	if data.Sort == "" {
		data.Sort = views.SortNewest
	}

	ctx, cancel := s.remote(r)
	defer cancel()
	_, tasks, err := s.loadMemberships(ctx, user.Spaces)
	if err != nil {
		s.render(w, r, http.StatusOK, "tasks", "Tasks", s.failure(r, err, "Failed to load tasks"), data)
		return
	}
	data.Total = len(tasks)
	data.Tasks = views.FilterTasks(tasks, data.Query, data.Filter)
	views.SortTasks(data.Tasks, data.Sort)
	s.render(w, r, http.StatusOK, "tasks", "Tasks", "", data)
}
