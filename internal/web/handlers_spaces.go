package web

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/sync/errgroup"

	"github.com/harrylevesque/desuite/internal/auth"
	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/forms"
	"github.com/harrylevesque/desuite/internal/views"
)

type spaceRow struct {
	views.Space
	Joined bool
}

type spacesData struct {
	Spaces []spaceRow
	Query  string
	Filter string
	Total  int
}

func (s *Server) handleSpaces(w http.ResponseWriter, r *http.Request) {
	user := auth.FromRequest(r).User()
	q := r.URL.Query()
	data := spacesData{Query: q.Get("q"), Filter: q.Get("filter")}
	if data.Filter == "" {
		data.Filter = views.SpaceFilterAll
	}

	ctx, cancel := s.remote(r)
	defer cancel()
	list, err := s.svc.ListSpaces(ctx)
	if err != nil {
		s.render(w, r, http.StatusOK, "spaces", "Spaces", s.failure(r, err, "Failed to load spaces"), data)
		return
	}
	all := views.FromSpaces(list)
	data.Total = len(all)
	for _, sp := range views.FilterSpaces(all, data.Query, data.Filter, user.ID) {
		data.Spaces = append(data.Spaces, spaceRow{Space: sp, Joined: sp.HasMember(user.ID) || user.IsMemberOf(sp.ID)})
	}
	s.render(w, r, http.StatusOK, "spaces", "Spaces", "", data)
}

type spaceData struct {
	Space    views.Space
	Tasks    []views.Task
	Type     string
	Types    []string
	IsAdmin  bool
	IsMember bool
}

func (s *Server) handleSpace(w http.ResponseWriter, r *http.Request) {
	s.renderSpace(w, r, mux.Vars(r)["spaceId"], "")
}

// renderSpace shows one space and its tasks, with errMsg as the page alert.
func (s *Server) renderSpace(w http.ResponseWriter, r *http.Request, spaceID, errMsg string) {
	user := auth.FromRequest(r).User()
	ctx, cancel := s.remote(r)
	defer cancel()

	sp, err := s.svc.GetSpace(ctx, spaceID)
	if err != nil {
		s.renderStatusError(w, r, s.lookupError(r, err, "Space not found", "Failed to load space"))
		return
	}
	data := spaceData{
		Space: views.FromSpace(*sp),
		Type:  r.URL.Query().Get("type"),
		Types: taskTypeTags(),
	}
	if data.Type == "" {
		data.Type = views.TaskFilterAll
	}
	data.IsAdmin = data.Space.AdminID == user.ID
	data.IsMember = data.Space.HasMember(user.ID) || user.IsMemberOf(spaceID)

	tasks, err := s.svc.ListSpaceTasks(ctx, spaceID)
	if err != nil && errMsg == "" {
		errMsg = s.failure(r, err, "Failed to load tasks")
	}
	data.Tasks = views.FilterByType(views.FromTasks(tasks), data.Type)
	views.SortTasks(data.Tasks, views.SortNewest)
	s.render(w, r, http.StatusOK, "space", data.Space.Name, errMsg, data)
}

// handleJoin joins the signed-in user to a space. Already being a member,
// by either the space's list or the session's, issues no remote call.
// Concurrent duplicate joins share one call.
func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	sc := auth.FromRequest(r)
	user := sc.User()
	spaceID := mux.Vars(r)["spaceId"]
	back := "/spaces/" + spaceID
	if user.IsMemberOf(spaceID) {
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	ctx, cancel := s.remote(r)
	defer cancel()
	sp, err := s.svc.GetSpace(ctx, spaceID)
	if err != nil {
		s.renderSpace(w, r, spaceID, s.failure(r, err, "Failed to join space"))
		return
	}
	if !sp.HasMember(user.ID) {
		// The flight is shared, so it must outlive the request that started it.
		_, err, _ = s.joins.Do(user.ID+"/"+spaceID, func() (any, error) {
			jctx, jcancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
			defer jcancel()
			return s.svc.JoinSpace(jctx, spaceID)
		})
		if err != nil {
			s.renderSpace(w, r, spaceID, s.failure(r, err, "Failed to join space"))
			return
		}
	}
	if user.AddSpace(spaceID) {
		if err := sc.Refresh(user); err != nil {
			s.logger.Errorf("refresh session after join: %v", err)
		}
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}

type createSpaceData struct {
	Form   forms.CreateSpace
	Errors forms.Errors
}

func (s *Server) handleCreateSpaceForm(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, http.StatusOK, "space_create", "Create space", "", createSpaceData{Form: forms.CreateSpace{IsPublic: true}})
}

func (s *Server) handleCreateSpace(w http.ResponseWriter, r *http.Request) {
	f := forms.ParseCreateSpace(r.PostForm)
	data := createSpaceData{Form: f, Errors: f.Validate()}
	if !data.Errors.OK() {
		s.render(w, r, http.StatusUnprocessableEntity, "space_create", "Create space", "", data)
		return
	}
	ctx, cancel := s.remote(r)
	defer cancel()
	sp, err := s.svc.CreateSpace(ctx, f.Input())
	if err != nil {
		s.render(w, r, http.StatusOK, "space_create", "Create space", s.failure(r, err, "Failed to create space"), data)
		return
	}
	sc := auth.FromRequest(r)
	user := sc.User()
	if user.AddSpace(sp.ID) {
		if err := sc.Refresh(user); err != nil {
			s.logger.Errorf("refresh session after create: %v", err)
		}
	}
	http.Redirect(w, r, "/spaces/"+sp.ID, http.StatusSeeOther)
}

// loadMemberships fetches each space the user belongs to along with its
// tasks, concurrently. Spaces the backend refuses are skipped; a transport
// failure fails the whole load.
func (s *Server) loadMemberships(ctx context.Context, spaceIDs []string) ([]views.Space, []views.Task, error) {
	spaces := make([]*views.Space, len(spaceIDs))
	tasks := make([][]views.Task, len(spaceIDs))
	g, ctx := errgroup.WithContext(ctx)
	for i, id := range spaceIDs {
		i, id := i, id
		g.Go(func() error {
			sp, err := s.svc.GetSpace(ctx, id)
			if err != nil {
				if backend.IsRejected(err) {
					s.logger.Warnf("skip space %s: %v", id, err)
					return nil
				}
				return err
			}
			list, err := s.svc.ListSpaceTasks(ctx, id)
			if err != nil {
				if backend.IsRejected(err) {
					s.logger.Warnf("skip tasks of space %s: %v", id, err)
					return nil
				}
				return err
			}
			v := views.FromSpace(*sp)
			spaces[i] = &v
			ts := views.FromTasks(list)
			for j := range ts {
				ts[j].SpaceName = v.Name
			}
			tasks[i] = ts
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	var outSpaces []views.Space
	var outTasks []views.Task
	for i := range spaceIDs {
		if spaces[i] == nil {
			continue
		}
		outSpaces = append(outSpaces, *spaces[i])
		outTasks = append(outTasks, tasks[i]...)
	}
	return outSpaces, outTasks, nil
}
