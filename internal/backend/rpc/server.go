// Package rpc serves a backend.Service over the platform wire protocol:
// POST /rpc/{method} with JSON arguments, answered by {"ok": ...} or
// {"err": "..."}.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/harrylevesque/desuite/internal/backend"
	"github.com/harrylevesque/desuite/internal/utils"
)

const maxRequestBytes = 1 << 20

type handlerFunc func(ctx context.Context, body []byte) (any, error)

type Server struct {
	svc     backend.Service
	logger  *utils.Logger
	methods map[string]handlerFunc
}

func NewServer(svc backend.Service, logger *utils.Logger) *Server {
	s := &Server{svc: svc, logger: logger}
	s.methods = map[string]handlerFunc{
		backend.MethodLogin: func(ctx context.Context, b []byte) (any, error) {
			var a backend.LoginArgs
			if err := decode(b, &a); err != nil {
				return nil, err
			}
			return svc.Login(ctx, a.Email, a.Password)
		},
		backend.MethodRegister: func(ctx context.Context, b []byte) (any, error) {
			var a backend.RegisterArgs
			if err := decode(b, &a); err != nil {
				return nil, err
			}
			return svc.Register(ctx, a.Username, a.Email, a.Password)
		},
		backend.MethodGetAllSpaces: func(ctx context.Context, _ []byte) (any, error) {
			return svc.ListSpaces(ctx)
		},
		backend.MethodGetSpace: withID(svc.GetSpace),
		backend.MethodCreateSpace: func(ctx context.Context, b []byte) (any, error) {
			var in backend.CreateSpaceInput
			if err := decode(b, &in); err != nil {
				return nil, err
			}
			return svc.CreateSpace(ctx, in)
		},
		backend.MethodJoinSpace:     withID(svc.JoinSpace),
		backend.MethodGetSpaceTasks: withID(svc.ListSpaceTasks),
		backend.MethodGetTask:       withID(svc.GetTask),
		backend.MethodCreateTask: func(ctx context.Context, b []byte) (any, error) {
			var in backend.CreateTaskInput
			if err := decode(b, &in); err != nil {
				return nil, err
			}
			return svc.CreateTask(ctx, in)
		},
		backend.MethodSubmitTask: func(ctx context.Context, b []byte) (any, error) {
			var a backend.SubmitArgs
			if err := decode(b, &a); err != nil {
				return nil, err
			}
			return svc.SubmitTask(ctx, a.TaskID, a.Proof)
		},
		backend.MethodGetUserTaskSubmission: func(ctx context.Context, b []byte) (any, error) {
			var a backend.UserSubmissionArgs
			if err := decode(b, &a); err != nil {
				return nil, err
			}
			return svc.GetUserSubmission(ctx, a.TaskID, a.UserID)
		},
		backend.MethodGetAllTaskSubmissions: withID(svc.ListTaskSubmissions),
		backend.MethodReviewTaskSubmission: func(ctx context.Context, b []byte) (any, error) {
			var in backend.ReviewInput
			if err := decode(b, &in); err != nil {
				return nil, err
			}
			return svc.ReviewSubmission(ctx, in)
		},
		backend.MethodGetUserStats:          withID(svc.GetUserStats),
		backend.MethodGetUserCompletedTasks: withID(svc.GetUserCompletedTasks),
		backend.MethodGetLeaderboard: func(ctx context.Context, _ []byte) (any, error) {
			return svc.GetLeaderboard(ctx)
		},
	}
	return s
}

func withID[T any](fn func(context.Context, string) (T, error)) handlerFunc {
	return func(ctx context.Context, b []byte) (any, error) {
		var a backend.IDArgs
		if err := decode(b, &a); err != nil {
			return nil, err
		}
		return fn(ctx, a.ID)
	}
}

var errBadArgs = errors.New("bad arguments")

func decode(b []byte, v any) error {
	if len(b) == 0 {
		return errBadArgs
	}
	if err := json.Unmarshal(b, v); err != nil {
		return errBadArgs
	}
	return nil
}

// Router mounts the rpc endpoint plus a health check.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK\n"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/rpc/{method}", s.handleRPC).Methods(http.MethodPost)
	return r
}

func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	method := mux.Vars(r)["method"]
	fn, ok := s.methods[method]
	if !ok {
		http.Error(w, "unknown method", http.StatusNotFound)
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	ctx := r.Context()
	if caller := r.Header.Get(backend.CallerHeader); caller != "" {
		ctx = backend.WithCaller(ctx, caller)
	}

	out, err := fn(ctx, body)
	switch {
	case errors.Is(err, errBadArgs):
		http.Error(w, "bad arguments for "+method, http.StatusBadRequest)
		return
	case backend.IsRejected(err):
		msg := err.Error()
		writeEnvelope(w, backend.Envelope{Err: &msg})
		return
	case err != nil:
		if s.logger != nil {
			s.logger.Errorf("rpc %s: %v", method, err)
		}
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	payload, err := json.Marshal(out)
	if err != nil {
		http.Error(w, "encode result", http.StatusInternalServerError)
		return
	}
	writeEnvelope(w, backend.Envelope{Ok: payload})
}

func writeEnvelope(w http.ResponseWriter, env backend.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(env)
}
