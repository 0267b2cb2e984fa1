package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/zkwatch/pkg/auth"
	"github.com/zkwatch/pkg/config"
	"github.com/zkwatch/pkg/db"
	"github.com/zkwatch/pkg/price"
	"github.com/zkwatch/pkg/scanner"
)

// Server exposes the dashboard API: one POST endpoint per handler group,
// dispatching on a typed action field. Every action authenticates the caller
// before touching the store.
type Server struct {
	cfg     *config.Config
	store   *db.Store
	auth    *auth.Client
	scanner *scanner.Scanner
	oracle  *price.Oracle
}

func New(cfg *config.Config, store *db.Store, authClient *auth.Client, sc *scanner.Scanner, oracle *price.Oracle) *Server {
	return &Server{cfg: cfg, store: store, auth: authClient, scanner: sc, oracle: oracle}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/agents", cors(s.dispatch(s.agentActions())))
	mux.HandleFunc("/api/alerts", cors(s.dispatch(s.alertActions())))
	mux.HandleFunc("/api/whales", cors(s.dispatch(s.whaleActions())))
	return mux
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.cfg.Port),
		Handler: s.Handler(),
	}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()
	log.Info().Str("addr", srv.Addr).Msg("🌐 api server started")
	err := srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// handlerFunc handles one action. payload is the full request body so each
// action unmarshals its own typed request.
type handlerFunc func(ctx context.Context, user *auth.User, payload json.RawMessage) (interface{}, error)

// apiError carries the HTTP status and stable code for the error envelope.
type apiError struct {
	status  int
	code    string
	message string
}

func (e *apiError) Error() string { return e.message }

func errUnauthorized(msg string) *apiError {
	return &apiError{status: http.StatusUnauthorized, code: "unauthorized", message: msg}
}

func errBadRequest(code, msg string) *apiError {
	return &apiError{status: http.StatusBadRequest, code: code, message: msg}
}

func (s *Server) dispatch(actions map[string]handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, &apiError{status: http.StatusMethodNotAllowed, code: "method_not_allowed", message: "POST only"})
			return
		}

		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, errBadRequest("invalid_body", "could not read request body"))
			return
		}
		var envelope struct {
			Action string `json:"action"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			writeError(w, errBadRequest("invalid_json", "request body is not valid JSON"))
			return
		}

		user, err := s.auth.Authenticate(r.Context(), bearerToken(r))
		if err != nil {
			writeError(w, errUnauthorized("invalid or missing credentials"))
			return
		}

		h, ok := actions[envelope.Action]
		if !ok {
			writeError(w, errBadRequest("unknown_action", fmt.Sprintf("unknown action %q", envelope.Action)))
			return
		}

		data, err := h(r.Context(), user, body)
		if err != nil {
			log.Error().Err(err).Str("action", envelope.Action).Str("user", user.ID).Msg("action failed")
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"data": data})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

// cors answers preflight unconditionally with permissive headers; the
// dashboard frontend is served from a different origin.
func cors(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	msg := err.Error()
	if ae, ok := err.(*apiError); ok {
		status, code, msg = ae.status, ae.code, ae.message
	}
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]string{"code": code, "message": msg},
	})
}
