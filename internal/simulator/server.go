// Package simulator is a small stand-in for the CloudStack management
// server, covering exactly the API commands the load balancer modules
// consume. It speaks the query API dialect the SDK signs and parses
// (signatures are accepted unchecked), so the real client code can be
// exercised end to end against local state.
package simulator

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/DazWorrall/ansible-modules-extras/internal/simulator/state"
)

// Server routes API commands onto a state.Store.
type Server struct {
	store  state.Store
	log    zerolog.Logger
	router chi.Router
	jobs   *jobTable
}

// New builds the command router.
func New(store state.Store, log zerolog.Logger) *Server {
	s := &Server{
		store: store,
		log:   log,
		jobs:  newJobTable(),
	}

	r := chi.NewRouter()
	r.Get("/client/api", s.handleCommand)
	r.Post("/client/api", s.handleCommand)
	s.router = r
	return s
}

// Handler exposes the server for http.Server and httptest.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleCommand(w http.ResponseWriter, r *http.Request) {
	command := r.FormValue("command")
	s.log.Debug().Str("command", command).Msg("api call")

	ctx := r.Context()
	var payload any
	var err error

	switch strings.ToLower(command) {
	case "listzones":
		payload, err = s.listZones(ctx, r)
	case "listdomains":
		payload, err = s.listDomains(ctx)
	case "listaccounts":
		payload, err = s.listAccounts(ctx, r)
	case "listprojects":
		payload, err = s.listProjects(ctx)
	case "listpublicipaddresses":
		payload, err = s.listPublicIPs(ctx, r)
	case "listvirtualmachines":
		payload, err = s.listVirtualMachines(ctx, r)
	case "listloadbalancerrules":
		payload, err = s.listRules(ctx, r)
	case "listloadbalancerruleinstances":
		payload, err = s.listRuleMembers(ctx, r)
	case "createloadbalancerrule":
		payload, err = s.createRule(ctx, r)
	case "deleteloadbalancerrule":
		payload, err = s.deleteRule(ctx, r)
	case "assigntoloadbalancerrule":
		payload, err = s.changeMembers(ctx, r, true)
	case "removefromloadbalancerrule":
		payload, err = s.changeMembers(ctx, r, false)
	case "queryasyncjobresult":
		payload, err = s.queryJob(r)
	default:
		s.writeError(w, 432, "The given command does not exist or it is not available for user")
		return
	}

	if err != nil {
		s.log.Debug().Err(err).Str("command", command).Msg("api call failed")
		s.writeError(w, 431, err.Error())
		return
	}
	s.writeResponse(w, command, payload)
}

// writeResponse wraps the payload in the single-key envelope the SDK
// unwraps: {"<command>response": {...}}.
func (s *Server) writeResponse(w http.ResponseWriter, command string, payload any) {
	w.Header().Set("Content-Type", "application/json")
	envelope := map[string]any{strings.ToLower(command) + "response": payload}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.log.Error().Err(err).Msg("encoding response")
	}
}

// writeError emits the CloudStack error shape with a matching HTTP status,
// which the SDK decodes into its API error type.
func (s *Server) writeError(w http.ResponseWriter, code int, text string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	envelope := map[string]any{
		"errorresponse": map[string]any{
			"errorcode":   code,
			"cserrorcode": 9999,
			"errortext":   text,
		},
	}
	if err := json.NewEncoder(w).Encode(envelope); err != nil {
		s.log.Error().Err(err).Msg("encoding error response")
	}
}
