package server

import (
	"net/http"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/julienschmidt/httprouter"
)

// GET /api/alerts?minSeverity=medium
// Returns alerts most recent first, optionally filtered to a minimum severity.
func (s *Server) httpAlertsGet(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	minSeverity := defs.SeverityLow
	if v := www.QueryValue(r, "minSeverity"); v != "" {
		parsed, err := defs.ParseSeverity(v)
		www.CheckClient(err)
		minSeverity = parsed
	}
	www.SendJSON(w, s.engine.AlertLog().List(minSeverity))
}

// Acknowledging an alert keeps it in the log, but marks it seen, which
// re-arms alerting for that (type, track) pair.
func (s *Server) httpAlertAcknowledge(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.engine.AlertLog().Acknowledge(params.ByName("id"))
	www.SendOK(w)
}

// Clearing removes the alert from the log entirely.
func (s *Server) httpAlertClear(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.engine.AlertLog().Clear(params.ByName("id"))
	www.SendOK(w)
}
