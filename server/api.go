package server

import (
	"net/http"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) SetupHTTP() http.Handler {
	router := httprouter.New()

	// protected creates an HTTP handler that runs inside our panic catcher,
	// so handlers are free to panic with www errors
	protected := func(method, route string, handle httprouter.Handle) {
		www.Handle(s.Log, router, method, route, handle)
	}

	protected("GET", "/api/ping", s.httpSystemPing)
	protected("GET", "/api/metrics", s.httpSystemMetrics)
	protected("GET", "/api/engine/state", s.httpEngineState)
	protected("POST", "/api/engine/start", s.httpEngineStart)
	protected("POST", "/api/engine/pause", s.httpEnginePause)

	protected("GET", "/api/tracks", s.httpTracksGetAll)
	protected("GET", "/api/tracks/:camera", s.httpTracksGetCamera)

	protected("GET", "/api/alerts", s.httpAlertsGet)
	protected("POST", "/api/alerts/:id/acknowledge", s.httpAlertAcknowledge)
	protected("POST", "/api/alerts/:id/clear", s.httpAlertClear)

	protected("GET", "/api/zones", s.httpZonesGetAll)
	protected("POST", "/api/zones", s.httpZoneCreate)
	protected("GET", "/api/zones/:id", s.httpZoneGet)
	protected("PUT", "/api/zones/:id", s.httpZoneUpdate)
	protected("DELETE", "/api/zones/:id", s.httpZoneDelete)

	protected("POST", "/api/detections", s.httpDetectionsPost)

	protected("GET", "/ws/live", s.httpLiveWebSocket)

	return router
}
