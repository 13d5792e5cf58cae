package server

import (
	"net/http"
	"os"
	"time"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/julienschmidt/httprouter"
)

type pingJSON struct {
	Greeting string `json:"greeting"`
	Hostname string `json:"hostname"`
	Time     int64  `json:"time"`
}

func (s *Server) httpSystemPing(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	hostname, _ := os.Hostname()
	www.SendJSON(w, &pingJSON{
		Greeting: "I am Surround",
		Hostname: hostname,
		Time:     time.Now().Unix(),
	})
}

func (s *Server) httpSystemMetrics(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.engine.Metrics())
}

type engineStateJSON struct {
	State string `json:"state"`
}

func (s *Server) httpEngineState(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, &engineStateJSON{State: string(s.engine.State())})
}

func (s *Server) httpEngineStart(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.engine.Start()
	www.SendJSON(w, &engineStateJSON{State: string(s.engine.State())})
}

func (s *Server) httpEnginePause(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	s.engine.Pause()
	www.SendJSON(w, &engineStateJSON{State: string(s.engine.State())})
}
