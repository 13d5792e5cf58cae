package server

import (
	"net/http"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/julienschmidt/httprouter"
)

func (s *Server) httpTracksGetAll(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	www.SendJSON(w, s.engine.Tracks())
}

func (s *Server) httpTracksGetCamera(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	camera, err := defs.ParseCameraView(params.ByName("camera"))
	www.CheckClient(err)
	www.SendJSON(w, s.engine.TracksForCamera(camera))
}
