package server

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/idgen"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/defs"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/server/engine"
	"github.com/julienschmidt/httprouter"
)

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// Intended to aid in logging/debugging
var nextLiveSocketID idgen.Uint32

// GET /ws/live?camera=front
// Streams one JSON AnalysisState message per analysis cycle per camera.
// Without the camera parameter, you get all cameras.
func (s *Server) httpLiveWebSocket(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	var camera defs.CameraView
	if v := www.QueryValue(r, "camera"); v != "" {
		parsed, err := defs.ParseCameraView(v)
		www.CheckClient(err)
		camera = parsed
	}

	conn, err := wsUpgrader.Upgrade(w, r, nil)
	www.Check(err)
	socketID := nextLiveSocketID.Next()
	s.Log.Infof("Live websocket %v connected (camera '%v')", socketID, camera)

	var states chan *engine.AnalysisState
	if camera != "" {
		states = s.engine.AddWatcher(camera)
		defer s.engine.RemoveWatcher(camera, states)
	} else {
		states = s.engine.AddWatcherAllCameras()
		defer s.engine.RemoveWatcherAllCameras(states)
	}
	defer conn.Close()

	// Read from the websocket on its own goroutine, so that the write loop
	// notices a disconnect. We expect no messages from the client.
	closed := make(chan bool)
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				close(closed)
				return
			}
		}
	}()

	for {
		select {
		case <-closed:
			s.Log.Infof("Live websocket %v closed", socketID)
			return
		case state := <-states:
			if err := conn.WriteJSON(state); err != nil {
				s.Log.Infof("Error writing to live websocket %v: %v", socketID, err)
				return
			}
		}
	}
}
