package server

import (
	"net/http"

	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/detect"
	"github.com/johaankjis/Surround-Surveillance-Perception-System/pkg/www"
	"github.com/julienschmidt/httprouter"
)

// POST /api/detections
// The delivery path for an external detector process. The batch is queued for
// the next ingestion cycle; if the engine has fallen behind and the queue is
// full, we drop the batch and tell the producer (202 vs 200 is too subtle, so
// the body says "OK" or "DROPPED").
func (s *Server) httpDetectionsPost(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	if s.source == nil {
		www.PanicBadRequestf("Detection ingestion is disabled (running off a synthetic feed)")
	}
	batch := detect.Batch{}
	www.ReadJSON(w, r, &batch, 10*1024*1024)
	if s.source.Push(batch) {
		www.SendText(w, "OK")
	} else {
		www.SendText(w, "DROPPED")
	}
}
