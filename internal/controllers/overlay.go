package controllers

import (
	"net/http"

	"github.com/rahul4469/crisis-analyzer/internal/overlay"
)

// OverlayController renders map overlays for the pages.
type OverlayController struct {
	tile *overlay.TileLayer
}

func NewOverlayController(tile *overlay.TileLayer) *OverlayController {
	if tile == nil {
		tile = overlay.DefaultTileLayer()
	}
	return &OverlayController{tile: tile}
}

// PostOverlay draws the requested hazard and route onto a fresh map over the
// shared tile layer.
func (c *OverlayController) PostOverlay(w http.ResponseWriter, r *http.Request) {
	var req overlay.Request
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, err := overlay.NewMap(c.tile).Render(req)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, view)
}
