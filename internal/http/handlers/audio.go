package handlers

import (
	"encoding/json"
	"net/http"
)

// AudioCallback receives push notifications from the audio provider.
// Unknown tasks and already-settled assets are acknowledged with 200 so
// the provider stops retrying; only malformed payloads are rejected.
func (a *App) AudioCallback(w http.ResponseWriter, r *http.Request) {
	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if err := a.Reconciler.HandleCallback(r.Context(), payload); err != nil {
		a.Logger.Error().Err(err).Msg("audio callback reconciliation failed")
	}
	a.json(w, http.StatusOK, map[string]string{"status": "ok"})
}
