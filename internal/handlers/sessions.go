package handlers

import (
	"net/http"
	"sort"
	"strings"

	"github.com/lehigh-university-libraries/curator/internal/session"
)

func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessions.GetAll()
		list := make([]session.Stats, 0, len(sessions))
		for _, sess := range sessions {
			list = append(list, sess.Stats())
		}
		sort.Slice(list, func(i, j int) bool {
			return list[i].CreatedAt.Before(list[j].CreatedAt)
		})
		h.writeJSON(w, list)
	case "POST":
		sess := session.New()
		h.sessions.Set(sess)
		w.Header().Set(sessionHeader, sess.ID)
		h.writeJSONStatus(w, http.StatusCreated, sess.Stats())
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	sessionID := strings.TrimPrefix(r.URL.Path, "/api/sessions/")

	sess, exists := h.sessions.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return
	}

	switch r.Method {
	case "GET":
		h.writeJSON(w, sess.Stats())
	case "DELETE":
		h.sessions.Delete(sessionID)
		w.WriteHeader(http.StatusNoContent)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}
