package server

import (
	"net/http"

	"github.com/jrsteele09/kpoint-gateway/console"
)

// AdminTemplatesHandler lists every template, unfiltered.
func (s *Server) AdminTemplatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.console.AdminTemplates(r.Context())
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) AdminPublishTemplateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req console.PublishTemplateRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, r, err)
			return
		}
		res, err := s.console.PublishTemplate(r.Context(), r.PathValue("id"), req)
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func (s *Server) AdminAssignmentsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.console.TemplateAssignments(r.PathValue("id")))
	}
}

func (s *Server) AdminGroupsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		groups, err := s.console.Groups()
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "total": len(groups)})
	}
}

func (s *Server) AdminUsersHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.console.Users()
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": list, "total": len(list)})
	}
}

func (s *Server) CurrentUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, err := s.console.CurrentUser()
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

func (s *Server) SwitchUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			UserID string `json:"user_id"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, r, err)
			return
		}
		u, err := s.console.SwitchUser(req.UserID)
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"success": true,
			"user":    u,
			"message": "Switched to " + u.Name,
		})
	}
}
