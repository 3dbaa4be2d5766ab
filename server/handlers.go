package server

import (
	"net/http"

	"github.com/jrsteele09/kpoint-gateway/catalog"
	apperrors "github.com/jrsteele09/kpoint-gateway/internal/errors"
	"github.com/jrsteele09/kpoint-gateway/playlink"
)

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// AuthStatusHandler reports whether an upstream credential can be obtained.
func (s *Server) AuthStatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.console.Authenticate(r.Context()); err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"status": "unauthenticated"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "authenticated"})
	}
}

// AuthAcquireHandler acquires the upstream credential.
func (s *Server) AuthAcquireHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.console.Authenticate(r.Context()); err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]any{"success": false, "error": err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true, "token_acquired": true})
	}
}

func (s *Server) ListVideosHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := s.console.ListVideos(r.Context(), r.URL.Query().Get("scope"))
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func (s *Server) GetVideoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		video, err := s.console.GetVideo(r.Context(), r.PathValue("videoId"))
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, video)
	}
}

type fieldsResponse struct {
	Success bool `json:"success"`
	*catalog.FieldsResult
}

func (s *Server) VideoFieldsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := s.console.PackageFields(r.Context(), r.PathValue("videoId"), r.URL.Query().Get("packageId"))
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, fieldsResponse{Success: true, FieldsResult: res})
	}
}

// PackagesHandler returns one package by packageId, or the packages of a
// video by videoId.
func (s *Server) PackagesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		switch {
		case q.Get("packageId") != "":
			pkg, err := s.console.GetPackage(r.Context(), q.Get("packageId"))
			if err != nil {
				writeJSONError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, pkg)
		case q.Get("videoId") != "":
			pkgs, err := s.console.ListPackagesForVideo(r.Context(), q.Get("videoId"))
			if err != nil {
				writeJSONError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"packages": pkgs})
		default:
			writeJSONError(w, r, apperrors.Validation("Either packageId or videoId is required"))
		}
	}
}

func (s *Server) PublishHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req catalog.PublishRequest
		if err := decodeJSON(r, &req); err != nil {
			writeJSONError(w, r, err)
			return
		}
		resp, err := s.console.Publish(r.Context(), req)
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// PartnerHandler returns one template when templateId is given, otherwise
// the templates visible to userId (or the active user).
func (s *Server) PartnerHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if templateID := q.Get("templateId"); templateID != "" {
			t, err := s.console.PartnerTemplate(r.Context(), templateID, q.Get("userId"))
			if err != nil {
				writeJSONError(w, r, err)
				return
			}
			writeJSON(w, http.StatusOK, t)
			return
		}

		list, err := s.console.PartnerTemplates(r.Context(), q.Get("partnerId"), q.Get("userId"))
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

type playLinkResponse struct {
	playlink.Link
	Success bool `json:"success"`
}

func (s *Server) PlayLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p playlink.Params
		if err := decodeJSON(r, &p); err != nil {
			writeJSONError(w, r, err)
			return
		}
		link, err := s.console.PlayLink(p)
		if err != nil {
			writeJSONError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, playLinkResponse{Link: link, Success: true})
	}
}

func (s *Server) DebugConfigHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, s.console.Settings())
	}
}
