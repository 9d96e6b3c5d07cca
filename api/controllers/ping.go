package controllers

import (
	"net/http"

	"github.com/storyreelhq/storyreel-backend/api/middleware"
	"github.com/storyreelhq/storyreel-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if username := middleware.UsernameFromContext(r.Context()); username != "" {
			payload["username"] = username
		}
		responses.WriteSuccess(w, payload)
	}
}
