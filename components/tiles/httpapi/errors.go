package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"

	tiles "github.com/tilekit/go-tileboard/components/tiles"
)

type errorResponse struct {
	Error    string `json:"error"`
	Field    string `json:"field,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// respondError maps the tile error taxonomy onto HTTP statuses. Session
// expiry answers 401 with the login redirect target; everything else stays
// a JSON error the tile renders locally.
func respondError(w http.ResponseWriter, r *http.Request, loginPath string, err error) {
	if errors.Is(err, tiles.ErrUnauthorized) {
		respondUnauthorized(w, r, loginPath)
		return
	}
	var validation *tiles.ValidationError
	if errors.As(err, &validation) {
		respondJSON(w, http.StatusBadRequest, errorResponse{Error: validation.Reason, Field: validation.Field})
		return
	}
	var upstream *tiles.UpstreamError
	if errors.As(err, &upstream) {
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: upstream.Message})
		return
	}
	var network *tiles.NetworkError
	if errors.As(err, &network) {
		respondJSON(w, http.StatusBadGateway, errorResponse{Error: "upstream unreachable"})
		return
	}
	respondJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
}

func respondUnauthorized(w http.ResponseWriter, r *http.Request, loginPath string) {
	if loginPath == "" {
		loginPath = "/login"
	}
	target := loginPath + "?redirect=" + url.QueryEscape(r.URL.RequestURI())
	respondJSON(w, http.StatusUnauthorized, errorResponse{Error: "session expired", Redirect: target})
}
