package main

import (
	"encoding/json"
	"net/http"

	"chinampa/models"
)

// Request/response DTOs that only the HTTP layer needs.

type errorResp struct {
	Detail string `json:"detail"`
}

type recommendationsResp struct {
	Recommendations []string `json:"recommendations"`
}

type geocodeResp struct {
	models.Place
	Route string `json:"route"`
}

type healthResp struct {
	Status string `json:"status"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResp{Detail: detail})
}
