// Package httpx holds the small response helpers every handler shares.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/petrolia/termlab/internal/fault"
)

// DetailBody is the error envelope the API returns for every failure.
type DetailBody struct {
	Detail string `json:"detail"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func WriteDetail(w http.ResponseWriter, status int, detail string) {
	WriteJSON(w, status, DetailBody{Detail: detail})
}

// WriteError maps a domain error to its status via fault.Status. The error's
// message doubles as the detail; internal errors are masked.
func WriteError(w http.ResponseWriter, err error) {
	status := fault.Status(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		detail = "internal server error"
	}
	WriteDetail(w, status, detail)
}
