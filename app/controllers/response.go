package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"teamboard/app/auth"
	"teamboard/app/backend"
	"teamboard/app/dashboard"
	"teamboard/app/services"
)

// Response is the body of every API reply: the data, or the reason there
// is none.
type Response struct {
	Data  any     `json:"data"`
	Error *string `json:"error"`
}

func sendJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data}); err != nil {
		log.Printf("controllers: encode response: %v", err)
	}
}

func sendError(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(Response{Data: data, Error: &message}); err != nil {
		log.Printf("controllers: encode response: %v", err)
	}
}

// fail writes err with the status it maps to.
func fail(w http.ResponseWriter, err error, data any) {
	sendError(w, statusFor(err), err.Error(), data)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, dashboard.ErrInFlight):
		return http.StatusConflict
	case services.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, backend.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, auth.ErrEmailNotConfirmed):
		return http.StatusForbidden
	case errors.Is(err, auth.ErrEmailTaken):
		return http.StatusUnprocessableEntity
	}
	var be *backend.Error
	if errors.As(err, &be) {
		if be.Status >= 400 && be.Status < 600 {
			return be.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.New("invalid JSON: " + err.Error())
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
