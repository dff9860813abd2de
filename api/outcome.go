package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
)

type errorKind int

const (
	errInvalidParameter errorKind = iota
	errInvalidIdentifier
	errNotFound
	errDuplicateKey
	errStoreFailure
)

type apiError struct {
	kind  errorKind
	msg   string
	cause error
}

func (e *apiError) Error() string {
	return e.msg
}

func (e *apiError) Unwrap() error {
	return e.cause
}

func invalidParameter(format string, args ...any) *apiError {
	return &apiError{kind: errInvalidParameter, msg: fmt.Sprintf(format, args...)}
}

func invalidIdentifier(msg string) *apiError {
	return &apiError{kind: errInvalidIdentifier, msg: msg}
}

func notFound(msg string) *apiError {
	return &apiError{kind: errNotFound, msg: msg}
}

func duplicateKey(msg string) *apiError {
	return &apiError{kind: errDuplicateKey, msg: msg}
}

func storeFailure(cause error) *apiError {
	return &apiError{kind: errStoreFailure, msg: "internal server error", cause: cause}
}

// outcome is the uniform result of every request: a status code plus the
// {message, data} envelope written to the client.
type outcome struct {
	Status  int    `json:"-"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func ok(data any) *outcome {
	return &outcome{Status: http.StatusOK, Message: "OK", Data: data}
}

func created(data any) *outcome {
	return &outcome{Status: http.StatusCreated, Message: "Created", Data: data}
}

// mapError turns any failure into an outcome. Unrecognized errors become a
// 500 whose message never carries internal detail; the cause goes into data.
func mapError(err error) *outcome {
	var e *apiError
	if errors.As(err, &e) {
		status := http.StatusInternalServerError
		switch e.kind {
		case errInvalidParameter, errInvalidIdentifier, errDuplicateKey:
			status = http.StatusBadRequest
		case errNotFound:
			status = http.StatusNotFound
		case errStoreFailure:
			log.Println(e.cause)
			return &outcome{Status: status, Message: e.msg, Data: map[string]string{"error": e.cause.Error()}}
		}
		return &outcome{Status: status, Message: e.msg, Data: nil}
	}
	log.Println(err)
	return &outcome{Status: http.StatusInternalServerError, Message: "internal server error", Data: map[string]string{"error": err.Error()}}
}

func writeOutcome(w http.ResponseWriter, o *outcome) {
	h := w.Header()
	h.Set("Content-Type", "application/json")
	h.Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(o.Status)
	if err := json.NewEncoder(w).Encode(o); err != nil {
		log.Println(err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeOutcome(w, mapError(err))
}
