package main

import (
	"net/http"
)

func composeRoutes(app *application) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/healthcheck", app.healthCheckHandler)

	mux.HandleFunc("GET /v1/users", app.getUsersHandler)
	mux.HandleFunc("POST /v1/users", app.createUserHandler)
	mux.HandleFunc("GET /v1/users/{id}", app.getUserHandler)
	mux.HandleFunc("PUT /v1/users/{id}", app.updateUserHandler)
	mux.HandleFunc("DELETE /v1/users/{id}", app.deleteUserHandler)

	mux.HandleFunc("GET /v1/tasks", app.getTasksHandler)
	mux.HandleFunc("POST /v1/tasks", app.createTaskHandler)
	mux.HandleFunc("GET /v1/tasks/{id}", app.getTaskHandler)
	mux.HandleFunc("PUT /v1/tasks/{id}", app.updateTaskHandler)
	mux.HandleFunc("DELETE /v1/tasks/{id}", app.deleteTaskHandler)

	var handler http.Handler = mux
	if app.config.limiter.enabled {
		handler = app.rateLimit(handler)
	}
	return requestID(app.enableCORS(handler))
}
