package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
)

type userInput struct {
	Name         string          `json:"name"`
	Email        string          `json:"email"`
	PendingTasks json.RawMessage `json:"pendingTasks"`
}

// normalizePendingTasks accepts the pending-task list as a JSON array of ids,
// a JSON-encoded string holding such an array, or a comma-separated string.
func normalizePendingTasks(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err == nil {
		return ids, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, invalidParameter("invalid pendingTasks: must be an array of task IDs")
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return []string{}, nil
	}
	if strings.HasPrefix(s, "[") {
		if err := json.Unmarshal([]byte(s), &ids); err != nil {
			return nil, invalidParameter("invalid pendingTasks: must be an array of task IDs")
		}
		return ids, nil
	}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids, nil
}

func validateUserInput(in userInput) error {
	v := newValidator()
	v.checkCond(in.Name != "", "name", "must be provided")
	v.checkCond(len(in.Name) <= 255, "name", "must be atmost 255 characters")
	v.checkEmail(in.Email)
	if v.hasErrors() {
		return invalidParameter("%s", v.toError())
	}
	return nil
}

func (app *application) createUser(in userInput) *outcome {
	if err := validateUserInput(in); err != nil {
		return mapError(err)
	}
	taken, err := app.store.emailTaken(in.Email, "")
	if err != nil {
		return mapError(storeFailure(err))
	}
	if taken {
		return mapError(duplicateKey("a user with this email already exists"))
	}
	ids, err := normalizePendingTasks(in.PendingTasks)
	if err != nil {
		return mapError(err)
	}

	u := &user{
		Name:         in.Name,
		Email:        in.Email,
		PendingTasks: []string{},
		DateCreated:  time.Now().UTC(),
	}
	if err := app.store.insertUser(u); err != nil {
		return mapError(storeFailure(err))
	}
	if len(ids) > 0 {
		if err := app.sync.applyAssignments(u, ids); err != nil {
			return mapError(err)
		}
		if err := app.store.saveUser(u); err != nil {
			return mapError(storeFailure(err))
		}
	}
	return created(u)
}

func (app *application) getUser(id string) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid user ID"))
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if u == nil {
		return mapError(notFound("user not found"))
	}
	return ok(u)
}

func (app *application) listUsers(q *listQuery) *outcome {
	if q.Count {
		n, err := app.store.countUsers(q.Filter)
		if err != nil {
			return mapError(storeFailure(err))
		}
		return ok(n)
	}
	users, err := app.store.findUsers(q)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if users == nil {
		users = []user{}
	}
	return ok(users)
}

func (app *application) updateUser(id string, in userInput) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid user ID"))
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if u == nil {
		return mapError(notFound("user not found"))
	}
	if err := validateUserInput(in); err != nil {
		return mapError(err)
	}
	taken, err := app.store.emailTaken(in.Email, id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if taken {
		return mapError(duplicateKey("a user with this email already exists"))
	}
	ids, err := normalizePendingTasks(in.PendingTasks)
	if err != nil {
		return mapError(err)
	}
	if ids == nil {
		ids = u.PendingTasks
	}

	u.Name = in.Name
	u.Email = in.Email
	if err := app.sync.applyAssignments(u, ids); err != nil {
		return mapError(err)
	}
	if err := app.store.saveUser(u); err != nil {
		return mapError(storeFailure(err))
	}
	return ok(u)
}

func (app *application) deleteUser(id string) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid user ID"))
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if u == nil {
		return mapError(notFound("user not found"))
	}
	if err := app.sync.onUserDeleted(u); err != nil {
		return mapError(err)
	}
	if err := app.store.deleteUser(id); err != nil {
		return mapError(storeFailure(err))
	}
	return ok(struct{}{})
}

func (app *application) createUserHandler(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, invalidParameter("invalid JSON body"))
		return
	}
	writeOutcome(w, app.createUser(in))
}

func (app *application) getUsersHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query(), 0)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, app.listUsers(q))
}

func (app *application) getUserHandler(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, app.getUser(r.PathValue("id")))
}

func (app *application) updateUserHandler(w http.ResponseWriter, r *http.Request) {
	var in userInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, invalidParameter("invalid JSON body"))
		return
	}
	writeOutcome(w, app.updateUser(r.PathValue("id"), in))
}

func (app *application) deleteUserHandler(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, app.deleteUser(r.PathValue("id")))
}
