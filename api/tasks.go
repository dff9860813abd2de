package main

import (
	"encoding/json"
	"net/http"
	"time"
)

type taskInput struct {
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Deadline     json.RawMessage `json:"deadline"`
	Completed    json.RawMessage `json:"completed"`
	AssignedUser string          `json:"assignedUser"`
}

// parseDeadline accepts an RFC 3339 string or a Unix-millisecond number.
func parseDeadline(raw json.RawMessage) (time.Time, error) {
	if len(raw) == 0 {
		return time.Time{}, invalidParameter("deadline must be provided")
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, invalidParameter("deadline must be a valid date")
		}
		return t, nil
	}
	var ms int64
	if err := json.Unmarshal(raw, &ms); err == nil {
		return time.UnixMilli(ms).UTC(), nil
	}
	return time.Time{}, invalidParameter("deadline must be a valid date")
}

// parseCompleted coerces boolean-like input; absent means false.
func parseCompleted(raw json.RawMessage) (bool, error) {
	if len(raw) == 0 {
		return false, nil
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err == nil {
		return b, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		switch s {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
	}
	return false, invalidParameter("completed must be a boolean")
}

// resolveAssignee loads the user an id refers to; empty means unassigned.
func (app *application) resolveAssignee(id string) (*user, error) {
	if id == "" {
		return nil, nil
	}
	if _, err := hexID(id); err != nil {
		return nil, invalidIdentifier("invalid user ID")
	}
	u, err := app.store.getUserByID(id)
	if err != nil {
		return nil, storeFailure(err)
	}
	if u == nil {
		return nil, notFound("assigned user not found")
	}
	return u, nil
}

func validateTaskInput(in taskInput) error {
	v := newValidator()
	v.checkCond(in.Name != "", "name", "must be provided")
	v.checkCond(len(in.Name) <= 255, "name", "must be atmost 255 characters")
	if v.hasErrors() {
		return invalidParameter("%s", v.toError())
	}
	return nil
}

func (app *application) createTask(in taskInput) *outcome {
	if err := validateTaskInput(in); err != nil {
		return mapError(err)
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return mapError(err)
	}
	completed, err := parseCompleted(in.Completed)
	if err != nil {
		return mapError(err)
	}
	assignee, err := app.resolveAssignee(in.AssignedUser)
	if err != nil {
		return mapError(err)
	}

	t := &task{
		Name:             in.Name,
		Description:      in.Description,
		Deadline:         deadline,
		Completed:        completed,
		AssignedUser:     in.AssignedUser,
		AssignedUserName: unassignedName,
		DateCreated:      time.Now().UTC(),
	}
	if assignee != nil {
		t.AssignedUserName = assignee.Name
	}
	if err := app.store.insertTask(t); err != nil {
		return mapError(storeFailure(err))
	}
	if err := app.sync.onTaskAssigned(t, "", t.AssignedUser); err != nil {
		return mapError(err)
	}
	return created(t)
}

func (app *application) getTask(id string) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid task ID"))
	}
	t, err := app.store.getTaskByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if t == nil {
		return mapError(notFound("task not found"))
	}
	return ok(t)
}

const defaultTaskLimit = 100

func (app *application) listTasks(q *listQuery) *outcome {
	if q.Count {
		n, err := app.store.countTasks(q.Filter)
		if err != nil {
			return mapError(storeFailure(err))
		}
		return ok(n)
	}
	tasks, err := app.store.findTasks(q)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if tasks == nil {
		tasks = []task{}
	}
	return ok(tasks)
}

func (app *application) updateTask(id string, in taskInput) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid task ID"))
	}
	t, err := app.store.getTaskByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if t == nil {
		return mapError(notFound("task not found"))
	}
	if err := validateTaskInput(in); err != nil {
		return mapError(err)
	}
	deadline, err := parseDeadline(in.Deadline)
	if err != nil {
		return mapError(err)
	}
	completed, err := parseCompleted(in.Completed)
	if err != nil {
		return mapError(err)
	}
	assignee, err := app.resolveAssignee(in.AssignedUser)
	if err != nil {
		return mapError(err)
	}

	previous := t.AssignedUser
	t.Name = in.Name
	t.Description = in.Description
	if !deadline.Equal(t.Deadline) {
		t.Deadline = deadline
		t.ReminderSent = false
	}
	t.Completed = completed
	t.AssignedUser = in.AssignedUser
	t.AssignedUserName = unassignedName
	if assignee != nil {
		t.AssignedUserName = assignee.Name
	}
	if err := app.store.saveTask(t); err != nil {
		return mapError(storeFailure(err))
	}
	if err := app.sync.onTaskAssigned(t, previous, t.AssignedUser); err != nil {
		return mapError(err)
	}
	return ok(t)
}

func (app *application) deleteTask(id string) *outcome {
	if _, err := hexID(id); err != nil {
		return mapError(invalidIdentifier("invalid task ID"))
	}
	t, err := app.store.getTaskByID(id)
	if err != nil {
		return mapError(storeFailure(err))
	}
	if t == nil {
		return mapError(notFound("task not found"))
	}
	if err := app.store.deleteTask(id); err != nil {
		return mapError(storeFailure(err))
	}
	if err := app.sync.onTaskDeleted(t); err != nil {
		return mapError(err)
	}
	return ok(struct{}{})
}

func (app *application) createTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, invalidParameter("invalid JSON body"))
		return
	}
	writeOutcome(w, app.createTask(in))
}

func (app *application) getTasksHandler(w http.ResponseWriter, r *http.Request) {
	q, err := parseListQuery(r.URL.Query(), defaultTaskLimit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeOutcome(w, app.listTasks(q))
}

func (app *application) getTaskHandler(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, app.getTask(r.PathValue("id")))
}

func (app *application) updateTaskHandler(w http.ResponseWriter, r *http.Request) {
	var in taskInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, invalidParameter("invalid JSON body"))
		return
	}
	writeOutcome(w, app.updateTask(r.PathValue("id"), in))
}

func (app *application) deleteTaskHandler(w http.ResponseWriter, r *http.Request) {
	writeOutcome(w, app.deleteTask(r.PathValue("id")))
}
