package main

import (
	"reflect"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory store used by the tests. It evaluates the filter
// operators the application actually issues (equality, $ne, $in, $nin) and
// ignores projections, which only the real store applies.
type memStore struct {
	tasks []task
	users []user
}

func newMemStore() *memStore {
	return &memStore{}
}

func taskField(t *task, key string) any {
	switch key {
	case "_id":
		return t.ID
	case "name":
		return t.Name
	case "description":
		return t.Description
	case "completed":
		return t.Completed
	case "assignedUser":
		return t.AssignedUser
	case "assignedUserName":
		return t.AssignedUserName
	default:
		return nil
	}
}

func userField(u *user, key string) any {
	switch key {
	case "_id":
		return u.ID
	case "name":
		return u.Name
	case "email":
		return u.Email
	default:
		return nil
	}
}

func containsValue(list any, field any) bool {
	v := reflect.ValueOf(list)
	if v.Kind() != reflect.Slice {
		return false
	}
	for i := 0; i < v.Len(); i++ {
		if reflect.DeepEqual(v.Index(i).Interface(), field) {
			return true
		}
	}
	return false
}

func matchValue(field any, cond any) bool {
	var ops map[string]any
	switch m := cond.(type) {
	case bson.M:
		ops = m
	case map[string]any:
		ops = m
	}
	if ops != nil {
		for op, v := range ops {
			switch op {
			case "$ne":
				if reflect.DeepEqual(field, v) {
					return false
				}
			case "$in":
				if !containsValue(v, field) {
					return false
				}
			case "$nin":
				if containsValue(v, field) {
					return false
				}
			default:
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(field, cond)
}

func applyBounds[T any](docs []T, q *listQuery) []T {
	if q.Skip > 0 {
		if q.Skip >= int64(len(docs)) {
			return nil
		}
		docs = docs[q.Skip:]
	}
	if q.Limit > 0 && q.Limit < int64(len(docs)) {
		docs = docs[:q.Limit]
	}
	return docs
}

func (s *memStore) findTasks(q *listQuery) ([]task, error) {
	var out []task
	for i := range s.tasks {
		if matchTaskFilter(&s.tasks[i], q.Filter) {
			out = append(out, s.tasks[i])
		}
	}
	if len(q.Sort) == 1 {
		for key, dir := range q.Sort {
			asc := toFloat(dir) >= 0
			sort.SliceStable(out, func(i, j int) bool {
				a, _ := taskField(&out[i], key).(string)
				b, _ := taskField(&out[j], key).(string)
				if asc {
					return a < b
				}
				return a > b
			})
		}
	}
	return applyBounds(out, q), nil
}

func toFloat(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	default:
		return 0
	}
}

func matchTaskFilter(t *task, filter bson.M) bool {
	for key, cond := range filter {
		if !matchValue(taskField(t, key), cond) {
			return false
		}
	}
	return true
}

func matchUserFilter(u *user, filter bson.M) bool {
	for key, cond := range filter {
		if !matchValue(userField(u, key), cond) {
			return false
		}
	}
	return true
}

func (s *memStore) countTasks(filter bson.M) (int64, error) {
	var n int64
	for i := range s.tasks {
		if matchTaskFilter(&s.tasks[i], filter) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) getTaskByID(id string) (*task, error) {
	oid, err := hexID(id)
	if err != nil {
		return nil, err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == oid {
			t := s.tasks[i]
			return &t, nil
		}
	}
	return nil, nil
}

func (s *memStore) getTasksByIDs(ids []string) ([]task, error) {
	var out []task
	for _, id := range ids {
		t, err := s.getTaskByID(id)
		if err != nil {
			return nil, err
		}
		if t != nil {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (s *memStore) insertTask(t *task) error {
	t.ID = primitive.NewObjectID()
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *memStore) saveTask(t *task) error {
	for i := range s.tasks {
		if s.tasks[i].ID == t.ID {
			s.tasks[i] = *t
			return nil
		}
	}
	s.tasks = append(s.tasks, *t)
	return nil
}

func (s *memStore) deleteTask(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == oid {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) unassignTasksExcept(userID string, keep []string) error {
	kept := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		kept[id] = struct{}{}
	}
	for i := range s.tasks {
		t := &s.tasks[i]
		if t.AssignedUser != userID || t.Completed {
			continue
		}
		if _, ok := kept[t.ID.Hex()]; ok {
			continue
		}
		t.AssignedUser = ""
		t.AssignedUserName = unassignedName
	}
	return nil
}

func (s *memStore) clearTaskAssignee(userID string) error {
	for i := range s.tasks {
		if s.tasks[i].AssignedUser == userID {
			s.tasks[i].AssignedUser = ""
			s.tasks[i].AssignedUserName = unassignedName
		}
	}
	return nil
}

func (s *memStore) dueTasks(from, to time.Time) ([]task, error) {
	var out []task
	for i := range s.tasks {
		t := s.tasks[i]
		if t.Completed || t.ReminderSent || t.AssignedUser == "" {
			continue
		}
		if t.Deadline.Before(from) || t.Deadline.After(to) {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *memStore) markReminderSent(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	for i := range s.tasks {
		if s.tasks[i].ID == oid {
			s.tasks[i].ReminderSent = true
		}
	}
	return nil
}

func (s *memStore) findUsers(q *listQuery) ([]user, error) {
	var out []user
	for i := range s.users {
		if matchUserFilter(&s.users[i], q.Filter) {
			out = append(out, s.users[i])
		}
	}
	return applyBounds(out, q), nil
}

func (s *memStore) countUsers(filter bson.M) (int64, error) {
	var n int64
	for i := range s.users {
		if matchUserFilter(&s.users[i], filter) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) getUserByID(id string) (*user, error) {
	oid, err := hexID(id)
	if err != nil {
		return nil, err
	}
	for i := range s.users {
		if s.users[i].ID == oid {
			u := s.users[i]
			return &u, nil
		}
	}
	return nil, nil
}

func (s *memStore) insertUser(u *user) error {
	u.ID = primitive.NewObjectID()
	s.users = append(s.users, *u)
	return nil
}

func (s *memStore) saveUser(u *user) error {
	for i := range s.users {
		if s.users[i].ID == u.ID {
			s.users[i] = *u
			return nil
		}
	}
	s.users = append(s.users, *u)
	return nil
}

func (s *memStore) deleteUser(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	for i := range s.users {
		if s.users[i].ID == oid {
			s.users = append(s.users[:i], s.users[i+1:]...)
			return nil
		}
	}
	return nil
}

func (s *memStore) emailTaken(email string, excludeID string) (bool, error) {
	for i := range s.users {
		if s.users[i].Email == email && s.users[i].ID.Hex() != excludeID {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) pullPendingTask(userID, taskID string) error {
	oid, err := hexID(userID)
	if err != nil {
		return err
	}
	for i := range s.users {
		if s.users[i].ID != oid {
			continue
		}
		pending := s.users[i].PendingTasks[:0]
		for _, id := range s.users[i].PendingTasks {
			if id != taskID {
				pending = append(pending, id)
			}
		}
		s.users[i].PendingTasks = pending
	}
	return nil
}

func (s *memStore) addPendingTask(userID, taskID string) error {
	oid, err := hexID(userID)
	if err != nil {
		return err
	}
	for i := range s.users {
		if s.users[i].ID != oid {
			continue
		}
		for _, id := range s.users[i].PendingTasks {
			if id == taskID {
				return nil
			}
		}
		s.users[i].PendingTasks = append(s.users[i].PendingTasks, taskID)
	}
	return nil
}
