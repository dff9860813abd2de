package main

// relationshipSync is the single writer of the denormalized assignment fields:
// Task.assignedUser, Task.assignedUserName and User.pendingTasks. Every
// mutation path routes through it so the invariant (a not-completed task
// assigned to a user appears in exactly that user's pendingTasks) is upheld
// after each successful request.
//
// The steps of a multi-entity update are independent store calls, not a
// transaction. Cross-entity writes are issued before the primary entity is
// persisted; a failure partway leaves the store in whatever state the
// completed steps produced and is reported to the caller without rollback.
type relationshipSync struct {
	store store
}

func newRelationshipSync(s store) *relationshipSync {
	return &relationshipSync{store: s}
}

// applyAssignments reconciles a user's pending-task list against an explicit
// set of task ids, reassigning the named tasks to this user and unassigning
// whatever it previously held that is no longer named. Completed tasks stay
// assigned but are dropped from pendingTasks.
func (rs *relationshipSync) applyAssignments(u *user, requestedTaskIDs []string) error {
	requested := dedupe(requestedTaskIDs)
	userID := u.ID.Hex()

	if len(requested) == 0 {
		if err := rs.store.unassignTasksExcept(userID, nil); err != nil {
			return storeFailure(err)
		}
		u.PendingTasks = []string{}
		return nil
	}

	for _, id := range requested {
		if _, err := hexID(id); err != nil {
			return invalidIdentifier("one or more task IDs are invalid")
		}
	}

	tasks, err := rs.store.getTasksByIDs(requested)
	if err != nil {
		return storeFailure(err)
	}
	if len(tasks) != len(requested) {
		return notFound("one or more tasks not found")
	}
	byID := make(map[string]*task, len(tasks))
	for i := range tasks {
		byID[tasks[i].ID.Hex()] = &tasks[i]
	}

	if err := rs.store.unassignTasksExcept(userID, requested); err != nil {
		return storeFailure(err)
	}

	pending := make([]string, 0, len(requested))
	for _, id := range requested {
		t := byID[id]
		if t.AssignedUser != "" && t.AssignedUser != userID {
			if err := rs.store.pullPendingTask(t.AssignedUser, id); err != nil {
				return storeFailure(err)
			}
		}
		t.AssignedUser = userID
		t.AssignedUserName = u.Name
		if err := rs.store.saveTask(t); err != nil {
			return storeFailure(err)
		}
		if !t.Completed {
			pending = append(pending, id)
		}
	}
	u.PendingTasks = pending
	return nil
}

// onTaskAssigned settles pendingTasks after a task create or update.
// previous is the assignee before the mutation, next the assignee after;
// either may be empty.
func (rs *relationshipSync) onTaskAssigned(t *task, previous, next string) error {
	taskID := t.ID.Hex()
	if previous != "" && previous != next {
		if err := rs.store.pullPendingTask(previous, taskID); err != nil {
			return storeFailure(err)
		}
	}
	switch {
	case next == "":
		return nil
	case t.Completed:
		// Assigned but done: not pending.
		if err := rs.store.pullPendingTask(next, taskID); err != nil {
			return storeFailure(err)
		}
	default:
		if err := rs.store.addPendingTask(next, taskID); err != nil {
			return storeFailure(err)
		}
	}
	return nil
}

func (rs *relationshipSync) onTaskDeleted(t *task) error {
	if t.AssignedUser == "" {
		return nil
	}
	if err := rs.store.pullPendingTask(t.AssignedUser, t.ID.Hex()); err != nil {
		return storeFailure(err)
	}
	return nil
}

// onUserDeleted unassigns every task that referenced the user. Tasks
// themselves are never deleted here.
func (rs *relationshipSync) onUserDeleted(u *user) error {
	if err := rs.store.clearTaskAssignee(u.ID.Hex()); err != nil {
		return storeFailure(err)
	}
	return nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
