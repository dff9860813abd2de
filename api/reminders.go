package main

import (
	"log"
	"time"
)

// runDeadlineReminders periodically emails assignees of tasks whose deadline
// falls within the reminder window. A send failure is logged and retried on
// the next tick; the task is only marked reminded after a successful send.
func (app *application) runDeadlineReminders(interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	for range ticker.C {
		app.sendDueReminders(window)
	}
}

func (app *application) sendDueReminders(window time.Duration) {
	now := time.Now().UTC()
	tasks, err := app.store.dueTasks(now, now.Add(window))
	if err != nil {
		log.Println(err)
		return
	}
	for _, t := range tasks {
		u, err := app.store.getUserByID(t.AssignedUser)
		if err != nil {
			log.Println(err)
			continue
		}
		if u == nil {
			continue
		}
		data := map[string]string{
			"UserName": u.Name,
			"TaskName": t.Name,
			"Deadline": t.Deadline.Format(time.RFC1123),
		}
		if err := app.mailer.send(u.Email, reminderTemplate, data); err != nil {
			log.Println(err)
			continue
		}
		if err := app.store.markReminderSent(t.ID.Hex()); err != nil {
			log.Println(err)
		}
	}
}
