package main

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// unassignedName is what assignedUserName holds whenever assignedUser is empty.
const unassignedName = "unassigned"

type task struct {
	ID               primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name             string             `bson:"name" json:"name"`
	Description      string             `bson:"description" json:"description"`
	Deadline         time.Time          `bson:"deadline" json:"deadline"`
	Completed        bool               `bson:"completed" json:"completed"`
	AssignedUser     string             `bson:"assignedUser" json:"assignedUser"`
	AssignedUserName string             `bson:"assignedUserName" json:"assignedUserName"`
	ReminderSent     bool               `bson:"reminderSent" json:"-"`
	DateCreated      time.Time          `bson:"dateCreated" json:"dateCreated"`
}

type user struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PendingTasks []string           `bson:"pendingTasks" json:"pendingTasks"`
	DateCreated  time.Time          `bson:"dateCreated" json:"dateCreated"`
}
