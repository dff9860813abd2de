package main

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// store is the persistence collaborator. Identifiers cross this boundary as
// hex strings already checked for well-formedness by the caller.
type store interface {
	findTasks(q *listQuery) ([]task, error)
	countTasks(filter bson.M) (int64, error)
	getTaskByID(id string) (*task, error)
	getTasksByIDs(ids []string) ([]task, error)
	insertTask(t *task) error
	saveTask(t *task) error
	deleteTask(id string) error
	// unassignTasksExcept clears the assignee of every not-completed task
	// currently assigned to userID whose id is not in keep.
	unassignTasksExcept(userID string, keep []string) error
	// clearTaskAssignee clears the assignee of every task assigned to userID,
	// completed or not.
	clearTaskAssignee(userID string) error
	dueTasks(from, to time.Time) ([]task, error)
	markReminderSent(id string) error

	findUsers(q *listQuery) ([]user, error)
	countUsers(filter bson.M) (int64, error)
	getUserByID(id string) (*user, error)
	insertUser(u *user) error
	saveUser(u *user) error
	deleteUser(id string) error
	// emailTaken reports whether a user other than excludeID holds email.
	emailTaken(email string, excludeID string) (bool, error)
	pullPendingTask(userID, taskID string) error
	addPendingTask(userID, taskID string) error
}

type mongoStore struct {
	tasks *mongo.Collection
	users *mongo.Collection
}

func openStore(cfg config) (*mongoStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.db.uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(cfg.db.name)
	s := &mongoStore{
		tasks: db.Collection("tasks"),
		users: db.Collection("users"),
	}
	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.M{"email": 1},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}
	return s, nil
}

func opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

func hexID(id string) (primitive.ObjectID, error) {
	return primitive.ObjectIDFromHex(id)
}

func hexIDs(ids []string) ([]primitive.ObjectID, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		oid, err := hexID(id)
		if err != nil {
			return nil, err
		}
		oids = append(oids, oid)
	}
	return oids, nil
}

func findAll[T any](c *mongo.Collection, q *listQuery) ([]T, error) {
	filter := q.Filter
	if filter == nil {
		filter = bson.M{}
	}
	opts := options.Find()
	if q.Sort != nil {
		opts.SetSort(q.Sort)
	}
	if q.Projection != nil {
		opts.SetProjection(q.Projection)
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	ctx, cancel := opContext()
	defer cancel()
	cursor, err := c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	var docs []T
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	return docs, nil
}

func countAll(c *mongo.Collection, filter bson.M) (int64, error) {
	if filter == nil {
		filter = bson.M{}
	}
	ctx, cancel := opContext()
	defer cancel()
	return c.CountDocuments(ctx, filter)
}

func (s *mongoStore) findTasks(q *listQuery) ([]task, error) {
	return findAll[task](s.tasks, q)
}

func (s *mongoStore) countTasks(filter bson.M) (int64, error) {
	return countAll(s.tasks, filter)
}

func (s *mongoStore) getTaskByID(id string) (*task, error) {
	oid, err := hexID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()
	var t task
	err = s.tasks.FindOne(ctx, bson.M{"_id": oid}).Decode(&t)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *mongoStore) getTasksByIDs(ids []string) ([]task, error) {
	oids, err := hexIDs(ids)
	if err != nil {
		return nil, err
	}
	return findAll[task](s.tasks, &listQuery{Filter: bson.M{"_id": bson.M{"$in": oids}}})
}

func (s *mongoStore) insertTask(t *task) error {
	t.ID = primitive.NewObjectID()
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.tasks.InsertOne(ctx, t)
	return err
}

func (s *mongoStore) saveTask(t *task) error {
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.tasks.ReplaceOne(ctx, bson.M{"_id": t.ID}, t)
	return err
}

func (s *mongoStore) deleteTask(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err = s.tasks.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

var clearAssigneePatch = bson.M{"$set": bson.M{"assignedUser": "", "assignedUserName": unassignedName}}

func (s *mongoStore) unassignTasksExcept(userID string, keep []string) error {
	filter := bson.M{"assignedUser": userID, "completed": false}
	if len(keep) > 0 {
		oids, err := hexIDs(keep)
		if err != nil {
			return err
		}
		filter["_id"] = bson.M{"$nin": oids}
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.tasks.UpdateMany(ctx, filter, clearAssigneePatch)
	return err
}

func (s *mongoStore) clearTaskAssignee(userID string) error {
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.tasks.UpdateMany(ctx, bson.M{"assignedUser": userID}, clearAssigneePatch)
	return err
}

func (s *mongoStore) dueTasks(from, to time.Time) ([]task, error) {
	filter := bson.M{
		"completed":    false,
		"reminderSent": false,
		"assignedUser": bson.M{"$ne": ""},
		"deadline":     bson.M{"$gte": from, "$lte": to},
	}
	return findAll[task](s.tasks, &listQuery{Filter: filter})
}

func (s *mongoStore) markReminderSent(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err = s.tasks.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"reminderSent": true}})
	return err
}

func (s *mongoStore) findUsers(q *listQuery) ([]user, error) {
	return findAll[user](s.users, q)
}

func (s *mongoStore) countUsers(filter bson.M) (int64, error) {
	return countAll(s.users, filter)
}

func (s *mongoStore) getUserByID(id string) (*user, error) {
	oid, err := hexID(id)
	if err != nil {
		return nil, err
	}
	ctx, cancel := opContext()
	defer cancel()
	var u user
	err = s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&u)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *mongoStore) insertUser(u *user) error {
	u.ID = primitive.NewObjectID()
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.users.InsertOne(ctx, u)
	return err
}

func (s *mongoStore) saveUser(u *user) error {
	ctx, cancel := opContext()
	defer cancel()
	_, err := s.users.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	return err
}

func (s *mongoStore) deleteUser(id string) error {
	oid, err := hexID(id)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err = s.users.DeleteOne(ctx, bson.M{"_id": oid})
	return err
}

func (s *mongoStore) emailTaken(email string, excludeID string) (bool, error) {
	filter := bson.M{"email": email}
	if excludeID != "" {
		oid, err := hexID(excludeID)
		if err != nil {
			return false, err
		}
		filter["_id"] = bson.M{"$ne": oid}
	}
	n, err := countAll(s.users, filter)
	return n > 0, err
}

func (s *mongoStore) pullPendingTask(userID, taskID string) error {
	oid, err := hexID(userID)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$pull": bson.M{"pendingTasks": taskID}})
	return err
}

func (s *mongoStore) addPendingTask(userID, taskID string) error {
	oid, err := hexID(userID)
	if err != nil {
		return err
	}
	ctx, cancel := opContext()
	defer cancel()
	_, err = s.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$addToSet": bson.M{"pendingTasks": taskID}})
	return err
}
