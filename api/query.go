package main

import (
	"encoding/json"
	"net/url"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
)

// listQuery is a validated, bounded read query. A zero filter matches all
// documents; Limit == 0 means unbounded.
type listQuery struct {
	Filter     bson.M
	Sort       bson.M
	Projection bson.M
	Skip       int64
	Limit      int64
	Count      bool
}

// parseListQuery translates untrusted query parameters into a listQuery.
// Every malformed value is rejected with an invalidParameter error; a parse
// failure never degrades into a match-all no-op.
func parseListQuery(values url.Values, defaultLimit int64) (*listQuery, error) {
	q := &listQuery{Limit: defaultLimit}

	var err error
	if q.Filter, err = parseExpression(values.Get("where"), "where"); err != nil {
		return nil, err
	}
	if q.Sort, err = parseExpression(values.Get("sort"), "sort"); err != nil {
		return nil, err
	}
	projection := values.Get("select")
	name := "select"
	if projection == "" {
		// "filter" is a legacy alias for "select".
		projection = values.Get("filter")
		name = "filter"
	}
	if q.Projection, err = parseExpression(projection, name); err != nil {
		return nil, err
	}

	if raw := values.Get("skip"); raw != "" {
		if q.Skip, err = parseBound(raw, "skip"); err != nil {
			return nil, err
		}
	}
	if raw := values.Get("limit"); raw != "" {
		if q.Limit, err = parseBound(raw, "limit"); err != nil {
			return nil, err
		}
	}

	q.Count = parseBoolish(values.Get("count"))
	return q, nil
}

// parseExpression handles the where/sort/select family: absent means "not
// given", anything else must be a JSON object.
func parseExpression(raw, name string) (bson.M, error) {
	if raw == "" {
		return nil, nil
	}
	var expr bson.M
	if err := json.Unmarshal([]byte(raw), &expr); err != nil {
		return nil, invalidParameter("invalid %s parameter: must be a JSON object", name)
	}
	return expr, nil
}

func parseBound(raw, name string) (int64, error) {
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, invalidParameter("invalid %s parameter: must be a non-negative integer", name)
	}
	return n, nil
}

// parseBoolish coerces count-style parameters; unrecognized values mean false.
func parseBoolish(raw string) bool {
	switch raw {
	case "true", "1":
		return true
	default:
		return false
	}
}
