package main

import (
	"errors"
	"net/url"
	"testing"
)

func TestParseListQuery(t *testing.T) {
	tests := []struct {
		name         string
		params       url.Values
		defaultLimit int64
		wantErr      bool
		check        func(t *testing.T, q *listQuery)
	}{
		{
			name:         "empty parameters use the default limit",
			params:       url.Values{},
			defaultLimit: 100,
			check: func(t *testing.T, q *listQuery) {
				if q.Filter != nil || q.Sort != nil || q.Projection != nil {
					t.Errorf("expected empty expressions, got %+v", q)
				}
				if q.Limit != 100 {
					t.Errorf("limit = %d, want 100", q.Limit)
				}
			},
		},
		{
			name:   "where filter is parsed",
			params: url.Values{"where": {`{"completed": false}`}},
			check: func(t *testing.T, q *listQuery) {
				if got := q.Filter["completed"]; got != false {
					t.Errorf(`Filter["completed"] = %v, want false`, got)
				}
			},
		},
		{
			name:    "malformed where is rejected",
			params:  url.Values{"where": {`{invalid`}},
			wantErr: true,
		},
		{
			name:    "where must be an object",
			params:  url.Values{"where": {`[1,2]`}},
			wantErr: true,
		},
		{
			name:   "sort and select are parsed",
			params: url.Values{"sort": {`{"name": 1}`}, "select": {`{"name": 1, "_id": 0}`}},
			check: func(t *testing.T, q *listQuery) {
				if q.Sort == nil || q.Projection == nil {
					t.Fatalf("sort/projection not parsed: %+v", q)
				}
				if got := toFloat(q.Projection["_id"]); got != 0 {
					t.Errorf(`Projection["_id"] = %v, want 0`, got)
				}
			},
		},
		{
			name:   "filter is an alias for select",
			params: url.Values{"filter": {`{"email": 1}`}},
			check: func(t *testing.T, q *listQuery) {
				if q.Projection == nil {
					t.Fatal("projection not parsed from filter alias")
				}
			},
		},
		{
			name:    "malformed sort is rejected",
			params:  url.Values{"sort": {`not json`}},
			wantErr: true,
		},
		{
			name:         "explicit limit overrides the default",
			params:       url.Values{"skip": {"5"}, "limit": {"10"}},
			defaultLimit: 100,
			check: func(t *testing.T, q *listQuery) {
				if q.Skip != 5 || q.Limit != 10 {
					t.Errorf("skip/limit = %d/%d, want 5/10", q.Skip, q.Limit)
				}
			},
		},
		{
			name:    "negative skip is rejected",
			params:  url.Values{"skip": {"-1"}},
			wantErr: true,
		},
		{
			name:    "non-numeric limit is rejected",
			params:  url.Values{"limit": {"ten"}},
			wantErr: true,
		},
		{
			name:   "count accepts true and 1",
			params: url.Values{"count": {"1"}},
			check: func(t *testing.T, q *listQuery) {
				if !q.Count {
					t.Error("count = false, want true")
				}
			},
		},
		{
			name:   "unrecognized count means false",
			params: url.Values{"count": {"yes"}},
			check: func(t *testing.T, q *listQuery) {
				if q.Count {
					t.Error("count = true, want false")
				}
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := parseListQuery(tc.params, tc.defaultLimit)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error, got none")
				}
				var e *apiError
				if !errors.As(err, &e) || e.kind != errInvalidParameter {
					t.Fatalf("expected an invalid-parameter error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if tc.check != nil {
				tc.check(t, q)
			}
		})
	}
}
