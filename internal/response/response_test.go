package response

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/UKHomeOffice/comments/internal/claims"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/internal/validate"
)

func TestError(t *testing.T) {

	tt := []struct {
		name   string
		err    error
		status int
		body   string
		logged bool
	}{
		{name: "validation", err: validate.Errors{"content": "The field 'content' is required."},
			status: http.StatusBadRequest,
			body:   `{"message":"validation failed","errors":{"content":"The field 'content' is required."}}`},
		{name: "body", err: fmt.Errorf("%w: unexpected EOF", validate.ErrBody),
			status: http.StatusBadRequest, body: `{"message":"invalid request body"}`},
		{name: "id", err: ErrMissingID, status: http.StatusBadRequest, body: `{"message":"id is required"}`},
		{name: "claims", err: claims.ErrMissing, status: http.StatusUnauthorized, body: `{"message":"unauthorized"}`},
		{name: "owner", err: claims.ErrForbidden, status: http.StatusForbidden, body: `{"message":"forbidden"}`},
		{name: "missing", err: store.ErrNotFound, status: http.StatusNotFound, body: `{"message":"comment not found"}`},
		{name: "unexpected", err: errors.New("could not get item: throttled"),
			status: http.StatusInternalServerError, body: `{"message":"internal error"}`, logged: true},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			log, hook := logtest.NewNullLogger()
			res := Error(log, tc.err)

			if res.StatusCode != tc.status {
				t.Errorf("expected status %v, got %v", tc.status, res.StatusCode)
			}
			if res.Body != tc.body {
				t.Errorf("expected body %v, got %v", tc.body, res.Body)
			}
			if res.Headers["Content-Type"] != "application/json" {
				t.Errorf("wrong content type: %v", res.Headers["Content-Type"])
			}

			if !tc.logged {
				if len(hook.Entries) != 0 {
					t.Errorf("expected no log entries, got %d", len(hook.Entries))
				}
				return
			}
			entry := hook.LastEntry()
			if entry == nil || entry.Level != logrus.ErrorLevel {
				t.Fatalf("expected an error entry, got %v", entry)
			}
			if entry.Data[logrus.ErrorKey] != tc.err {
				t.Errorf("expected cause to be logged, got %v", entry.Data[logrus.ErrorKey])
			}
		})
	}
}

func TestJSON(t *testing.T) {

	res := JSON(http.StatusOK, []string{})
	if res.Body != "[]" {
		t.Errorf("expected empty array, got %v", res.Body)
	}

	res = JSON(http.StatusOK, make(chan int))
	if res.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected marshal failure to give 500, got %v", res.StatusCode)
	}
}
