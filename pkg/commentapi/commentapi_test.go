package commentapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/go-cmp/cmp"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/UKHomeOffice/comments/internal/comment"
	"github.com/UKHomeOffice/comments/internal/store/storetest"
)

var now = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func existing() comment.Comment {
	return comment.Comment{
		ID:        "1714000000000",
		Content:   "first",
		Author:    "alice",
		CreatedAt: "2024-04-24T23:06:40.000Z",
		UpdatedAt: "2024-04-24T23:06:40.000Z",
	}
}

func newHandler(db *storetest.Memory) *Handler {
	log, _ := logtest.NewNullLogger()
	h := NewHandler(db, log)
	h.now = func() time.Time { return now }
	return h
}

func TestHandle(t *testing.T) {

	tt := []struct {
		name   string
		method string
		id     string
		body   string
		status int
		want   string
	}{
		{name: "list", method: "GET", status: http.StatusOK,
			want: `[{"id":"1714000000000","content":"first","author":"alice","createdAt":"2024-04-24T23:06:40.000Z","updatedAt":"2024-04-24T23:06:40.000Z"}]`},
		{name: "get", method: "get", id: "1714000000000", status: http.StatusOK,
			want: `{"id":"1714000000000","content":"first","author":"alice","createdAt":"2024-04-24T23:06:40.000Z","updatedAt":"2024-04-24T23:06:40.000Z"}`},
		{name: "get missing", method: "GET", id: "1", status: http.StatusNotFound, want: `{"message":"comment not found"}`},
		{name: "create", method: "POST", body: `{"content":"hello","author":"bob"}`, status: http.StatusCreated,
			want: `{"id":"1714564800000","content":"hello","author":"bob","createdAt":"2024-05-01T12:00:00.000Z","updatedAt":"2024-05-01T12:00:00.000Z"}`},
		{name: "create invalid", method: "POST", body: `{"content":""}`, status: http.StatusBadRequest,
			want: `{"message":"validation failed","errors":{"author":"The field 'author' is required.","content":"The field 'content' is required."}}`},
		{name: "create bad json", method: "POST", body: `{"content":`, status: http.StatusBadRequest,
			want: `{"message":"invalid request body"}`},
		{name: "update", method: "PUT", id: "1714000000000", body: `{"content":"changed"}`, status: http.StatusOK,
			want: `{"id":"1714000000000","content":"changed","author":"alice","createdAt":"2024-04-24T23:06:40.000Z","updatedAt":"2024-05-01T12:00:00.000Z"}`},
		{name: "update author", method: "PUT", id: "1714000000000", body: `{"author":"carol"}`, status: http.StatusOK,
			want: `{"id":"1714000000000","content":"first","author":"carol","createdAt":"2024-04-24T23:06:40.000Z","updatedAt":"2024-05-01T12:00:00.000Z"}`},
		{name: "update empty", method: "PUT", id: "1714000000000", body: `{}`, status: http.StatusBadRequest,
			want: `{"message":"validation failed","errors":{"content":"At least one field must be provided, starting with 'content'."}}`},
		{name: "update missing", method: "PUT", id: "1", body: `{"content":"changed"}`, status: http.StatusNotFound,
			want: `{"message":"comment not found"}`},
		{name: "update no id", method: "PUT", body: `{"content":"changed"}`, status: http.StatusBadRequest,
			want: `{"message":"id is required"}`},
		{name: "delete", method: "DELETE", id: "1714000000000", status: http.StatusOK, want: `{"message":"comment deleted"}`},
		{name: "delete no id", method: "DELETE", status: http.StatusBadRequest, want: `{"message":"id is required"}`},
		{name: "patch", method: "PATCH", id: "1714000000000", status: http.StatusMethodNotAllowed,
			want: `{"message":"method not allowed"}`},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {

			req := &events.APIGatewayProxyRequest{HTTPMethod: tc.method, Body: tc.body}
			if tc.id != "" {
				req.PathParameters = map[string]string{"id": tc.id}
			}

			res, err := newHandler(storetest.NewMemory(existing())).Handle(context.Background(), req)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if res.StatusCode != tc.status {
				t.Errorf("expected status %v, got %v", tc.status, res.StatusCode)
			}
			if diff := cmp.Diff(tc.want, res.Body); diff != "" {
				t.Errorf("unexpected body (-want +got):\n%s", diff)
			}
		})
	}
}

func TestListEmpty(t *testing.T) {
	res, _ := newHandler(storetest.NewMemory()).Handle(context.Background(), &events.APIGatewayProxyRequest{HTTPMethod: "GET"})
	if res.Body != "[]" {
		t.Errorf("expected empty array, got %v", res.Body)
	}
}

func TestCreateMovesPastTakenID(t *testing.T) {

	taken := existing()
	taken.ID = "1714564800000"
	db := storetest.NewMemory(taken)

	res, _ := newHandler(db).Handle(context.Background(), &events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Body:       `{"content":"hello","author":"bob"}`,
	})
	if res.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %v: %v", res.StatusCode, res.Body)
	}
	if !strings.Contains(res.Body, `"id":"1714564800001"`) {
		t.Errorf("expected next id, got %v", res.Body)
	}
	if db.Items["1714564800000"].Content != "first" {
		t.Error("existing comment was overwritten")
	}
}

func TestDeleteIsRemoved(t *testing.T) {

	db := storetest.NewMemory(existing())
	h := newHandler(db)

	req := &events.APIGatewayProxyRequest{HTTPMethod: "DELETE", PathParameters: map[string]string{"id": "1714000000000"}}
	if _, err := h.Handle(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req.HTTPMethod = "GET"
	res, _ := h.Handle(context.Background(), req)
	if res.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 after delete, got %v", res.StatusCode)
	}
}

func TestStoreFailure(t *testing.T) {

	db := storetest.NewMemory(existing())
	db.Err = errors.New("could not scan table: throttled")

	log, hook := logtest.NewNullLogger()
	h := NewHandler(db, log)

	res, err := h.Handle(context.Background(), &events.APIGatewayProxyRequest{HTTPMethod: "GET"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.StatusCode != http.StatusInternalServerError || res.Body != `{"message":"internal error"}` {
		t.Errorf("unexpected response: %v %v", res.StatusCode, res.Body)
	}
	if strings.Contains(res.Body, "throttled") {
		t.Error("cause leaked into the body")
	}
	if len(hook.Entries) != 1 {
		t.Errorf("expected the cause to be logged once, got %d entries", len(hook.Entries))
	}
}
