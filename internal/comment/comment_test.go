package comment

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/UKHomeOffice/comments/internal/validate"
)

func TestNew(t *testing.T) {

	now := time.Date(2024, 5, 1, 13, 0, 0, 6e6, time.FixedZone("BST", 3600))

	want := Comment{
		ID:        "1714564800006",
		Content:   "hello",
		Author:    "alice",
		CreatedAt: "2024-05-01T12:00:00.006Z",
		UpdatedAt: "2024-05-01T12:00:00.006Z",
	}

	got := New(now, "hello", "alice")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("unexpected comment (-want +got):\n%s", diff)
	}

	if err := validate.Struct(got); err != nil {
		t.Errorf("new comment should be valid, got: %v", err)
	}
}

func TestNextID(t *testing.T) {

	tt := []struct {
		name string
		id   string
		want string
		err  string
	}{
		{name: "happy", id: "1714564800006", want: "1714564800007"},
		{name: "unhappy", id: "abc", err: "could not parse comment id"},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			got, err := NextID(tc.id)
			if err != nil {
				if msg := err.Error(); tc.err == "" || !strings.Contains(msg, tc.err) {
					t.Errorf("expected error %q, got: %q", tc.err, msg)
				}
				return
			}
			if got != tc.want {
				t.Errorf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPatchInput(t *testing.T) {

	long := strings.Repeat("x", 1001)

	tt := []struct {
		name string
		body string
		want validate.Errors
	}{
		{name: "content only", body: `{"content":"new"}`},
		{name: "author only", body: `{"author":"bob"}`},
		{name: "both", body: `{"content":"new","author":"bob"}`},
		{name: "neither", body: `{}`,
			want: validate.Errors{"content": "At least one field must be provided, starting with 'content'."}},
		{name: "empty content", body: `{"content":""}`,
			want: validate.Errors{"content": "The field 'content' must be at least 1 characters long."}},
		{name: "long content", body: `{"content":"` + long + `"}`,
			want: validate.Errors{"content": "The field 'content' must be no longer than 1000 characters."}},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			var in PatchInput
			err := validate.Decode(tc.body, &in)
			if tc.want == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var ve validate.Errors
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation errors, got: %v", err)
			}
			if diff := cmp.Diff(tc.want, ve); diff != "" {
				t.Errorf("unexpected errors (-want +got):\n%s", diff)
			}
		})
	}
}

func TestContentLengthCountsCharacters(t *testing.T) {

	// 1000 multi-byte characters are within the limit
	in := ContentInput{Content: strings.Repeat("评", 1000)}
	if err := validate.Struct(&in); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
