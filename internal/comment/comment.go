// Package comment defines the comment record and the request payloads that create or change it.
package comment

import (
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/UKHomeOffice/comments/internal/validate"
)

// TimeFormat is ISO-8601 in UTC with millisecond precision
const TimeFormat = "2006-01-02T15:04:05.000Z"

// Comment is a stored comment
type Comment struct {
	ID        string `json:"id" validate:"required,numeric"`
	Content   string `json:"content" validate:"required,max=1000"`
	Author    string `json:"author" validate:"required,max=50"`
	UserID    string `json:"userId,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"createdAt" validate:"required"`
	UpdatedAt string `json:"updatedAt" validate:"required"`
}

// CreateInput is the body of an open create request, author included
type CreateInput struct {
	Content string `json:"content" validate:"required,max=1000"`
	Author  string `json:"author" validate:"required,max=50"`
}

// PatchInput is the body of an open update request. At least one field must be set.
type PatchInput struct {
	Content *string `json:"content" validate:"omitnil,min=1,max=1000"`
	Author  *string `json:"author" validate:"omitnil,min=1,max=50"`
}

// ContentInput is the body of a create or update request made by an identified user
type ContentInput struct {
	Content string `json:"content" validate:"required,max=1000"`
}

func init() {
	validate.RegisterStructValidation(validatePatch, PatchInput{})
}

func validatePatch(sl validator.StructLevel) {
	p := sl.Current().Interface().(PatchInput)
	if p.Content == nil && p.Author == nil {
		sl.ReportError(p.Content, "content", "Content", "atleastone", "")
	}
}

// Timestamp formats t the way comments store it
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// NewID derives an identifier from t in milliseconds since the epoch
func NewID(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}

// NextID returns the identifier one millisecond after id
func NextID(id string) (string, error) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return "", fmt.Errorf("could not parse comment id %q: %w", id, err)
	}
	return strconv.FormatInt(n+1, 10), nil
}

// New returns a comment created at now
func New(now time.Time, content, author string) Comment {
	ts := Timestamp(now)
	return Comment{
		ID:        NewID(now),
		Content:   content,
		Author:    author,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

