package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/UKHomeOffice/comments/internal/comment"
)

// MaxInsertAttempts bounds how many ids Insert tries
const MaxInsertAttempts = 3

// Creator writes new comments
type Creator interface {
	Create(context.Context, comment.Comment) error
}

// Insert creates c, moving it to the next millisecond id while its id is taken.
// It returns the comment as stored.
func Insert(ctx context.Context, cr Creator, c comment.Comment) (comment.Comment, error) {

	for i := 0; i < MaxInsertAttempts; i++ {
		err := cr.Create(ctx, c)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, ErrConditionFailed) {
			return comment.Comment{}, err
		}
		c.ID, err = comment.NextID(c.ID)
		if err != nil {
			return comment.Comment{}, err
		}
	}
	return comment.Comment{}, fmt.Errorf("could not find a free id after %d attempts", MaxInsertAttempts)
}
