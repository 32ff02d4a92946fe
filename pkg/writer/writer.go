// Package writer receives a SQS event and applies the queued comment writes to DynamoDB.
package writer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/UKHomeOffice/comments/internal/comment"
	"github.com/UKHomeOffice/comments/internal/queue"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/internal/validate"
)

// errInvalid marks messages that can never succeed; they are dropped rather than retried
var errInvalid = errors.New("invalid message")

// Store is the table abstraction (helpful for testing)
type Store interface {
	Get(context.Context, string) (comment.Comment, error)
	Create(context.Context, comment.Comment) error
	UpdateContent(ctx context.Context, id, userID, content, updatedAt string) (comment.Comment, error)
	DeleteOwned(ctx context.Context, id, userID string) error
}

// Writer applies queued writes
type Writer struct {
	db  Store
	log logrus.FieldLogger
}

// created is a queued create; unlike an open comment it must have an owner
type created struct {
	ID        string `json:"id" validate:"required,numeric"`
	Content   string `json:"content" validate:"required,max=1000"`
	Author    string `json:"author" validate:"required,max=50"`
	UserID    string `json:"userId" validate:"required"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt" validate:"required"`
	UpdatedAt string `json:"updatedAt" validate:"required"`
}

func (cr created) toComment() comment.Comment {
	return comment.Comment{
		ID:        cr.ID,
		Content:   cr.Content,
		Author:    cr.Author,
		UserID:    cr.UserID,
		Email:     cr.Email,
		CreatedAt: cr.CreatedAt,
		UpdatedAt: cr.UpdatedAt,
	}
}

type change struct {
	ID        string `json:"id" validate:"required,numeric"`
	UserID    string `json:"userId" validate:"required"`
	Content   string `json:"content" validate:"required,max=1000"`
	UpdatedAt string `json:"updatedAt" validate:"required"`
}

type removal struct {
	ID     string `json:"id" validate:"required,numeric"`
	UserID string `json:"userId" validate:"required"`
}

// NewWriter returns a new Writer
func NewWriter(s Store, log logrus.FieldLogger) *Writer {
	return &Writer{db: s, log: log}
}

// Process loops over SQS messages. Only messages that failed for a transient
// reason are reported back, so SQS redelivers just those.
func (w *Writer) Process(ctx context.Context, event *events.SQSEvent) (events.SQSEventResponse, error) {

	var res events.SQSEventResponse
	for _, message := range event.Records {
		log := w.log.WithField("messageId", message.MessageId)

		err := w.apply(ctx, log, message.Body)
		switch {
		case err == nil:
		case errors.Is(err, errInvalid):
			log.WithError(err).Warn("dropping message")
		default:
			log.WithError(err).Error("could not apply message")
			res.BatchItemFailures = append(res.BatchItemFailures, events.SQSBatchItemFailure{
				ItemIdentifier: message.MessageId,
			})
		}
	}
	return res, nil
}

func (w *Writer) apply(ctx context.Context, log logrus.FieldLogger, body string) error {

	if !gjson.Valid(body) {
		return fmt.Errorf("%w: body is not JSON", errInvalid)
	}

	action := queue.Action(gjson.Get(body, "action").String())
	raw := gjson.Get(body, "comment")
	if !raw.IsObject() {
		return fmt.Errorf("%w: no comment in %q message", errInvalid, action)
	}

	log = log.WithField("action", action)
	switch action {
	case queue.Create:
		return w.create(ctx, log, raw.Raw)
	case queue.Update:
		return w.update(ctx, log, raw.Raw)
	case queue.Delete:
		return w.delete(ctx, log, raw.Raw)
	default:
		return fmt.Errorf("%w: unknown action %q", errInvalid, action)
	}
}

func decode(raw string, dst interface{}) error {
	if err := validate.Decode(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalid, err)
	}
	return nil
}

func (w *Writer) create(ctx context.Context, log logrus.FieldLogger, raw string) error {

	var in created
	if err := decode(raw, &in); err != nil {
		return err
	}
	c := in.toComment()
	requested := c.ID

	// a taken id holds either an earlier delivery of this message or another comment
	for i := 0; i < store.MaxInsertAttempts; i++ {
		err := w.db.Create(ctx, c)
		if err == nil {
			if c.ID != requested {
				log.WithFields(logrus.Fields{"requestedId": requested, "id": c.ID}).Warn("id taken, comment stored under a new id")
			} else {
				log.WithField("id", c.ID).Info("comment created")
			}
			return nil
		}
		if !errors.Is(err, store.ErrConditionFailed) {
			return err
		}

		existing, err := w.db.Get(ctx, c.ID)
		if errors.Is(err, store.ErrNotFound) {
			// removed since the put; try the same id again
			continue
		}
		if err != nil {
			return fmt.Errorf("could not read conflicting comment: %w", err)
		}
		if existing == c {
			log.WithField("id", c.ID).Info("duplicate delivery, comment already stored")
			return nil
		}

		c.ID, err = comment.NextID(c.ID)
		if err != nil {
			return err
		}
	}
	return fmt.Errorf("could not find a free id after %d attempts", store.MaxInsertAttempts)
}

func (w *Writer) update(ctx context.Context, log logrus.FieldLogger, raw string) error {

	var ch change
	if err := decode(raw, &ch); err != nil {
		return err
	}
	log = log.WithFields(logrus.Fields{"id": ch.ID, "userId": ch.UserID})

	_, err := w.db.UpdateContent(ctx, ch.ID, ch.UserID, ch.Content, ch.UpdatedAt)
	if errors.Is(err, store.ErrConditionFailed) {
		log.Info("comment gone or not owned, update skipped")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("comment updated")
	return nil
}

func (w *Writer) delete(ctx context.Context, log logrus.FieldLogger, raw string) error {

	var rm removal
	if err := decode(raw, &rm); err != nil {
		return err
	}
	log = log.WithFields(logrus.Fields{"id": rm.ID, "userId": rm.UserID})

	err := w.db.DeleteOwned(ctx, rm.ID, rm.UserID)
	if errors.Is(err, store.ErrConditionFailed) {
		log.Info("comment gone or not owned, delete skipped")
		return nil
	}
	if err != nil {
		return err
	}

	log.Info("comment deleted")
	return nil
}
