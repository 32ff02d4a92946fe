// Package asyncapi serves comment CRUD for identified users and hands writes to SQS.
// Existence and ownership are checked before a write is queued; the writer function applies it.
package asyncapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/comments/internal/claims"
	"github.com/UKHomeOffice/comments/internal/comment"
	"github.com/UKHomeOffice/comments/internal/queue"
	"github.com/UKHomeOffice/comments/internal/response"
	"github.com/UKHomeOffice/comments/internal/validate"
)

// Reader is the read side of the table
type Reader interface {
	Get(context.Context, string) (comment.Comment, error)
	List(context.Context) ([]comment.Comment, error)
}

// Publisher queues writes
type Publisher interface {
	Publish(context.Context, queue.Message) (string, error)
}

// Handler handles comment requests
type Handler struct {
	db  Reader
	mq  Publisher
	log logrus.FieldLogger
	now func() time.Time
}

// NewHandler returns a new Handler
func NewHandler(r Reader, p Publisher, log logrus.FieldLogger) *Handler {
	return &Handler{db: r, mq: p, log: log, now: time.Now}
}

// Handle dispatches on the HTTP method. Writes are answered with 202 once queued.
func (h *Handler) Handle(ctx context.Context, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	id := request.PathParameters["id"]
	method := strings.ToUpper(request.HTTPMethod)
	log := h.log.WithFields(logrus.Fields{"method": method, "id": id})

	var (
		res events.APIGatewayProxyResponse
		err error
	)
	switch method {
	case http.MethodGet:
		if id == "" {
			res, err = h.list(ctx)
		} else {
			res, err = h.get(ctx, id)
		}
	case http.MethodPost:
		res, err = h.create(ctx, log, request)
	case http.MethodPut:
		res, err = h.update(ctx, log, id, request)
	case http.MethodDelete:
		res, err = h.delete(ctx, log, id, request)
	default:
		return response.Message(http.StatusMethodNotAllowed, "method not allowed"), nil
	}
	if err != nil {
		return response.Error(log, err), nil
	}
	return res, nil
}

func (h *Handler) get(ctx context.Context, id string) (events.APIGatewayProxyResponse, error) {
	c, err := h.db.Get(ctx, id)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusOK, c), nil
}

func (h *Handler) list(ctx context.Context) (events.APIGatewayProxyResponse, error) {
	cs, err := h.db.List(ctx)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusOK, cs), nil
}

func (h *Handler) publish(ctx context.Context, log logrus.FieldLogger, action queue.Action, c comment.Comment) error {
	mid, err := h.mq.Publish(ctx, queue.Message{Action: action, Comment: c})
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"action": action, "id": c.ID, "messageId": mid}).Info("write queued")
	return nil
}

func (h *Handler) create(ctx context.Context, log logrus.FieldLogger, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	ident, err := claims.FromRequest(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	var in comment.ContentInput
	if err := validate.Decode(request.Body, &in); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	c := comment.New(h.now(), in.Content, ident.DisplayName())
	c.UserID = ident.UserID
	c.Email = ident.Email

	if err := h.publish(ctx, log, queue.Create, c); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusAccepted, c), nil
}

// owned loads a comment and checks the caller owns it
func (h *Handler) owned(ctx context.Context, id string, ident claims.Identity) (comment.Comment, error) {
	c, err := h.db.Get(ctx, id)
	if err != nil {
		return comment.Comment{}, err
	}
	if err := ident.Authorize(c.UserID); err != nil {
		return comment.Comment{}, err
	}
	return c, nil
}

func (h *Handler) update(ctx context.Context, log logrus.FieldLogger, id string, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	if id == "" {
		return events.APIGatewayProxyResponse{}, response.ErrMissingID
	}

	ident, err := claims.FromRequest(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	var in comment.ContentInput
	if err := validate.Decode(request.Body, &in); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	c, err := h.owned(ctx, id, ident)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	c.Content = in.Content
	c.UpdatedAt = comment.Timestamp(h.now())

	if err := h.publish(ctx, log, queue.Update, c); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusAccepted, c), nil
}

func (h *Handler) delete(ctx context.Context, log logrus.FieldLogger, id string, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	if id == "" {
		return events.APIGatewayProxyResponse{}, response.ErrMissingID
	}

	ident, err := claims.FromRequest(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	c, err := h.owned(ctx, id, ident)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	if err := h.publish(ctx, log, queue.Delete, c); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.Message(http.StatusAccepted, "comment deletion accepted"), nil
}
