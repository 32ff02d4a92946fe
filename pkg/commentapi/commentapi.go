// Package commentapi serves open comment CRUD over API Gateway.
// Callers name the author themselves and any caller may change or delete any comment.
package commentapi

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/comments/internal/comment"
	"github.com/UKHomeOffice/comments/internal/response"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/internal/validate"
)

// Store is the table abstraction (helpful for testing)
type Store interface {
	Get(context.Context, string) (comment.Comment, error)
	List(context.Context) ([]comment.Comment, error)
	Create(context.Context, comment.Comment) error
	Patch(context.Context, string, store.Patch) (comment.Comment, error)
	Delete(context.Context, string) error
}

// Handler handles comment requests
type Handler struct {
	db  Store
	log logrus.FieldLogger
	now func() time.Time
}

// NewHandler returns a new Handler
func NewHandler(s Store, log logrus.FieldLogger) *Handler {
	return &Handler{db: s, log: log, now: time.Now}
}

// Handle dispatches on the HTTP method
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
		res, err = h.create(ctx, log, request.Body)
	case http.MethodPut:
		res, err = h.update(ctx, id, request.Body)
	case http.MethodDelete:
		res, err = h.delete(ctx, log, id)
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

func (h *Handler) create(ctx context.Context, log logrus.FieldLogger, body string) (events.APIGatewayProxyResponse, error) {

	var in comment.CreateInput
	if err := validate.Decode(body, &in); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	c, err := store.Insert(ctx, h.db, comment.New(h.now(), in.Content, in.Author))
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	log.WithField("id", c.ID).Info("comment created")
	return response.JSON(http.StatusCreated, c), nil
}

func (h *Handler) update(ctx context.Context, id, body string) (events.APIGatewayProxyResponse, error) {

	if id == "" {
		return events.APIGatewayProxyResponse{}, response.ErrMissingID
	}

	var in comment.PatchInput
	if err := validate.Decode(body, &in); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	c, err := h.db.Patch(ctx, id, store.Patch{
		Content:   in.Content,
		Author:    in.Author,
		UpdatedAt: comment.Timestamp(h.now()),
	})
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusOK, c), nil
}

func (h *Handler) delete(ctx context.Context, log logrus.FieldLogger, id string) (events.APIGatewayProxyResponse, error) {

	if id == "" {
		return events.APIGatewayProxyResponse{}, response.ErrMissingID
	}

	if err := h.db.Delete(ctx, id); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	log.Info("comment deleted")
	return response.Message(http.StatusOK, "comment deleted"), nil
}
