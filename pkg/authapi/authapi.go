// Package authapi serves comment CRUD for identified users.
// Authors come from identity claims and only the owner may change or delete a comment.
package authapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"github.com/UKHomeOffice/comments/internal/claims"
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
	UpdateContent(ctx context.Context, id, userID, content, updatedAt string) (comment.Comment, error)
	DeleteOwned(ctx context.Context, id, userID string) error
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

// Handle dispatches on the HTTP method. Reads are public, writes need an identity.
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
		res, err = h.update(ctx, id, request)
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

	c, err = store.Insert(ctx, h.db, c)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	log.WithFields(logrus.Fields{"id": c.ID, "userId": c.UserID}).Info("comment created")
	return response.JSON(http.StatusCreated, c), nil
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

func (h *Handler) update(ctx context.Context, id string, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

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

	if _, err := h.owned(ctx, id, ident); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	// owner is immutable, so a failed condition here means the comment went away
	c, err := h.db.UpdateContent(ctx, id, ident.UserID, in.Content, comment.Timestamp(h.now()))
	if errors.Is(err, store.ErrConditionFailed) {
		return events.APIGatewayProxyResponse{}, store.ErrNotFound
	}
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	return response.JSON(http.StatusOK, c), nil
}

func (h *Handler) delete(ctx context.Context, log logrus.FieldLogger, id string, request *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {

	if id == "" {
		return events.APIGatewayProxyResponse{}, response.ErrMissingID
	}

	ident, err := claims.FromRequest(request)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	if _, err := h.owned(ctx, id, ident); err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	err = h.db.DeleteOwned(ctx, id, ident.UserID)
	if errors.Is(err, store.ErrConditionFailed) {
		return events.APIGatewayProxyResponse{}, store.ErrNotFound
	}
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	log.WithField("userId", ident.UserID).Info("comment deleted")
	return response.Message(http.StatusOK, "comment deleted"), nil
}
