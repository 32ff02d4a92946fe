// Package claims reads the caller's identity from the API Gateway authorizer context.
// Tokens are verified before the request reaches a function, so claims are trusted as given.
package claims

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/tidwall/gjson"
)

// MaxNameLength bounds the derived display name
const MaxNameLength = 50

var (
	// ErrMissing is returned when a request carries no usable identity
	ErrMissing = errors.New("missing identity claims")
	// ErrForbidden is returned when the caller does not own the resource
	ErrForbidden = errors.New("caller does not own the resource")
)

// Identity is the verified caller
type Identity struct {
	UserID   string
	Email    string
	Name     string
	Username string
}

// claim locations, in order: Cognito user pool authorizer, HTTP API JWT authorizer, Lambda authorizer context
var prefixes = []string{"claims.", "jwt.claims.", ""}

// FromRequest extracts the identity of the caller
func FromRequest(request *events.APIGatewayProxyRequest) (Identity, error) {

	if len(request.RequestContext.Authorizer) == 0 {
		return Identity{}, ErrMissing
	}

	raw, err := json.Marshal(request.RequestContext.Authorizer)
	if err != nil {
		return Identity{}, ErrMissing
	}
	input := string(raw)

	for _, p := range prefixes {
		sub := gjson.Get(input, p+"sub")
		if sub.String() == "" {
			continue
		}
		return Identity{
			UserID:   sub.String(),
			Email:    gjson.Get(input, p+"email").String(),
			Name:     gjson.Get(input, p+"name").String(),
			Username: gjson.Get(input, p+"cognito:username").String(),
		}, nil
	}
	return Identity{}, ErrMissing
}

// DisplayName picks the name shown as a comment's author
func (i Identity) DisplayName() string {
	var name string
	switch {
	case strings.TrimSpace(i.Name) != "":
		name = strings.TrimSpace(i.Name)
	case i.Username != "":
		name = i.Username
	case i.Email != "":
		name, _, _ = strings.Cut(i.Email, "@")
	}
	if name == "" {
		name = i.UserID
	}
	return truncate(name, MaxNameLength)
}

// Authorize checks the caller is the owner
func (i Identity) Authorize(ownerID string) error {
	if ownerID == "" || ownerID != i.UserID {
		return ErrForbidden
	}
	return nil
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
