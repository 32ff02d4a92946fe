// Function commentapi starts a DynamoDB session and hands over to package commentapi.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"

	"github.com/UKHomeOffice/comments/internal/config"
	"github.com/UKHomeOffice/comments/internal/logging"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/pkg/commentapi"
)

var h *commentapi.Handler

func init() {
	cfg := config.Load()
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ddb := dynamodb.New(sess, cfg.AWS())
	h = commentapi.NewHandler(store.New(ddb, cfg.TableName), logging.New("commentapi", cfg.LogLevel))
}

func handler(ctx context.Context, req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.Handle(ctx, req)
}

func main() {
	lambda.Start(handler)
}
