// Function asyncapi starts DynamoDB and SQS sessions and hands over to package asyncapi.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/UKHomeOffice/comments/internal/config"
	"github.com/UKHomeOffice/comments/internal/logging"
	"github.com/UKHomeOffice/comments/internal/queue"
	"github.com/UKHomeOffice/comments/internal/store"
	"github.com/UKHomeOffice/comments/pkg/asyncapi"
)

var h *asyncapi.Handler

func init() {
	cfg := config.Load()
	log := logging.New("asyncapi", cfg.LogLevel)
	if err := cfg.RequireQueue(); err != nil {
		log.WithError(err).Fatal("could not start")
	}

	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ddb := dynamodb.New(sess, cfg.AWS())
	esqs := sqs.New(sess, cfg.AWS())
	h = asyncapi.NewHandler(store.New(ddb, cfg.TableName), queue.NewPublisher(esqs, cfg.QueueURL), log)
}

func handler(ctx context.Context, req *events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	return h.Handle(ctx, req)
}

func main() {
	lambda.Start(handler)
}
