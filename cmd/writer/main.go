// Function writer starts a DynamoDB session and hands over to package writer.
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
	"github.com/UKHomeOffice/comments/pkg/writer"
)

var w *writer.Writer

func init() {
	cfg := config.Load()
	sess := session.Must(session.NewSessionWithOptions(session.Options{
		SharedConfigState: session.SharedConfigEnable,
	}))
	ddb := dynamodb.New(sess, cfg.AWS())
	w = writer.NewWriter(store.New(ddb, cfg.TableName), logging.New("writer", cfg.LogLevel))
}

func handler(ctx context.Context, sqsEvent *events.SQSEvent) (events.SQSEventResponse, error) {
	return w.Process(ctx, sqsEvent)
}

func main() {
	lambda.Start(handler)
}
