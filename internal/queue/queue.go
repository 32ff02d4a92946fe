// Package queue publishes comment writes to SQS for the writer function to apply.
package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/UKHomeOffice/comments/internal/comment"
)

// Action names the write a message carries
type Action string

// Actions understood by the writer
const (
	Create Action = "create"
	Update Action = "update"
	Delete Action = "delete"
)

// ActionAttribute is the SQS message attribute holding the action
const ActionAttribute = "action"

// Message is the body of a queued write
type Message struct {
	Action  Action          `json:"action"`
	Comment comment.Comment `json:"comment"`
}

// Messenger is an abstraction for a SQS client
type Messenger interface {
	SendMessageWithContext(aws.Context, *sqs.SendMessageInput, ...request.Option) (*sqs.SendMessageOutput, error)
}

// Publisher writes messages to one queue
type Publisher struct {
	sqs Messenger
	url string
}

// NewPublisher returns a Publisher for the queue at url
func NewPublisher(m Messenger, url string) *Publisher {
	return &Publisher{sqs: m, url: url}
}

// Publish sends msg and returns the SQS message id
func (p *Publisher) Publish(ctx context.Context, msg Message) (string, error) {

	sm, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("could not marshal SQS payload: %w", err)
	}

	in := sqs.SendMessageInput{
		MessageBody: aws.String(string(sm)),
		QueueUrl:    aws.String(p.url),
		MessageAttributes: map[string]*sqs.MessageAttributeValue{
			ActionAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(msg.Action)),
			},
		},
	}

	out, err := p.sqs.SendMessageWithContext(ctx, &in)
	if err != nil {
		return "", fmt.Errorf("could not publish %s message: %w", msg.Action, err)
	}

	return aws.StringValue(out.MessageId), nil
}
