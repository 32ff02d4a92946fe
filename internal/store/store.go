// Package store reads and writes comments in DynamoDB.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/aws/aws-sdk-go/service/dynamodb/expression"

	"github.com/UKHomeOffice/comments/internal/comment"
)

var (
	// ErrNotFound is returned when no comment has the requested id
	ErrNotFound = errors.New("comment not found")
	// ErrConditionFailed is returned when a conditional write is rejected
	ErrConditionFailed = errors.New("condition failed")
)

// DB is the subset of the DynamoDB client used here
type DB interface {
	GetItemWithContext(aws.Context, *dynamodb.GetItemInput, ...request.Option) (*dynamodb.GetItemOutput, error)
	PutItemWithContext(aws.Context, *dynamodb.PutItemInput, ...request.Option) (*dynamodb.PutItemOutput, error)
	UpdateItemWithContext(aws.Context, *dynamodb.UpdateItemInput, ...request.Option) (*dynamodb.UpdateItemOutput, error)
	DeleteItemWithContext(aws.Context, *dynamodb.DeleteItemInput, ...request.Option) (*dynamodb.DeleteItemOutput, error)
	ScanPagesWithContext(aws.Context, *dynamodb.ScanInput, func(*dynamodb.ScanOutput, bool) bool, ...request.Option) error
}

// Table is the comments table
type Table struct {
	ddb  DB
	name string
}

// Patch lists the fields an open update may change
type Patch struct {
	Content   *string
	Author    *string
	UpdatedAt string
}

// New returns a Table backed by ddb
func New(ddb DB, name string) *Table {
	return &Table{ddb: ddb, name: name}
}

func key(id string) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"id": {
			S: aws.String(id),
		},
	}
}

func conditionFailed(err error) bool {
	var aerr awserr.Error
	return errors.As(err, &aerr) && aerr.Code() == dynamodb.ErrCodeConditionalCheckFailedException
}

// Get returns the comment with the given id
func (t *Table) Get(ctx context.Context, id string) (comment.Comment, error) {

	input := &dynamodb.GetItemInput{
		TableName:      aws.String(t.name),
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	}

	resp, err := t.ddb.GetItemWithContext(ctx, input)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("could not get item: %w", err)
	}
	if len(resp.Item) == 0 {
		return comment.Comment{}, ErrNotFound
	}

	var c comment.Comment
	err = dynamodbattribute.UnmarshalMap(resp.Item, &c)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("could not unmarshal item: %w", err)
	}
	return c, nil
}

// List returns every comment, oldest first
func (t *Table) List(ctx context.Context) ([]comment.Comment, error) {

	input := &dynamodb.ScanInput{
		TableName: aws.String(t.name),
	}

	out := make([]comment.Comment, 0)
	var uerr error
	err := t.ddb.ScanPagesWithContext(ctx, input, func(page *dynamodb.ScanOutput, last bool) bool {
		var cs []comment.Comment
		if uerr = dynamodbattribute.UnmarshalListOfMaps(page.Items, &cs); uerr != nil {
			return false
		}
		out = append(out, cs...)
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("could not scan table: %w", err)
	}
	if uerr != nil {
		return nil, fmt.Errorf("could not unmarshal items: %w", uerr)
	}

	SortOldestFirst(out)
	return out, nil
}

// SortOldestFirst orders comments by creation time, then id
func SortOldestFirst(cs []comment.Comment) {
	sort.SliceStable(cs, func(i, j int) bool {
		if cs[i].CreatedAt == cs[j].CreatedAt {
			return cs[i].ID < cs[j].ID
		}
		return cs[i].CreatedAt < cs[j].CreatedAt
	})
}

// Create writes a new comment, failing with ErrConditionFailed if the id is taken
func (t *Table) Create(ctx context.Context, c comment.Comment) error {

	item, err := dynamodbattribute.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("could not marshal db record: %w", err)
	}

	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeNotExists(expression.Name("id"))).
		Build()
	if err != nil {
		return fmt.Errorf("could not build condition: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName:                aws.String(t.name),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	}

	_, err = t.ddb.PutItemWithContext(ctx, input)
	if conditionFailed(err) {
		return ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("could not put to db: %w", err)
	}
	return nil
}

// Patch sets the given fields on an existing comment and returns the result
func (t *Table) Patch(ctx context.Context, id string, p Patch) (comment.Comment, error) {

	update := expression.Set(expression.Name("updatedAt"), expression.Value(p.UpdatedAt))
	if p.Content != nil {
		update = update.Set(expression.Name("content"), expression.Value(*p.Content))
	}
	if p.Author != nil {
		update = update.Set(expression.Name("author"), expression.Value(*p.Author))
	}

	c, err := t.update(ctx, id, update, expression.AttributeExists(expression.Name("id")))
	if errors.Is(err, ErrConditionFailed) {
		return comment.Comment{}, ErrNotFound
	}
	return c, err
}

// UpdateContent replaces the content of a comment owned by userID
func (t *Table) UpdateContent(ctx context.Context, id, userID, content, updatedAt string) (comment.Comment, error) {

	update := expression.
		Set(expression.Name("content"), expression.Value(content)).
		Set(expression.Name("updatedAt"), expression.Value(updatedAt))

	cond := expression.AttributeExists(expression.Name("id")).
		And(expression.Name("userId").Equal(expression.Value(userID)))

	return t.update(ctx, id, update, cond)
}

func (t *Table) update(ctx context.Context, id string, update expression.UpdateBuilder, cond expression.ConditionBuilder) (comment.Comment, error) {

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(cond).Build()
	if err != nil {
		return comment.Comment{}, fmt.Errorf("could not build update: %w", err)
	}

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(t.name),
		Key:                       key(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              aws.String(dynamodb.ReturnValueAllNew),
	}

	resp, err := t.ddb.UpdateItemWithContext(ctx, input)
	if conditionFailed(err) {
		return comment.Comment{}, ErrConditionFailed
	}
	if err != nil {
		return comment.Comment{}, fmt.Errorf("could not update db: %w", err)
	}

	var c comment.Comment
	err = dynamodbattribute.UnmarshalMap(resp.Attributes, &c)
	if err != nil {
		return comment.Comment{}, fmt.Errorf("could not unmarshal item: %w", err)
	}
	return c, nil
}

// Delete removes a comment whether or not it exists
func (t *Table) Delete(ctx context.Context, id string) error {

	input := &dynamodb.DeleteItemInput{
		TableName: aws.String(t.name),
		Key:       key(id),
	}

	_, err := t.ddb.DeleteItemWithContext(ctx, input)
	if err != nil {
		return fmt.Errorf("could not delete from db: %w", err)
	}
	return nil
}

// DeleteOwned removes a comment only if userID owns it
func (t *Table) DeleteOwned(ctx context.Context, id, userID string) error {

	expr, err := expression.NewBuilder().
		WithCondition(expression.Name("userId").Equal(expression.Value(userID))).
		Build()
	if err != nil {
		return fmt.Errorf("could not build condition: %w", err)
	}

	input := &dynamodb.DeleteItemInput{
		TableName:                 aws.String(t.name),
		Key:                       key(id),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	}

	_, err = t.ddb.DeleteItemWithContext(ctx, input)
	if conditionFailed(err) {
		return ErrConditionFailed
	}
	if err != nil {
		return fmt.Errorf("could not delete from db: %w", err)
	}
	return nil
}
