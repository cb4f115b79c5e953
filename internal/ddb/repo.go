// Package ddb provides a DynamoDB-backed claims.Repository.
package ddb

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/oklog/ulid/v2"
)

// API is the subset of the DynamoDB client used by Repo.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// Repo stores one claim per item in Table, keyed by the string attribute "id".
type Repo struct {
	DB    API
	Table string
}

func (r *Repo) NewID() string { return ulid.Make().String() }

func (r *Repo) ValidID(id string) bool {
	_, err := ulid.ParseStrict(id)
	return err == nil
}

// Insert writes a new claim, refusing to overwrite an existing id.
func (r *Repo) Insert(ctx context.Context, c models.Claim) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           &r.Table,
		Item:                item,
		ConditionExpression: awsStr("attribute_not_exists(id)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return claims.ErrConflict
	}
	return err
}

// List scans the whole table.
func (r *Repo) List(ctx context.Context) ([]models.Claim, error) {
	out := []models.Claim{}
	paginator := dynamodb.NewScanPaginator(r.DB, &dynamodb.ScanInput{TableName: &r.Table})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		var batch []models.Claim
		if err := attributevalue.UnmarshalListOfMaps(page.Items, &batch); err != nil {
			return nil, fmt.Errorf("unmarshal claims: %w", err)
		}
		out = append(out, batch...)
	}
	return out, nil
}

// Get reads one claim with a strongly consistent read.
func (r *Repo) Get(ctx context.Context, id string) (models.Claim, error) {
	res, err := r.DB.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      &r.Table,
		Key:            key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return models.Claim{}, err
	}
	if res.Item == nil {
		return models.Claim{}, claims.ErrNotFound
	}
	var c models.Claim
	if err := attributevalue.UnmarshalMap(res.Item, &c); err != nil {
		return models.Claim{}, fmt.Errorf("unmarshal claim: %w", err)
	}
	return c, nil
}

// Replace overwrites the claim only while the stored version equals prevVersion.
func (r *Repo) Replace(ctx context.Context, c models.Claim, prevVersion int64) error {
	item, err := attributevalue.MarshalMap(c)
	if err != nil {
		return fmt.Errorf("marshal claim: %w", err)
	}
	_, err = r.DB.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                &r.Table,
		Item:                     item,
		ConditionExpression:      awsStr("attribute_exists(id) AND #version = :expected_version"),
		ExpressionAttributeNames: map[string]string{"#version": "version"},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":expected_version": &types.AttributeValueMemberN{Value: strconv.FormatInt(prevVersion, 10)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		// The old item comes back only if it still exists.
		if len(condErr.Item) == 0 {
			return claims.ErrNotFound
		}
		return claims.ErrConflict
	}
	return err
}

// Delete removes the claim, reporting ErrNotFound when there was nothing to remove.
func (r *Repo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           &r.Table,
		Key:                 key(id),
		ConditionExpression: awsStr("attribute_exists(id)"),
	})
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return claims.ErrNotFound
	}
	return err
}

// Ping describes the table, which fails if the endpoint or the table is unreachable.
func (r *Repo) Ping(ctx context.Context) error {
	_, err := r.DB.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: &r.Table})
	return err
}

// Migrate creates the claims table with on-demand billing if it does not exist yet.
func (r *Repo) Migrate(ctx context.Context) error {
	err := r.Ping(ctx)
	if err == nil {
		return nil
	}
	var nf *types.ResourceNotFoundException
	if !errors.As(err, &nf) {
		return fmt.Errorf("describe table %s: %w", r.Table, err)
	}

	_, err = r.DB.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: &r.Table,
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: awsStr("id"), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: awsStr("id"), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", r.Table, err)
	}
	return nil
}

// key builds the primary key for a claim id.
func key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}}
}

// awsStr is a helper to get a pointer to a string literal.
func awsStr(s string) *string { return &s }
