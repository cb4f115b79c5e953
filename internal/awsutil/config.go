// Package awsutil provides utilities for loading AWS configuration and DynamoDB clients.
package awsutil

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// Load loads the default AWS configuration for region.
func Load(ctx context.Context, region string) (aws.Config, error) {
	return awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
}

// DynamoDB builds a DynamoDB client. A non-empty endpoint (e.g. http://localhost:8000
// for DynamoDB Local, or a LocalStack URL) replaces the regional endpoint.
func DynamoDB(cfg aws.Config, endpoint string) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
}
