// Package storage opens the claims repository named by a connection string.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/kylejryan/vehicle-claims-api/internal/awsutil"
	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/config"
	"github.com/kylejryan/vehicle-claims-api/internal/ddb"
	"github.com/kylejryan/vehicle-claims-api/internal/memory"
	"github.com/kylejryan/vehicle-claims-api/internal/mongostore"
)

// ErrUnsupportedScheme is returned for connection strings no backend understands.
var ErrUnsupportedScheme = errors.New("storage: unsupported DATABASE_URL scheme")

// Backend is an opened repository together with its connection lifecycle.
type Backend interface {
	claims.Repository
	io.Closer
}

// Migrator is implemented by backends that can prepare their table or indexes.
type Migrator interface {
	Migrate(ctx context.Context) error
}

// Open connects to the repository described by e.DatabaseURL.
func Open(ctx context.Context, e config.Env) (Backend, error) {
	u, err := url.Parse(e.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}

	switch u.Scheme {
	case "mongodb", "mongodb+srv":
		db := strings.Trim(u.Path, "/")
		if db == "" {
			db = e.MongoDatabase
		}
		s, err := mongostore.Open(ctx, e.DatabaseURL, db, e.MongoCollection)
		if err != nil {
			return nil, err
		}
		return s, nil

	case "dynamodb":
		table := u.Host
		if table == "" {
			return nil, errors.New("storage: dynamodb:// URL needs a table name, e.g. dynamodb://claims")
		}
		region := e.Region
		if r := u.Query().Get("region"); r != "" {
			region = r
		}
		cfg, err := awsutil.Load(ctx, region)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return &dynamoBackend{Repo: &ddb.Repo{DB: awsutil.DynamoDB(cfg, e.AWSEndpoint), Table: table}}, nil

	case "memory":
		return memory.NewStore(), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
}

// dynamoBackend adds the Closer the SDK client does not need.
type dynamoBackend struct {
	*ddb.Repo
}

func (dynamoBackend) Close() error { return nil }
