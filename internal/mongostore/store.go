// Package mongostore provides a MongoDB-backed claims.Repository.
//
// Documents use the same camelCase field names as the JSON API, with the
// claim id stored as a native ObjectID in _id.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kylejryan/vehicle-claims-api/internal/claims"
	"github.com/kylejryan/vehicle-claims-api/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// document is the stored shape of a claim.
type document struct {
	ID                 primitive.ObjectID `bson:"_id,omitempty"`
	CompanyReference   string             `bson:"companyReference"`
	PolicyNumber       string             `bson:"policyNumber"`
	IncidentDate       time.Time          `bson:"incidentDate"`
	DamageToVehicle    string             `bson:"damageToVehicle"`
	RegistrationNumber string             `bson:"registrationNumber"`
	Status             string             `bson:"status"`
	CreatedAt          time.Time          `bson:"createdAt"`
	UpdatedAt          time.Time          `bson:"updatedAt"`
	Version            int64              `bson:"__v"`
}

func toDocument(c models.Claim) (document, error) {
	oid, err := primitive.ObjectIDFromHex(c.ID)
	if err != nil {
		return document{}, fmt.Errorf("%w: %s", claims.ErrInvalidID, c.ID)
	}
	return document{
		ID:                 oid,
		CompanyReference:   c.CompanyReference,
		PolicyNumber:       c.PolicyNumber,
		IncidentDate:       c.IncidentDate,
		DamageToVehicle:    c.DamageToVehicle,
		RegistrationNumber: c.RegistrationNumber,
		Status:             string(c.Status),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
		Version:            c.Version,
	}, nil
}

func (d document) claim() models.Claim {
	return models.Claim{
		ID:                 d.ID.Hex(),
		CompanyReference:   d.CompanyReference,
		PolicyNumber:       d.PolicyNumber,
		IncidentDate:       d.IncidentDate.UTC(),
		DamageToVehicle:    d.DamageToVehicle,
		RegistrationNumber: d.RegistrationNumber,
		Status:             models.ClaimStatus(d.Status),
		CreatedAt:          d.CreatedAt.UTC(),
		UpdatedAt:          d.UpdatedAt.UTC(),
		Version:            d.Version,
	}
}

// Store is a claims.Repository over a single MongoDB collection.
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// Open connects to uri and returns a Store over database.collection.
// The connection is verified with a primary ping before returning.
func Open(ctx context.Context, uri, database, collection string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &Store{client: client, coll: client.Database(database).Collection(collection)}, nil
}

// Close disconnects the underlying client.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) NewID() string { return primitive.NewObjectID().Hex() }

func (s *Store) ValidID(id string) bool { return primitive.IsValidObjectID(id) }

func (s *Store) Insert(ctx context.Context, c models.Claim) error {
	doc, err := toDocument(c)
	if err != nil {
		return err
	}
	_, err = s.coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return claims.ErrConflict
	}
	return err
}

func (s *Store) List(ctx context.Context) ([]models.Claim, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]models.Claim, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.claim())
	}
	return out, nil
}

func (s *Store) Get(ctx context.Context, id string) (models.Claim, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return models.Claim{}, fmt.Errorf("%w: %s", claims.ErrInvalidID, id)
	}
	var d document
	err = s.coll.FindOne(ctx, bson.D{{Key: "_id", Value: oid}}).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.Claim{}, claims.ErrNotFound
	}
	if err != nil {
		return models.Claim{}, err
	}
	return d.claim(), nil
}

// Replace swaps the whole document in one atomic operation, matching on both _id and __v.
func (s *Store) Replace(ctx context.Context, c models.Claim, prevVersion int64) error {
	doc, err := toDocument(c)
	if err != nil {
		return err
	}
	res, err := s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}, {Key: "__v", Value: prevVersion}}, doc)
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}

	n, err := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: doc.ID}}, options.Count().SetLimit(1))
	if err != nil {
		return err
	}
	if n == 0 {
		return claims.ErrNotFound
	}
	return claims.ErrConflict
}

func (s *Store) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("%w: %s", claims.ErrInvalidID, id)
	}
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return claims.ErrNotFound
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Migrate creates the createdAt index used to order listings.
func (s *Store) Migrate(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "createdAt", Value: 1}},
		Options: options.Index().SetName("createdAt_1"),
	})
	if err != nil {
		return fmt.Errorf("create createdAt index: %w", err)
	}
	return nil
}
