package mongo

import (
	"context"

	"github.com/robertarktes/flight-bookings-and-pricing/internal/observability"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CatalogRepository serves the airport and airline reference directory.
type CatalogRepository struct {
	airports *mongo.Collection
	airlines *mongo.Collection
	logger   observability.Logger
}

func NewCatalogRepository(db *mongo.Database, logger observability.Logger) *CatalogRepository {
	return &CatalogRepository{
		airports: db.Collection("airports"),
		airlines: db.Collection("airlines"),
		logger:   logger,
	}
}

type AirportDoc struct {
	Code    string `bson:"_id" json:"code"`
	Name    string `bson:"name" json:"name"`
	City    string `bson:"city" json:"city"`
	Country string `bson:"country" json:"country"`
}

type AirlineDoc struct {
	Code string `bson:"_id" json:"code"`
	Name string `bson:"name" json:"name"`
}

func (c *CatalogRepository) ListAirports(ctx context.Context) ([]AirportDoc, error) {
	cur, err := c.airports.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		c.logger.Error("failed to list airports", err)
		return nil, err
	}
	var airports []AirportDoc
	if err := cur.All(ctx, &airports); err != nil {
		return nil, err
	}
	return airports, nil
}

func (c *CatalogRepository) ListAirlines(ctx context.Context) ([]AirlineDoc, error) {
	cur, err := c.airlines.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		c.logger.Error("failed to list airlines", err)
		return nil, err
	}
	var airlines []AirlineDoc
	if err := cur.All(ctx, &airlines); err != nil {
		return nil, err
	}
	return airlines, nil
}

func (c *CatalogRepository) UpsertAirport(ctx context.Context, doc AirportDoc) error {
	_, err := c.airports.ReplaceOne(ctx, bson.M{"_id": doc.Code}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		c.logger.Error("failed to upsert airport", err)
	}
	return err
}

func (c *CatalogRepository) UpsertAirline(ctx context.Context, doc AirlineDoc) error {
	_, err := c.airlines.ReplaceOne(ctx, bson.M{"_id": doc.Code}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		c.logger.Error("failed to upsert airline", err)
	}
	return err
}
