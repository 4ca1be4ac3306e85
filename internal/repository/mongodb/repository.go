package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/broadcaster/internal/domain/models"
)

var (
	// ErrReportNotFound is returned when no broadcast report matches the id.
	ErrReportNotFound = errors.New("broadcast report not found")

	// ErrTemplateNotFound is returned when no template matches the element name.
	ErrTemplateNotFound = errors.New("template not found")
)

const (
	reportsCollection   = "broadcast_reports"
	templatesCollection = "templates"
)

// Repository defines the storage used around broadcast runs.
type Repository interface {
	SaveBroadcastReport(ctx context.Context, report models.BroadcastReport) error
	FindBroadcastReport(ctx context.Context, id string) (*models.BroadcastReport, error)
	FindTemplate(ctx context.Context, elementName string) (*models.Template, error)
}

// MongoDBRepository implements the Repository interface for MongoDB.
type MongoDBRepository struct {
	client *mongo.Client
	dbName string
}

// NewMongoDBRepository creates a new MongoDB repository.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string) (*MongoDBRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoDBRepository{
		client: client,
		dbName: dbName,
	}, nil
}

func (r *MongoDBRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.dbName).Collection(name)
}

// SaveBroadcastReport upserts a broadcast report by id.
func (r *MongoDBRepository) SaveBroadcastReport(ctx context.Context, report models.BroadcastReport) error {
	_, err := r.collection(reportsCollection).ReplaceOne(ctx,
		bson.M{"_id": report.ID},
		report,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to save broadcast report %s: %w", report.ID, err)
	}
	return nil
}

// FindBroadcastReport loads a broadcast report by id.
func (r *MongoDBRepository) FindBroadcastReport(ctx context.Context, id string) (*models.BroadcastReport, error) {
	var report models.BroadcastReport
	err := r.collection(reportsCollection).FindOne(ctx, bson.M{"_id": id}).Decode(&report)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrReportNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load broadcast report %s: %w", id, err)
	}
	return &report, nil
}

// FindTemplate loads an approved template by its element name.
func (r *MongoDBRepository) FindTemplate(ctx context.Context, elementName string) (*models.Template, error) {
	var tpl models.Template
	err := r.collection(templatesCollection).FindOne(ctx, bson.M{"element_name": elementName}).Decode(&tpl)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, elementName)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load template %s: %w", elementName, err)
	}
	return &tpl, nil
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
