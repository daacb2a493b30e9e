package bins

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/warebin/warebin/internal/platform/httpx"
)

const collectionName = "warehouse_bins"

// Repository implements Store against a MongoDB collection.
type Repository struct {
	coll *mongo.Collection
}

// NewRepository builds the Mongo-backed store.
func NewRepository(client *mongo.Client, dbName string) *Repository {
	return &Repository{coll: client.Database(dbName).Collection(collectionName)}
}

type binDocument struct {
	ID           string    `bson:"_id"`
	BinNumber    string    `bson:"bin_number"`
	Location     string    `bson:"location"`
	Capacity     int       `bson:"capacity"`
	CurrentStock int       `bson:"current_stock"`
	Status       string    `bson:"status"`
	Barcode      string    `bson:"barcode"`
	LastUpdated  time.Time `bson:"last_updated"`
	CreatedAt    time.Time `bson:"created_at"`
}

func toDocument(bin Bin) binDocument {
	return binDocument{
		ID:           bin.ID,
		BinNumber:    bin.BinNumber,
		Location:     bin.Location,
		Capacity:     bin.Capacity,
		CurrentStock: bin.CurrentStock,
		Status:       string(bin.Status),
		Barcode:      bin.Barcode,
		LastUpdated:  bin.LastUpdated,
		CreatedAt:    bin.CreatedAt,
	}
}

func (d binDocument) toBin() Bin {
	return Bin{
		ID:           d.ID,
		BinNumber:    d.BinNumber,
		Location:     d.Location,
		Capacity:     d.Capacity,
		CurrentStock: d.CurrentStock,
		Status:       Status(d.Status),
		Barcode:      d.Barcode,
		LastUpdated:  d.LastUpdated,
		CreatedAt:    d.CreatedAt,
	}
}

// listQuery builds the Mongo filter for a listing: an OR of
// case-insensitive substring matches plus an exact status match.
func listQuery(filter ListFilter) bson.M {
	query := bson.M{}
	if filter.Search != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
		query["$or"] = []bson.M{
			{"bin_number": pattern},
			{"location": pattern},
			{"barcode": pattern},
		}
	}
	if filter.Status != "" {
		query["status"] = string(filter.Status)
	}
	return query
}

// List returns bins in natural insertion order.
func (r *Repository) List(ctx context.Context, filter ListFilter) ([]Bin, error) {
	opts := options.Find().SetSkip(int64(filter.Skip)).SetLimit(int64(filter.Limit))
	cursor, err := r.coll.Find(ctx, listQuery(filter), opts)
	if err != nil {
		return nil, fmt.Errorf("bins: list: %w", err)
	}
	var docs []binDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("bins: decode list: %w", err)
	}
	result := make([]Bin, 0, len(docs))
	for _, doc := range docs {
		result = append(result, doc.toBin())
	}
	return result, nil
}

// Stats fans the three counts and the sum aggregation out concurrently.
func (r *Repository) Stats(ctx context.Context) (Stats, error) {
	var (
		total, active, inactive   int64
		totalCapacity, totalStock int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, bson.M{})
		total = n
		return err
	})
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, bson.M{"status": string(StatusActive)})
		active = n
		return err
	})
	g.Go(func() error {
		n, err := r.coll.CountDocuments(gctx, bson.M{"status": string(StatusInactive)})
		inactive = n
		return err
	})
	g.Go(func() error {
		pipeline := mongo.Pipeline{
			bson.D{{Key: "$group", Value: bson.D{
				{Key: "_id", Value: nil},
				{Key: "total_capacity", Value: bson.D{{Key: "$sum", Value: "$capacity"}}},
				{Key: "total_stock", Value: bson.D{{Key: "$sum", Value: "$current_stock"}}},
			}}},
		}
		cursor, err := r.coll.Aggregate(gctx, pipeline)
		if err != nil {
			return err
		}
		var rows []struct {
			TotalCapacity int64 `bson:"total_capacity"`
			TotalStock    int64 `bson:"total_stock"`
		}
		if err := cursor.All(gctx, &rows); err != nil {
			return err
		}
		if len(rows) > 0 {
			totalCapacity = rows[0].TotalCapacity
			totalStock = rows[0].TotalStock
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("bins: stats: %w", err)
	}
	return Stats{
		TotalBins:             int(total),
		ActiveBins:            int(active),
		InactiveBins:          int(inactive),
		TotalCapacity:         int(totalCapacity),
		TotalStock:            int(totalStock),
		UtilizationPercentage: Utilization(int(totalCapacity), int(totalStock)),
	}, nil
}

// Get resolves a bin by its UUID identifier.
func (r *Repository) Get(ctx context.Context, id string) (Bin, error) {
	if err := validateID(id); err != nil {
		return Bin{}, err
	}
	var doc binDocument
	err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Bin{}, fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
	}
	if err != nil {
		return Bin{}, fmt.Errorf("bins: get: %w", err)
	}
	return doc.toBin(), nil
}

// GetByBarcode resolves a bin by exact barcode match.
func (r *Repository) GetByBarcode(ctx context.Context, barcode string) (Bin, error) {
	var doc binDocument
	err := r.coll.FindOne(ctx, bson.M{"barcode": barcode}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Bin{}, fmt.Errorf("bin not found with this barcode: %w", httpx.ErrNotFound)
	}
	if err != nil {
		return Bin{}, fmt.Errorf("bins: get by barcode: %w", err)
	}
	return doc.toBin(), nil
}

// Create persists a new bin under a fresh UUID, rejecting duplicate
// bin numbers.
func (r *Repository) Create(ctx context.Context, bin Bin) (Bin, error) {
	err := r.coll.FindOne(ctx, bson.M{"bin_number": bin.BinNumber}).Err()
	if err == nil {
		return Bin{}, fmt.Errorf("bin number already exists: %w", httpx.ErrDuplicate)
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return Bin{}, fmt.Errorf("bins: check bin number: %w", err)
	}
	bin.ID = uuid.NewString()
	if _, err := r.coll.InsertOne(ctx, toDocument(bin)); err != nil {
		return Bin{}, fmt.Errorf("bins: insert: %w", err)
	}
	return bin, nil
}

// Replace overwrites the full record under the given identifier.
func (r *Repository) Replace(ctx context.Context, id string, bin Bin) (Bin, error) {
	if err := validateID(id); err != nil {
		return Bin{}, err
	}
	bin.ID = id
	result, err := r.coll.ReplaceOne(ctx, bson.M{"_id": id}, toDocument(bin))
	if err != nil {
		return Bin{}, fmt.Errorf("bins: replace: %w", err)
	}
	if result.MatchedCount == 0 {
		return Bin{}, fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
	}
	return bin, nil
}

// Delete removes a bin permanently.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := validateID(id); err != nil {
		return err
	}
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("bins: delete: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("bin not found: %w", httpx.ErrNotFound)
	}
	return nil
}

func validateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("invalid bin id format: %w", httpx.ErrValidation)
	}
	return nil
}
