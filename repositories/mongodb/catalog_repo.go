package mongodb

import (
	// Go Internal Packages
	"context"
	"errors"
	"time"

	// Local Packages
	perrors "card-pipeline/errors"
	models "card-pipeline/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	tablesCollection    = "catalog_tables"
	bookmarksCollection = "bookmarks"
	runsCollection      = "pipeline_runs"
)

type CatalogRepository struct {
	db *mongo.Database
}

func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// UpsertTable registers or replaces the table definition for (database, name).
func (r *CatalogRepository) UpsertTable(ctx context.Context, table models.CatalogTable) error {
	filter := bson.M{"database": table.Database, "name": table.Name}
	opts := options.Replace().SetUpsert(true)
	_, err := r.db.Collection(tablesCollection).ReplaceOne(ctx, filter, table, opts)
	return err
}

// GetTable returns the registered table or a NotFound error.
func (r *CatalogRepository) GetTable(ctx context.Context, database, name string) (models.CatalogTable, error) {
	var table models.CatalogTable
	filter := bson.M{"database": database, "name": name}
	err := r.db.Collection(tablesCollection).FindOne(ctx, filter).Decode(&table)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return models.CatalogTable{}, perrors.NotFoundErr("table " + database + "." + name)
	}
	return table, err
}

type BookmarkRepository struct {
	db  *mongo.Database
	now func() time.Time
}

func NewBookmarkRepository(db *mongo.Database) *BookmarkRepository {
	return &BookmarkRepository{db: db, now: time.Now}
}

// Processed returns the source object keys already consumed by job.
func (r *BookmarkRepository) Processed(ctx context.Context, job string) (map[string]struct{}, error) {
	var bm models.Bookmark
	err := r.db.Collection(bookmarksCollection).FindOne(ctx, bson.M{"_id": job}).Decode(&bm)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(bm.Processed))
	for _, k := range bm.Processed {
		seen[k] = struct{}{}
	}
	return seen, nil
}

// Commit adds keys to the job bookmark.
func (r *BookmarkRepository) Commit(ctx context.Context, job string, keys []string) error {
	if len(keys) == 0 {
		return nil
	}
	update := bson.M{
		"$addToSet": bson.M{"processed": bson.M{"$each": keys}},
		"$set":      bson.M{"updated_at": r.now().UTC()},
	}
	_, err := r.db.Collection(bookmarksCollection).UpdateOne(ctx, bson.M{"_id": job}, update, options.Update().SetUpsert(true))
	return err
}

type RunRepository struct {
	db *mongo.Database
}

func NewRunRepository(db *mongo.Database) *RunRepository {
	return &RunRepository{db: db}
}

// SaveRun inserts or replaces the run document.
func (r *RunRepository) SaveRun(ctx context.Context, run models.PipelineRun) error {
	opts := options.Replace().SetUpsert(true)
	_, err := r.db.Collection(runsCollection).ReplaceOne(ctx, bson.M{"_id": run.ID}, run, opts)
	return err
}
