package mongodb

import (
	// Go Internal Packages
	"context"
	"testing"
	"time"

	// Local Packages
	perrors "card-pipeline/errors"
	models "card-pipeline/models"

	// External Packages
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestCatalogRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("upsert table", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		repo := NewCatalogRepository(mt.DB)
		err := repo.UpsertTable(context.Background(), models.CatalogTable{Database: "cardpipeline", Name: "raw"})
		require.NoError(t, err)
	})

	mt.Run("get table", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + tablesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "database", Value: "cardpipeline"},
			{Key: "name", Value: "raw"},
			{Key: "location", Value: "raw/"},
			{Key: "format", Value: "json"},
			{Key: "partition_keys", Value: bson.A{"state"}},
		}))

		table, err := NewCatalogRepository(mt.DB).GetTable(context.Background(), "cardpipeline", "raw")
		require.NoError(t, err)
		assert.Equal(t, "raw/", table.Location)
		assert.Equal(t, []string{"state"}, table.PartitionKeys)
	})

	mt.Run("missing table", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + tablesCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		_, err := NewCatalogRepository(mt.DB).GetTable(context.Background(), "cardpipeline", "spec")
		require.Error(t, err)
		assert.True(t, perrors.IsKind(err, perrors.NotFound))
	})
}

func TestBookmarkRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty bookmark", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + bookmarksCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		seen, err := NewBookmarkRepository(mt.DB).Processed(context.Background(), "stage")
		require.NoError(t, err)
		assert.Empty(t, seen)
	})

	mt.Run("processed keys", func(mt *mtest.T) {
		ns := mt.DB.Name() + "." + bookmarksCollection
		mt.AddMockResponses(mtest.CreateCursorResponse(1, ns, mtest.FirstBatch, bson.D{
			{Key: "_id", Value: "stage"},
			{Key: "processed", Value: bson.A{"raw/state=SP/a.gz", "raw/state=RJ/b.gz"}},
		}))

		seen, err := NewBookmarkRepository(mt.DB).Processed(context.Background(), "stage")
		require.NoError(t, err)
		assert.Contains(t, seen, "raw/state=SP/a.gz")
		assert.Len(t, seen, 2)
	})

	mt.Run("commit", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		repo := NewBookmarkRepository(mt.DB)
		repo.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }
		require.NoError(t, repo.Commit(context.Background(), "stage", []string{"raw/state=SP/a.gz"}))
		require.NoError(t, repo.Commit(context.Background(), "stage", nil))
	})
}

func TestRunRepositorySaveRun(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("save", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))

		run := models.PipelineRun{ID: "run-1", State: models.StateDone}
		require.NoError(t, NewRunRepository(mt.DB).SaveRun(context.Background(), run))
	})
}
