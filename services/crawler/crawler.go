package crawler

import (
	// Go Internal Packages
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	// Local Packages
	models "card-pipeline/models"
	s3store "card-pipeline/repositories/s3"
	utils "card-pipeline/utils"

	// External Packages
	"go.uber.org/zap"
)

const (
	FormatJSON    = "json"
	FormatParquet = "parquet"
)

type ObjectReader interface {
	Bucket() string
	List(ctx context.Context, prefix string) ([]s3store.ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

type CatalogWriter interface {
	UpsertTable(ctx context.Context, table models.CatalogTable) error
}

// Target names the catalog table registered for a storage prefix.
type Target struct {
	Table  string
	Prefix string
}

// Crawler rescans a prefix on every run and registers its schema and partitions.
type Crawler struct {
	store    ObjectReader
	catalog  CatalogWriter
	database string
	sample   int
	logger   *zap.Logger
	now      func() time.Time
}

func New(store ObjectReader, catalog CatalogWriter, database string, sampleObjects int, logger *zap.Logger) *Crawler {
	if sampleObjects < 1 {
		sampleObjects = 1
	}
	return &Crawler{
		store:    store,
		catalog:  catalog,
		database: database,
		sample:   sampleObjects,
		logger:   logger,
		now:      time.Now,
	}
}

// Crawl lists every object under the target prefix, infers the table and upserts it.
func (c *Crawler) Crawl(ctx context.Context, target Target) (models.CatalogTable, error) {
	objects, err := c.store.List(ctx, target.Prefix)
	if err != nil {
		return models.CatalogTable{}, err
	}

	table := models.CatalogTable{
		Database: c.database,
		Name:     target.Table,
		Location: fmt.Sprintf("s3://%s/%s", c.store.Bucket(), target.Prefix),
	}

	var data []s3store.ObjectInfo
	partitions := map[string]struct{}{}
	for _, obj := range objects {
		format := formatOf(obj.Key)
		if format == "" || obj.Size == 0 {
			continue
		}
		if table.Format == "" {
			table.Format = format
		}
		if format != table.Format {
			c.logger.Warn("skipping object with different format", zap.String("key", obj.Key), zap.String("format", format))
			continue
		}
		data = append(data, obj)

		rel := strings.TrimPrefix(obj.Key, target.Prefix)
		var path strings.Builder
		for _, p := range utils.ParsePartitions(rel) {
			if !contains(table.PartitionKeys, p.Name) {
				table.PartitionKeys = append(table.PartitionKeys, p.Name)
			}
			path.WriteString(utils.PartitionPath(p.Name, p.Value))
		}
		if path.Len() > 0 {
			partitions[strings.TrimSuffix(path.String(), "/")] = struct{}{}
		}
	}
	table.ObjectCount = len(data)
	for p := range partitions {
		table.Partitions = append(table.Partitions, p)
	}
	sort.Strings(table.Partitions)

	columns, err := c.inferColumns(ctx, table.Format, sampleObjects(data, c.sample))
	if err != nil {
		return models.CatalogTable{}, err
	}
	table.Columns = columns
	table.UpdatedAt = c.now().UTC()

	if err := c.catalog.UpsertTable(ctx, table); err != nil {
		return models.CatalogTable{}, err
	}
	c.logger.Info("crawled table",
		zap.String("table", table.Name),
		zap.String("location", table.Location),
		zap.Int("objects", table.ObjectCount),
		zap.Int("partitions", len(table.Partitions)),
		zap.Int("columns", len(table.Columns)),
	)
	return table, nil
}

func (c *Crawler) inferColumns(ctx context.Context, format string, objects []s3store.ObjectInfo) ([]models.Column, error) {
	schema := newSchema()
	for _, obj := range objects {
		body, err := c.store.Get(ctx, obj.Key)
		if err != nil {
			return nil, err
		}
		switch format {
		case FormatParquet:
			err = inferParquet(schema, body)
		default:
			err = inferJSONLines(schema, body, strings.HasSuffix(obj.Key, ".gz"))
		}
		if err != nil {
			c.logger.Warn("cannot infer schema of object", zap.String("key", obj.Key), zap.Error(err))
		}
	}
	return schema.columns(), nil
}

// sampleObjects returns the n most recently modified objects.
func sampleObjects(objects []s3store.ObjectInfo, n int) []s3store.ObjectInfo {
	sorted := append([]s3store.ObjectInfo(nil), objects...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].LastModified.After(sorted[j].LastModified)
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

func formatOf(key string) string {
	switch {
	case strings.HasSuffix(key, ".parquet"):
		return FormatParquet
	case strings.HasSuffix(key, ".gz"), strings.HasSuffix(key, ".json"):
		return FormatJSON
	}
	return ""
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
