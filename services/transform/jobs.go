package transform

import (
	// Go Internal Packages
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	// Local Packages
	models "card-pipeline/models"
	s3store "card-pipeline/repositories/s3"
	utils "card-pipeline/utils"

	// External Packages
	"github.com/parquet-go/parquet-go"
	"github.com/parquet-go/parquet-go/compress/snappy"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	StageJobName = "stage"
	SpecJobName  = "spec"

	defaultPartition = "__unknown__"
)

type ObjectStore interface {
	List(ctx context.Context, prefix string) ([]s3store.ObjectInfo, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, body []byte, opts s3store.PutOptions) error
}

type CatalogReader interface {
	GetTable(ctx context.Context, database, name string) (models.CatalogTable, error)
}

// Bookmarks remember which source objects a job already consumed.
type Bookmarks interface {
	Processed(ctx context.Context, job string) (map[string]struct{}, error)
	Commit(ctx context.Context, job string, keys []string) error
}

type Deps struct {
	Store     ObjectStore
	Catalog   CatalogReader
	Bookmarks Bookmarks
	Database  string
	Logger    *zap.Logger
}

// Result summarizes one job run.
type Result struct {
	Inputs  []string
	Rows    int
	Skipped int
	Outputs []string
}

// StageJob flattens raw JSON events into parquet partitioned by state.
type StageJob struct {
	Deps
	SourceTable  string
	TargetPrefix string
	PartitionKey string
}

func (j *StageJob) Name() string { return StageJobName }

func (j *StageJob) Run(ctx context.Context, runID string) (Result, error) {
	var res Result
	inputs, err := pendingInputs(ctx, j.Deps, j.Name(), j.SourceTable)
	if err != nil || len(inputs) == 0 {
		return res, err
	}

	byPartition := map[string][]models.StagedTransaction{}
	for _, key := range inputs {
		body, err := j.Store.Get(ctx, key)
		if err != nil {
			return res, err
		}
		err = eachLine(body, strings.HasSuffix(key, ".gz"), func(line []byte) {
			row, err := StageRow(line)
			if err != nil {
				res.Skipped++
				j.Logger.Debug("skipping unmappable line", zap.String("key", key), zap.Error(err))
				return
			}
			p := partitionOf(row.State)
			byPartition[p] = append(byPartition[p], row)
			res.Rows++
		})
		if err != nil {
			return res, fmt.Errorf("read %s: %w", key, err)
		}
	}

	res.Outputs, err = writePartitions(ctx, j.Store, j.TargetPrefix, j.PartitionKey, runID, byPartition)
	if err != nil {
		return res, err
	}
	if err := j.Bookmarks.Commit(ctx, j.Name(), inputs); err != nil {
		return res, err
	}
	res.Inputs = inputs
	j.Logger.Info("stage job finished", zap.Int("inputs", len(inputs)), zap.Int("rows", res.Rows), zap.Int("skipped", res.Skipped), zap.Strings("outputs", res.Outputs))
	return res, nil
}

// SpecJob drops personal columns from staged rows and sums amount per remaining columns.
type SpecJob struct {
	Deps
	SourceTable  string
	TargetPrefix string
	PartitionKey string
}

func (j *SpecJob) Name() string { return SpecJobName }

func (j *SpecJob) Run(ctx context.Context, runID string) (Result, error) {
	var res Result
	inputs, err := pendingInputs(ctx, j.Deps, j.Name(), j.SourceTable)
	if err != nil || len(inputs) == 0 {
		return res, err
	}

	sums := map[models.SpecKey]decimal.Decimal{}
	for _, key := range inputs {
		body, err := j.Store.Get(ctx, key)
		if err != nil {
			return res, err
		}
		rows, err := parquet.Read[models.StagedTransaction](bytes.NewReader(body), int64(len(body)))
		if err != nil {
			return res, fmt.Errorf("read %s: %w", key, err)
		}
		for _, row := range rows {
			k := row.SpecKey()
			sums[k] = sums[k].Add(decimal.NewFromFloat(row.Amount))
			res.Rows++
		}
	}

	byPartition := map[string][]models.SpecTransaction{}
	for k, sum := range sums {
		p := partitionOf(k.State)
		byPartition[p] = append(byPartition[p], k.Row(sum.InexactFloat64()))
	}
	for _, rows := range byPartition {
		sort.Slice(rows, func(a, b int) bool {
			if rows[a].CardNumber != rows[b].CardNumber {
				return rows[a].CardNumber < rows[b].CardNumber
			}
			return rows[a].City < rows[b].City
		})
	}

	res.Outputs, err = writePartitions(ctx, j.Store, j.TargetPrefix, j.PartitionKey, runID, byPartition)
	if err != nil {
		return res, err
	}
	if err := j.Bookmarks.Commit(ctx, j.Name(), inputs); err != nil {
		return res, err
	}
	res.Inputs = inputs
	j.Logger.Info("spec job finished", zap.Int("inputs", len(inputs)), zap.Int("rows", res.Rows), zap.Int("groups", len(sums)), zap.Strings("outputs", res.Outputs))
	return res, nil
}

// pendingInputs lists the data objects of a cataloged table not yet in the job bookmark.
func pendingInputs(ctx context.Context, deps Deps, job, tableName string) ([]string, error) {
	table, err := deps.Catalog.GetTable(ctx, deps.Database, tableName)
	if err != nil {
		return nil, err
	}
	prefix := prefixOf(table.Location)

	objects, err := deps.Store.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	done, err := deps.Bookmarks.Processed(ctx, job)
	if err != nil {
		return nil, err
	}

	var keys []string
	for _, obj := range objects {
		if _, seen := done[obj.Key]; seen || !matchesFormat(obj.Key, table.Format) {
			continue
		}
		keys = append(keys, obj.Key)
	}
	if len(keys) == 0 {
		deps.Logger.Info("no new input objects", zap.String("job", job), zap.String("table", tableName))
	}
	return keys, nil
}

// prefixOf turns s3://bucket/prefix/ into prefix/.
func prefixOf(location string) string {
	rest := strings.TrimPrefix(location, "s3://")
	if _, prefix, ok := strings.Cut(rest, "/"); ok {
		return prefix
	}
	return ""
}

func matchesFormat(key, format string) bool {
	if format == "parquet" {
		return strings.HasSuffix(key, ".parquet")
	}
	return strings.HasSuffix(key, ".gz") || strings.HasSuffix(key, ".json")
}

func partitionOf(v string) string {
	if v == "" {
		return defaultPartition
	}
	return v
}

func eachLine(body []byte, gzipped bool, fn func([]byte)) error {
	var r io.Reader = bytes.NewReader(body)
	if gzipped {
		zr, err := gzip.NewReader(r)
		if err != nil {
			return err
		}
		defer zr.Close()
		r = zr
	}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for scanner.Scan() {
		if line := bytes.TrimSpace(scanner.Bytes()); len(line) > 0 {
			fn(line)
		}
	}
	return scanner.Err()
}

// writePartitions writes one snappy parquet object per partition value.
func writePartitions[T any](ctx context.Context, store ObjectStore, prefix, partitionKey, runID string, rows map[string][]T) ([]string, error) {
	partitions := make([]string, 0, len(rows))
	for p := range rows {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	var keys []string
	for _, p := range partitions {
		body, err := encodeParquet(rows[p])
		if err != nil {
			return keys, err
		}
		key := utils.JoinPrefix(prefix, utils.PartitionPath(partitionKey, p), fmt.Sprintf("part-%s.snappy.parquet", runID))
		if err := store.Put(ctx, key, body, s3store.PutOptions{ContentType: "application/octet-stream"}); err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func encodeParquet[T any](rows []T) ([]byte, error) {
	buf := new(bytes.Buffer)
	w := parquet.NewGenericWriter[T](buf, parquet.Compression(&snappy.Codec{}))
	if _, err := w.Write(rows); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
