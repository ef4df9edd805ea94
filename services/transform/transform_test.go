package transform

import (
	// Go Internal Packages
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"testing"

	// Local Packages
	errors "card-pipeline/errors"
	models "card-pipeline/models"
	s3store "card-pipeline/repositories/s3"
	"card-pipeline/repositories/s3/s3test"

	// External Packages
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memoryCatalog map[string]models.CatalogTable

func (m memoryCatalog) GetTable(_ context.Context, database, name string) (models.CatalogTable, error) {
	t, ok := m[database+"."+name]
	if !ok {
		return t, errors.NotFoundErr("table " + name)
	}
	return t, nil
}

type memoryBookmarks map[string]map[string]struct{}

func (m memoryBookmarks) Processed(_ context.Context, job string) (map[string]struct{}, error) {
	out := map[string]struct{}{}
	for k := range m[job] {
		out[k] = struct{}{}
	}
	return out, nil
}

func (m memoryBookmarks) Commit(_ context.Context, job string, keys []string) error {
	if m[job] == nil {
		m[job] = map[string]struct{}{}
	}
	for _, k := range keys {
		m[job][k] = struct{}{}
	}
	return nil
}

func rawLine(card, state, city string, amount string) string {
	return fmt.Sprintf(`{"cardholder_name":"Ana","tax_id":"52998224725","amount":"%s","card_brand":"Visa","card_number":"%s","cvv":"123","expiry":"10/29","card_type":"gold","card_color":"blue","transaction_type":"credit","location":{"lat":-23.5,"lng":-46.6,"city":"%s","state":"%s"},"timestamp":"2026-10-15T12:00:00Z"}`,
		amount, card, city, state)
}

func gz(t *testing.T, lines ...string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	for _, l := range lines {
		_, _ = zw.Write([]byte(l + "\n"))
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

type fixture struct {
	client    *s3test.Client
	store     *s3store.ObjectStore
	catalog   memoryCatalog
	bookmarks memoryBookmarks
	deps      Deps
}

func newFixture() *fixture {
	client := s3test.NewClient()
	store := s3store.NewObjectStore(client, "card-data")
	catalog := memoryCatalog{
		"cardpipeline.raw":   {Database: "cardpipeline", Name: "raw", Location: "s3://card-data/raw/", Format: "json"},
		"cardpipeline.stage": {Database: "cardpipeline", Name: "stage", Location: "s3://card-data/stage/", Format: "parquet"},
	}
	bookmarks := memoryBookmarks{}
	return &fixture{
		client:    client,
		store:     store,
		catalog:   catalog,
		bookmarks: bookmarks,
		deps:      Deps{Store: store, Catalog: catalog, Bookmarks: bookmarks, Database: "cardpipeline", Logger: zap.NewNop()},
	}
}

func (f *fixture) stageJob() *StageJob {
	return &StageJob{Deps: f.deps, SourceTable: "raw", TargetPrefix: "stage/", PartitionKey: "state"}
}

func (f *fixture) specJob() *SpecJob {
	return &SpecJob{Deps: f.deps, SourceTable: "stage", TargetPrefix: "spec/", PartitionKey: "state"}
}

func readParquet[T any](t *testing.T, client *s3test.Client, key string) []T {
	t.Helper()
	obj, ok := client.Object(key)
	require.True(t, ok, key)
	require.GreaterOrEqual(t, len(obj.Body), 4)
	assert.Equal(t, "PAR1", string(obj.Body[:4]))
	rows, err := parquet.Read[T](bytes.NewReader(obj.Body), int64(len(obj.Body)))
	require.NoError(t, err)
	return rows
}

func TestStageRowFlattensLocation(t *testing.T) {
	row, err := StageRow([]byte(rawLine("4111", "SP", "São Paulo", "10.50")))
	require.NoError(t, err)
	assert.Equal(t, "São Paulo", row.City)
	assert.Equal(t, "SP", row.State)
	assert.Equal(t, 10.5, row.Amount)
	assert.Equal(t, -23.5, row.Latitude)
	assert.Equal(t, -46.6, row.Longitude)
	assert.Equal(t, "gold", row.CardType)

	_, err = StageRow([]byte("nope"))
	assert.Error(t, err)

	_, err = ApplyMapping([]byte(`{}`), []Mapping{{Source: "a", Target: "a", Type: "decimal"}})
	assert.NoError(t, err, "missing sources are skipped before casting")
	_, err = ApplyMapping([]byte(`{"a":1}`), []Mapping{{Source: "a", Target: "a", Type: "decimal"}})
	assert.Error(t, err)
}

func TestStageJobPartitionsByState(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, "raw/state=SP/a.gz", gz(t, rawLine("4111", "SP", "São Paulo", "10.50"), rawLine("4111", "SP", "Campinas", "5")), s3store.PutOptions{}))
	require.NoError(t, f.store.Put(ctx, "raw/state=RJ/b.gz", gz(t, rawLine("5500", "RJ", "Rio", "7.25"), "garbage"), s3store.PutOptions{}))

	res, err := f.stageJob().Run(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, []string{"stage/state=RJ/part-run1.snappy.parquet", "stage/state=SP/part-run1.snappy.parquet"}, res.Outputs)

	rows := readParquet[models.StagedTransaction](t, f.client, "stage/state=SP/part-run1.snappy.parquet")
	require.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, "SP", r.State)
		assert.Equal(t, "Ana", r.CardholderName)
	}

	// the bookmark prevents reprocessing
	res, err = f.stageJob().Run(ctx, "run2")
	require.NoError(t, err)
	assert.Empty(t, res.Inputs)
	assert.Empty(t, f.client.Keys("stage/state=SP/part-run2"))
}

func TestSpecJobDropsPersonalColumnsAndSums(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	require.NoError(t, f.store.Put(ctx, "raw/state=SP/a.gz", gz(t,
		rawLine("4111", "SP", "São Paulo", "10.50"),
		rawLine("4111", "SP", "São Paulo", "0.25"),
		rawLine("4111", "SP", "Campinas", "5"),
	), s3store.PutOptions{}))

	_, err := f.stageJob().Run(ctx, "run1")
	require.NoError(t, err)
	res, err := f.specJob().Run(ctx, "run1")
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)
	require.Equal(t, []string{"spec/state=SP/part-run1.snappy.parquet"}, res.Outputs)

	rows := readParquet[models.SpecTransaction](t, f.client, res.Outputs[0])
	require.Len(t, rows, 2)
	sums := map[string]float64{}
	for _, r := range rows {
		sums[r.City] = r.Amount
	}
	assert.Equal(t, map[string]float64{"São Paulo": 10.75, "Campinas": 5}, sums)

	obj, _ := f.client.Object(res.Outputs[0])
	file, err := parquet.OpenFile(bytes.NewReader(obj.Body), int64(len(obj.Body)))
	require.NoError(t, err)
	for _, field := range file.Schema().Fields() {
		assert.NotContains(t, []string{"cardholder_name", "cvv", "tax_id", "timestamp"}, field.Name())
	}
}

func TestJobFailsWithoutCatalogTable(t *testing.T) {
	f := newFixture()
	delete(f.catalog, "cardpipeline.stage")
	_, err := f.specJob().Run(context.Background(), "run1")
	assert.True(t, errors.IsKind(err, errors.NotFound))
}

func TestPrefixOf(t *testing.T) {
	assert.Equal(t, "raw/", prefixOf("s3://card-data/raw/"))
	assert.Equal(t, "", prefixOf("s3://card-data"))
}
