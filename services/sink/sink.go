package sink

import (
	// Go Internal Packages
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	// Local Packages
	config "card-pipeline/config"
	models "card-pipeline/models"
	s3store "card-pipeline/repositories/s3"
	utils "card-pipeline/utils"

	// External Packages
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const (
	processingFailed = "processing-failed/"
	deliveryFailed   = "delivery-failed/"
	objectTimeLayout = "2006-01-02-15-04-05"
)

type ObjectStore interface {
	Bucket() string
	Put(ctx context.Context, key string, body []byte, opts s3store.PutOptions) error
}

type Notifier interface {
	ObjectCreated(ctx context.Context, event models.ObjectCreated) error
}

type Forwarder interface {
	PublishRecords(ctx context.Context, records []models.Record) error
}

type partitionBuffer struct {
	data    bytes.Buffer
	records int
}

// Sink batches stream records per partition value and delivers each batch as one gzip
// object. It implements kafka.BufferingProcessor, so offsets are committed after Flush.
type Sink struct {
	conf      config.Sink
	store     ObjectStore
	notifier  Notifier
	forwarder Forwarder
	logger    *zap.Logger
	now       func() time.Time
	backoff   func() retry.Backoff

	mu       sync.Mutex
	buffers  map[string]*partitionBuffer
	buffered int
	oldest   time.Time
}

// New builds a sink. notifier and forwarder may be nil.
func New(conf config.Sink, store ObjectStore, notifier Notifier, forwarder Forwarder, logger *zap.Logger) *Sink {
	s := &Sink{
		conf:      conf,
		store:     store,
		notifier:  notifier,
		forwarder: forwarder,
		logger:    logger,
		now:       time.Now,
		buffers:   make(map[string]*partitionBuffer),
	}
	s.backoff = func() retry.Backoff {
		b := retry.WithCappedDuration(30*time.Second, retry.NewExponential(time.Second))
		return retry.WithMaxDuration(conf.RetryDuration, b)
	}
	return s
}

// ProcessRecords buffers records by partition value. Records without a value are written
// straight to the processing-failed error prefix.
func (s *Sink) ProcessRecords(ctx context.Context, records []models.Record) error {
	var poison, valid []models.Record
	var partitions []string
	for _, record := range records {
		value, ok := s.partitionValue(record.Value)
		if !ok {
			poison = append(poison, record)
			continue
		}
		partitions = append(partitions, value)
		valid = append(valid, record)
	}

	// Nothing is buffered until the batch can no longer fail, a failed batch is dead-lettered whole.
	if len(poison) > 0 {
		if err := s.writePoison(ctx, poison); err != nil {
			return err
		}
	}
	if s.forwarder != nil && len(valid) > 0 {
		if err := s.forwarder.PublishRecords(ctx, valid); err != nil {
			return fmt.Errorf("forward records: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i, record := range valid {
		s.append(partitions[i], record.Value)
	}
	return nil
}

func (s *Sink) partitionValue(value []byte) (string, bool) {
	if !gjson.ValidBytes(value) {
		return "", false
	}
	res := gjson.GetBytes(value, s.conf.PartitionQuery)
	if !res.Exists() || res.String() == "" {
		return "", false
	}
	return res.String(), true
}

func (s *Sink) append(partition string, value []byte) {
	buf, ok := s.buffers[partition]
	if !ok {
		buf = &partitionBuffer{}
		s.buffers[partition] = buf
	}
	if s.buffered == 0 {
		s.oldest = s.now()
	}
	buf.data.Write(value)
	buf.data.WriteString(s.conf.Delimiter)
	buf.records++
	s.buffered += len(value) + len(s.conf.Delimiter)
}

// Due reports whether buffered data reached the size or age threshold. An empty sink is
// always due so offsets of records that were not buffered get committed.
func (s *Sink) Due(now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.buffered == 0 {
		return true
	}
	return s.buffered >= s.conf.BufferSize || now.Sub(s.oldest) >= s.conf.BufferInterval
}

// Flush writes one object per partition and resets the buffers. An object that cannot be
// delivered within the retry duration goes to the delivery-failed error prefix; Flush fails
// only when that write fails too.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	buffers := s.buffers
	s.buffers = make(map[string]*partitionBuffer)
	s.buffered = 0
	s.mu.Unlock()

	partitions := make([]string, 0, len(buffers))
	for p := range buffers {
		partitions = append(partitions, p)
	}
	sort.Strings(partitions)

	var failed []string
	for _, partition := range partitions {
		buf := buffers[partition]
		rel := utils.PartitionPath(s.conf.PartitionName, partition) + s.objectName()
		if err := s.deliver(ctx, rel, buf); err != nil {
			s.logger.Error("failed to deliver partition", zap.String("partition", partition), zap.Int("records", buf.records), zap.Error(err))
			failed = append(failed, partition)
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("undeliverable partitions %v", failed)
	}
	return nil
}

func (s *Sink) deliver(ctx context.Context, rel string, buf *partitionBuffer) error {
	body, err := gzipBytes(buf.data.Bytes())
	if err != nil {
		return err
	}

	key := utils.JoinPrefix(s.conf.Prefix, rel)
	err = s.putWithRetry(ctx, key, body)
	if err == nil {
		s.logger.Info("delivered object", zap.String("key", key), zap.Int("records", buf.records), zap.Int("bytes", len(body)))
		s.notify(ctx, key, int64(len(body)))
		return nil
	}

	s.logger.Error("delivery retries exhausted, writing to error prefix", zap.String("key", key), zap.Error(err))
	errKey := utils.JoinPrefix(s.conf.ErrorPrefix, deliveryFailed, rel)
	if err := s.store.Put(ctx, errKey, body, gzipOptions()); err != nil {
		return fmt.Errorf("write %s: %w", errKey, err)
	}
	return nil
}

func (s *Sink) putWithRetry(ctx context.Context, key string, body []byte) error {
	return retry.Do(ctx, s.backoff(), func(ctx context.Context) error {
		if err := s.store.Put(ctx, key, body, gzipOptions()); err != nil {
			s.logger.Warn("put failed, retrying", zap.String("key", key), zap.Error(err))
			return retry.RetryableError(err)
		}
		return nil
	})
}

func (s *Sink) notify(ctx context.Context, key string, size int64) {
	if s.notifier == nil {
		return
	}
	event := models.ObjectCreated{Bucket: s.store.Bucket(), Key: key, Size: size, Time: s.now().UTC()}
	if err := s.notifier.ObjectCreated(ctx, event); err != nil {
		s.logger.Warn("failed to notify object created", zap.String("key", key), zap.Error(err))
	}
}

func (s *Sink) writePoison(ctx context.Context, records []models.Record) error {
	var data bytes.Buffer
	for _, r := range records {
		data.Write(r.Value)
		data.WriteString(s.conf.Delimiter)
	}
	body, err := gzipBytes(data.Bytes())
	if err != nil {
		return err
	}

	key := utils.JoinPrefix(s.conf.ErrorPrefix, processingFailed, s.objectName())
	if err := s.putWithRetry(ctx, key, body); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	s.logger.Warn("records without partition value", zap.String("key", key), zap.Int("records", len(records)))
	return nil
}

func (s *Sink) objectName() string {
	return fmt.Sprintf("%s-%s-%s.gz", s.conf.StreamName, s.now().UTC().Format(objectTimeLayout), uuid.NewString())
}

func gzipOptions() s3store.PutOptions {
	return s3store.PutOptions{ContentType: "application/gzip"}
}

func gzipBytes(data []byte) ([]byte, error) {
	var out bytes.Buffer
	zw := gzip.NewWriter(&out)
	if _, err := zw.Write(data); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
