package config

import (
	// Go Internal Packages
	"time"

	// Local Packages
	errors "card-pipeline/errors"
)

var DefaultConfig = []byte(`
application: "card-pipeline"

logger:
  level: "debug"

is_prod_mode: false

mongo:
  uri: "mongodb://localhost:27017"
  database: "cardpipeline"

redis:
  uri: "localhost:6379"
  password: ""
  dlq_list: "dead-letters"

kafka:
  brokers:
    - "localhost:9092"
  ingestion_topic: "card-stream"
  realtime_topic: "realtime-stream"
  records_per_poll: 5000
  poll_timeout: "5s"

nats:
  url: "nats://localhost:4222"
  subject: "objects.created"
  queue: "orchestrator"

s3:
  bucket: "card-data"
  region: "us-east-1"
  endpoint: ""
  use_path_style: false

dynamodb:
  table: "suspicious-transactions"
  region: "us-east-1"
  endpoint: ""

metrics:
  addr: ":9090"
  namespace: "cardpipeline"

generator:
  workers: 1
  interval: "1s"
  seed: 0
  geocoder_url: ""
  user_agent: "bbbank"
  retry:
    max_attempts: 5
    base_delay: "200ms"
    max_delay: "5s"

sink:
  consumer_name: "delivery-sink"
  stream_name: "card-stream"
  prefix: "raw/"
  error_prefix: "error/"
  partition_query: "location.state"
  partition_name: "state"
  delimiter: "\n"
  buffer_interval: "300s"
  buffer_size: 67108864
  retry_duration: "300s"
  forward_topic: ""

catalog:
  database: "cardpipeline"
  sample_objects: 5

transform:
  stage_prefix: "stage/"
  spec_prefix: "spec/"
  partition_key: "state"

pipeline:
  trigger_prefix: "raw/"

realtime:
  consumer_name: "realtime-aggregator"
  window: "120s"
  watermark_lag: "2m"
  aggregation: "sum"
  threshold: 5000
  shards: 4
  flush_on_shutdown: true

alerts:
  consumer_name: "alerts-consumer"
  store: "dynamodb"
  ttl: "720h"
  key_prefix: "suspicious"
  retry:
    max_attempts: 3
    base_delay: "100ms"
    max_delay: "2s"

api:
  addr: ":8080"
  read_timeout: "5s"
  write_timeout: "10s"
`)

type Config struct {
	Application string    `koanf:"application"`
	Logger      Logger    `koanf:"logger"`
	IsProdMode  bool      `koanf:"is_prod_mode"`
	Mongo       Mongo     `koanf:"mongo"`
	Redis       Redis     `koanf:"redis"`
	Kafka       Kafka     `koanf:"kafka"`
	Nats        Nats      `koanf:"nats"`
	S3          S3        `koanf:"s3"`
	DynamoDB    DynamoDB  `koanf:"dynamodb"`
	Metrics     Metrics   `koanf:"metrics"`
	Generator   Generator `koanf:"generator"`
	Sink        Sink      `koanf:"sink"`
	Catalog     Catalog   `koanf:"catalog"`
	Transform   Transform `koanf:"transform"`
	Pipeline    Pipeline  `koanf:"pipeline"`
	Realtime    Realtime  `koanf:"realtime"`
	Alerts      Alerts    `koanf:"alerts"`
	API         API       `koanf:"api"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type Mongo struct {
	URI      string `koanf:"uri"`
	Database string `koanf:"database"`
}

type Redis struct {
	URI      string `koanf:"uri"`
	Password string `koanf:"password"`
	DLQList  string `koanf:"dlq_list"`
}

type Kafka struct {
	Brokers        []string      `koanf:"brokers"`
	IngestionTopic string        `koanf:"ingestion_topic"`
	RealtimeTopic  string        `koanf:"realtime_topic"`
	RecordsPerPoll int           `koanf:"records_per_poll"`
	PollTimeout    time.Duration `koanf:"poll_timeout"`
}

type Nats struct {
	URL     string `koanf:"url"`
	Subject string `koanf:"subject"`
	Queue   string `koanf:"queue"`
}

type S3 struct {
	Bucket       string `koanf:"bucket"`
	Region       string `koanf:"region"`
	Endpoint     string `koanf:"endpoint"`
	UsePathStyle bool   `koanf:"use_path_style"`
}

type DynamoDB struct {
	Table    string `koanf:"table"`
	Region   string `koanf:"region"`
	Endpoint string `koanf:"endpoint"`
}

type Metrics struct {
	Addr      string `koanf:"addr"`
	Namespace string `koanf:"namespace"`
}

type Retry struct {
	MaxAttempts uint64        `koanf:"max_attempts"`
	BaseDelay   time.Duration `koanf:"base_delay"`
	MaxDelay    time.Duration `koanf:"max_delay"`
}

type Generator struct {
	Workers     int           `koanf:"workers"`
	Interval    time.Duration `koanf:"interval"`
	Seed        int64         `koanf:"seed"`
	GeocoderURL string        `koanf:"geocoder_url"`
	UserAgent   string        `koanf:"user_agent"`
	Retry       Retry         `koanf:"retry"`
}

type Sink struct {
	ConsumerName   string        `koanf:"consumer_name"`
	StreamName     string        `koanf:"stream_name"`
	Prefix         string        `koanf:"prefix"`
	ErrorPrefix    string        `koanf:"error_prefix"`
	PartitionQuery string        `koanf:"partition_query"`
	PartitionName  string        `koanf:"partition_name"`
	Delimiter      string        `koanf:"delimiter"`
	BufferInterval time.Duration `koanf:"buffer_interval"`
	BufferSize     int           `koanf:"buffer_size"`
	RetryDuration  time.Duration `koanf:"retry_duration"`
	ForwardTopic   string        `koanf:"forward_topic"`
}

type Catalog struct {
	Database      string `koanf:"database"`
	SampleObjects int    `koanf:"sample_objects"`
}

type Transform struct {
	StagePrefix  string `koanf:"stage_prefix"`
	SpecPrefix   string `koanf:"spec_prefix"`
	PartitionKey string `koanf:"partition_key"`
}

type Pipeline struct {
	TriggerPrefix string `koanf:"trigger_prefix"`
}

type Realtime struct {
	ConsumerName    string        `koanf:"consumer_name"`
	Window          time.Duration `koanf:"window"`
	WatermarkLag    time.Duration `koanf:"watermark_lag"`
	Aggregation     string        `koanf:"aggregation"`
	Threshold       float64       `koanf:"threshold"`
	Shards          int           `koanf:"shards"`
	FlushOnShutdown bool          `koanf:"flush_on_shutdown"`
}

type Alerts struct {
	ConsumerName string        `koanf:"consumer_name"`
	Store        string        `koanf:"store"`
	TTL          time.Duration `koanf:"ttl"`
	KeyPrefix    string        `koanf:"key_prefix"`
	Retry        Retry         `koanf:"retry"`
}

type API struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
}

// Validate validates the configuration
func (c *Config) Validate() error {
	ve := errors.ValidationErrs()

	if c.Application == "" {
		ve.Add("application", "cannot be empty")
	}
	if c.Logger.Level == "" {
		ve.Add("logger.level", "cannot be empty")
	}
	if c.Mongo.URI == "" {
		ve.Add("mongo.uri", "cannot be empty")
	}
	if c.Redis.URI == "" {
		ve.Add("redis.uri", "cannot be empty")
	}
	if len(c.Kafka.Brokers) == 0 {
		ve.Add("kafka.brokers", "cannot be empty")
	}
	if c.Kafka.IngestionTopic == "" {
		ve.Add("kafka.ingestion_topic", "cannot be empty")
	}
	if c.S3.Bucket == "" {
		ve.Add("s3.bucket", "cannot be empty")
	}
	if c.Generator.Workers < 1 {
		ve.Add("generator.workers", "must be at least 1")
	}
	if c.Generator.Interval <= 0 {
		ve.Add("generator.interval", "must be positive")
	}
	if c.Sink.PartitionQuery == "" {
		ve.Add("sink.partition_query", "cannot be empty")
	}
	if c.Sink.BufferSize <= 0 {
		ve.Add("sink.buffer_size", "must be positive")
	}
	if c.Sink.BufferInterval <= 0 {
		ve.Add("sink.buffer_interval", "must be positive")
	}
	if c.Realtime.Window <= 0 {
		ve.Add("realtime.window", "must be positive")
	}
	if c.Realtime.WatermarkLag < 0 {
		ve.Add("realtime.watermark_lag", "cannot be negative")
	}
	if c.Realtime.Aggregation != "sum" && c.Realtime.Aggregation != "max" {
		ve.Add("realtime.aggregation", "must be sum or max")
	}
	if c.Realtime.Shards < 1 {
		ve.Add("realtime.shards", "must be at least 1")
	}
	if c.Alerts.Store != "dynamodb" && c.Alerts.Store != "redis" {
		ve.Add("alerts.store", "must be dynamodb or redis")
	}
	if c.Alerts.TTL <= 0 {
		ve.Add("alerts.ttl", "must be positive")
	}

	return ve.Err()
}
