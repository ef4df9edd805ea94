package models

import "time"

type Record struct {
	Key       []byte
	Value     []byte
	Topic     string
	Partition int32
	Offset    int64
	Timestamp time.Time
}

// ObjectCreated is published whenever a new object lands in the data bucket.
type ObjectCreated struct {
	Bucket string    `json:"bucket"`
	Key    string    `json:"key"`
	Size   int64     `json:"size"`
	Time   time.Time `json:"time"`
}
