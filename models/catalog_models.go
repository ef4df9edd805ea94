package models

import "time"

type Column struct {
	Name string `json:"name" bson:"name"`
	Type string `json:"type" bson:"type"`
}

// CatalogTable is the schema registered by a crawler for one storage prefix.
type CatalogTable struct {
	Database      string    `json:"database" bson:"database"`
	Name          string    `json:"name" bson:"name"`
	Location      string    `json:"location" bson:"location"`
	Format        string    `json:"format" bson:"format"`
	Columns       []Column  `json:"columns" bson:"columns"`
	PartitionKeys []string  `json:"partition_keys" bson:"partition_keys"`
	Partitions    []string  `json:"partitions" bson:"partitions"`
	ObjectCount   int       `json:"object_count" bson:"object_count"`
	UpdatedAt     time.Time `json:"updated_at" bson:"updated_at"`
}

// Bookmark tracks the source objects a job has already consumed.
type Bookmark struct {
	Job       string    `json:"job" bson:"_id"`
	Processed []string  `json:"processed" bson:"processed"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}
