package store

import "time"

// Meta is embedded in every persisted record.
type Meta struct {
	CreatedTime   time.Time `json:"createdTime"`
	LastEditTime  time.Time `json:"lastEditTime"`
	SchemaVersion int       `json:"schemaVersion"`
}

func (m *Meta) Metadata() *Meta {
	return m
}

// Record is implemented by pointer types persisted in a Table.
type Record interface {
	RecordKey() Key
	Metadata() *Meta
}
