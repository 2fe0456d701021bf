package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sandbox-pool/infra/packages/shared/pkg/logger"
)

const DefaultPageSize = 50

type ListOptions[T Record] struct {
	PageIdentifier *string
	PageSize       int
	// Filter is applied to decoded records; nil keeps everything.
	Filter func(T) bool
}

type Page[T Record] struct {
	Items              []T
	NextPageIdentifier *string
}

// Table is a typed view over a Backend namespace. It stamps metadata on every
// write and refuses records written under a different schema version.
type Table[T Record] struct {
	backend       Backend
	namespace     string
	schemaVersion int
	newRecord     func() T
	now           func() time.Time
}

type TableOption func(*tableOptions)

type tableOptions struct {
	now func() time.Time
}

func WithClock(now func() time.Time) TableOption {
	return func(o *tableOptions) {
		o.now = now
	}
}

func NewTable[T Record](backend Backend, namespace string, schemaVersion int, newRecord func() T, opts ...TableOption) *Table[T] {
	o := tableOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}

	return &Table[T]{
		backend:       backend,
		namespace:     namespace,
		schemaVersion: schemaVersion,
		newRecord:     newRecord,
		now:           o.now,
	}
}

func (t *Table[T]) Namespace() string {
	return t.namespace
}

func (t *Table[T]) SchemaVersion() int {
	return t.schemaVersion
}

func (t *Table[T]) Get(ctx context.Context, key Key) (T, error) {
	var zero T

	data, err := t.backend.Get(ctx, t.namespace, key)
	if err != nil {
		return zero, err
	}

	return t.decode(key, data)
}

func (t *Table[T]) Create(ctx context.Context, item T) error {
	key := item.RecordKey()
	if err := t.checkVersion(key, item.Metadata()); err != nil {
		return err
	}

	now := t.timestamp()
	meta := item.Metadata()
	meta.CreatedTime = now
	meta.LastEditTime = now
	meta.SchemaVersion = t.schemaVersion

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %q: %w", t.namespace, key.String(), err)
	}

	return t.backend.Create(ctx, t.namespace, key, data)
}

// Put writes unconditionally. The previous record is returned for auditing,
// or the zero value when the key was free.
func (t *Table[T]) Put(ctx context.Context, item T) (T, error) {
	var zero T

	key := item.RecordKey()
	if err := t.checkVersion(key, item.Metadata()); err != nil {
		return zero, err
	}

	now := t.timestamp()
	meta := item.Metadata()
	if meta.CreatedTime.IsZero() {
		meta.CreatedTime = now
	}
	meta.LastEditTime = now
	meta.SchemaVersion = t.schemaVersion

	data, err := json.Marshal(item)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal %s %q: %w", t.namespace, key.String(), err)
	}

	previous, err := t.backend.Put(ctx, t.namespace, key, data)
	if err != nil {
		return zero, err
	}

	if previous == nil {
		return zero, nil
	}

	prev, err := t.decode(key, previous)
	if err != nil {
		// The write already happened, the previous value is only informational.
		logger.L().Warn(ctx, "failed to decode overwritten record", zap.String("namespace", t.namespace), zap.String("key", key.String()), zap.Error(err))

		return zero, nil
	}

	return prev, nil
}

// PutWithVersionCheck writes item only if the stored record still serializes
// exactly as expectedPrevious. item and expectedPrevious must be distinct values.
func (t *Table[T]) PutWithVersionCheck(ctx context.Context, item T, expectedPrevious T) error {
	key := item.RecordKey()
	if key != expectedPrevious.RecordKey() {
		return fmt.Errorf("key mismatch between %q and expected previous %q", key.String(), expectedPrevious.RecordKey().String())
	}

	if err := t.checkVersion(key, item.Metadata()); err != nil {
		return err
	}

	if err := t.checkVersion(key, expectedPrevious.Metadata()); err != nil {
		return err
	}

	expected, err := json.Marshal(expectedPrevious)
	if err != nil {
		return fmt.Errorf("failed to marshal expected %s %q: %w", t.namespace, key.String(), err)
	}

	meta := item.Metadata()
	meta.CreatedTime = expectedPrevious.Metadata().CreatedTime
	meta.LastEditTime = t.timestamp()
	meta.SchemaVersion = t.schemaVersion

	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal %s %q: %w", t.namespace, key.String(), err)
	}

	return t.backend.CompareAndSwap(ctx, t.namespace, key, expected, data)
}

func (t *Table[T]) Delete(ctx context.Context, key Key) error {
	return t.backend.Delete(ctx, t.namespace, key)
}

// DeleteWithVersionCheck removes the record only if it is unchanged since expectedPrevious was read.
func (t *Table[T]) DeleteWithVersionCheck(ctx context.Context, expectedPrevious T) error {
	key := expectedPrevious.RecordKey()
	if err := t.checkVersion(key, expectedPrevious.Metadata()); err != nil {
		return err
	}

	expected, err := json.Marshal(expectedPrevious)
	if err != nil {
		return fmt.Errorf("failed to marshal expected %s %q: %w", t.namespace, key.String(), err)
	}

	return t.backend.CompareAndDelete(ctx, t.namespace, key, expected)
}

func (t *Table[T]) List(ctx context.Context, opts ListOptions[T]) (Page[T], error) {
	after, err := DecodePageIdentifier(opts.PageIdentifier)
	if err != nil {
		return Page[T]{}, err
	}

	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}

	items := make([]T, 0, pageSize)
	for {
		batch, err := t.backend.Scan(ctx, t.namespace, after, pageSize)
		if err != nil {
			return Page[T]{}, err
		}

		for i, raw := range batch {
			item, err := t.decode(raw.Key, raw.Data)
			if err != nil {
				return Page[T]{}, err
			}

			if opts.Filter != nil && !opts.Filter(item) {
				continue
			}

			items = append(items, item)
			if len(items) == pageSize {
				if i == len(batch)-1 && len(batch) < pageSize {
					return Page[T]{Items: items}, nil
				}

				key := raw.Key

				return Page[T]{Items: items, NextPageIdentifier: EncodePageIdentifier(&key)}, nil
			}
		}

		if len(batch) < pageSize {
			return Page[T]{Items: items}, nil
		}

		last := batch[len(batch)-1].Key
		after = &last
	}
}

// ListAll walks every page.
func (t *Table[T]) ListAll(ctx context.Context, filter func(T) bool) ([]T, error) {
	var (
		all   []T
		token *string
	)

	for {
		page, err := t.List(ctx, ListOptions[T]{PageIdentifier: token, Filter: filter})
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)
		if page.NextPageIdentifier == nil {
			return all, nil
		}

		token = page.NextPageIdentifier
	}
}

func (t *Table[T]) decode(key Key, data []byte) (T, error) {
	var zero T

	var header struct {
		Meta Meta `json:"meta"`
	}
	if err := json.Unmarshal(data, &header); err != nil {
		return zero, fmt.Errorf("failed to unmarshal %s %q: %w", t.namespace, key.String(), err)
	}

	if header.Meta.SchemaVersion != t.schemaVersion {
		return zero, &SchemaMismatchError{Namespace: t.namespace, Key: key, Expected: t.schemaVersion, Actual: header.Meta.SchemaVersion}
	}

	item := t.newRecord()
	if err := json.Unmarshal(data, item); err != nil {
		return zero, fmt.Errorf("failed to unmarshal %s %q: %w", t.namespace, key.String(), err)
	}

	return item, nil
}

// checkVersion accepts a fresh record (version 0) or one at the table's version.
func (t *Table[T]) checkVersion(key Key, meta *Meta) error {
	if meta.SchemaVersion != 0 && meta.SchemaVersion != t.schemaVersion {
		return &SchemaMismatchError{Namespace: t.namespace, Key: key, Expected: t.schemaVersion, Actual: meta.SchemaVersion}
	}

	return nil
}

func (t *Table[T]) timestamp() time.Time {
	return t.now().UTC()
}
