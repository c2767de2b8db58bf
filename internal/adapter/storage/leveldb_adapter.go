package storage

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	ldb_util "github.com/syndtr/goleveldb/leveldb/util"

	"github.com/rl1809/marketplace/internal/core/domain"
	"github.com/rl1809/marketplace/internal/port"
)

// key prefixes
const (
	itemPrefix     = 'I' // address -> item account data
	itemMetaPrefix = 'M' // address -> version | created | updated
	receiptPrefix  = 'R' // item id | created | receipt id -> receipt json
)

const itemMetaSize = 24

// LevelDBAdapter keeps item records in the account binary layout, keyed by address.
type LevelDBAdapter struct {
	mu sync.Mutex
	db *leveldb.DB
}

func NewLevelDBAdapter(db *leveldb.DB) *LevelDBAdapter {
	return &LevelDBAdapter{db: db}
}

func OpenLevelDB(path string) (*LevelDBAdapter, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open leveldb %s: %w", path, err)
	}
	return NewLevelDBAdapter(db), nil
}

func (l *LevelDBAdapter) Close() error {
	return l.db.Close()
}

func (l *LevelDBAdapter) CreateItem(_ context.Context, item domain.Item) error {
	data, err := item.MarshalBinary()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	address := item.Address()
	found, err := l.db.Has(itemKey(itemPrefix, address), nil)
	if err != nil {
		return fmt.Errorf("check item: %w", err)
	}
	if found {
		return port.ErrItemExists
	}

	batch := new(leveldb.Batch)
	batch.Put(itemKey(itemPrefix, address), data)
	batch.Put(itemKey(itemMetaPrefix, address), encodeMeta(0, item.CreatedAt, item.UpdatedAt))
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write item: %w", err)
	}
	return nil
}

func (l *LevelDBAdapter) GetItem(_ context.Context, id uint64) (*domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.get(domain.ItemAddress(id))
}

func (l *LevelDBAdapter) UpdateItem(_ context.Context, item domain.Item) error {
	data, err := item.MarshalBinary()
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	address := item.Address()
	stored, err := l.get(address)
	if err != nil {
		return err
	}
	if stored.Version != item.Version {
		return port.ErrOptimisticLock
	}

	batch := new(leveldb.Batch)
	batch.Put(itemKey(itemPrefix, address), data)
	batch.Put(itemKey(itemMetaPrefix, address), encodeMeta(item.Version+1, stored.CreatedAt, item.UpdatedAt))
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("write item: %w", err)
	}
	return nil
}

func (l *LevelDBAdapter) DeleteItem(_ context.Context, id uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	address := domain.ItemAddress(id)
	found, err := l.db.Has(itemKey(itemPrefix, address), nil)
	if err != nil {
		return fmt.Errorf("check item: %w", err)
	}
	if !found {
		return port.ErrItemNotFound
	}

	batch := new(leveldb.Batch)
	batch.Delete(itemKey(itemPrefix, address))
	batch.Delete(itemKey(itemMetaPrefix, address))
	if err := l.db.Write(batch, nil); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	return nil
}

func (l *LevelDBAdapter) ListItems(_ context.Context) ([]domain.Item, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	iter := l.db.NewIterator(ldb_util.BytesPrefix([]byte{itemPrefix}), nil)
	defer iter.Release()

	var items []domain.Item
	for iter.Next() {
		var item domain.Item
		if err := item.UnmarshalBinary(iter.Value()); err != nil {
			return nil, fmt.Errorf("decode item: %w", err)
		}
		if err := l.loadMeta(&item); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}

	slices.SortFunc(items, func(a, b domain.Item) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return items, nil
}

func (l *LevelDBAdapter) SaveReceipt(_ context.Context, receipt domain.Receipt) error {
	data, err := json.Marshal(receipt)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	key := receiptKey(receipt.ItemID)
	key = binary.BigEndian.AppendUint64(key, uint64(receipt.CreatedAt.UnixNano()))
	key = append(key, receipt.ID...)
	if err := l.db.Put(key, data, nil); err != nil {
		return fmt.Errorf("write receipt: %w", err)
	}
	return nil
}

// ListReceipts returns the receipts of an item, newest first.
func (l *LevelDBAdapter) ListReceipts(_ context.Context, itemID uint64) ([]domain.Receipt, error) {
	iter := l.db.NewIterator(ldb_util.BytesPrefix(receiptKey(itemID)), nil)
	defer iter.Release()

	var receipts []domain.Receipt
	for iter.Next() {
		var receipt domain.Receipt
		if err := json.Unmarshal(iter.Value(), &receipt); err != nil {
			return nil, fmt.Errorf("decode receipt: %w", err)
		}
		receipts = append(receipts, receipt)
	}
	if err := iter.Error(); err != nil {
		return nil, fmt.Errorf("iterate receipts: %w", err)
	}

	slices.Reverse(receipts)
	return receipts, nil
}

func (l *LevelDBAdapter) get(address domain.Address) (*domain.Item, error) {
	data, err := l.db.Get(itemKey(itemPrefix, address), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, port.ErrItemNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read item: %w", err)
	}

	var item domain.Item
	if err := item.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode item: %w", err)
	}
	if err := l.loadMeta(&item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (l *LevelDBAdapter) loadMeta(item *domain.Item) error {
	meta, err := l.db.Get(itemKey(itemMetaPrefix, item.Address()), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read item meta: %w", err)
	}
	if len(meta) != itemMetaSize {
		return fmt.Errorf("item meta: %w", domain.ErrInvalidAccount)
	}

	item.Version = int64(binary.BigEndian.Uint64(meta))
	item.CreatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(meta[8:]))).UTC()
	item.UpdatedAt = time.Unix(0, int64(binary.BigEndian.Uint64(meta[16:]))).UTC()
	return nil
}

func itemKey(prefix byte, address domain.Address) []byte {
	key := make([]byte, 0, 1+len(address))
	key = append(key, prefix)
	return append(key, address[:]...)
}

func receiptKey(itemID uint64) []byte {
	key := make([]byte, 0, 1+8+8+32)
	key = append(key, receiptPrefix)
	return binary.BigEndian.AppendUint64(key, itemID)
}

func encodeMeta(version int64, created, updated time.Time) []byte {
	buf := make([]byte, 0, itemMetaSize)
	buf = binary.BigEndian.AppendUint64(buf, uint64(version))
	buf = binary.BigEndian.AppendUint64(buf, uint64(created.UnixNano()))
	return binary.BigEndian.AppendUint64(buf, uint64(updated.UnixNano()))
}
