// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package kv

import (
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/storage"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var (
	writeOpt = opt.WriteOptions{}
	readOpt  = opt.ReadOptions{}
	scanOpt  = opt.ReadOptions{DontFillCache: true}
)

// Options optional parameters for the leveldb backed store.
type Options struct {
	// CacheSizeMB is the size of the block cache.
	CacheSizeMB int
	// OpenFilesCacheCapacity is the capacity of open files caching.
	OpenFilesCacheCapacity int
}

type levelStore struct {
	db *leveldb.DB
}

// Open opens or creates a persistent store at the given path.
func Open(path string, opts Options) (StoreCloser, error) {
	stg, err := storage.OpenFile(path, false)
	if err != nil {
		return nil, errors.Wrap(err, "open level storage")
	}
	return openLevelDB(stg, opts)
}

// NewMem creates a store in memory. It never fails.
func NewMem() StoreCloser {
	s, err := openLevelDB(storage.NewMemStorage(), Options{})
	if err != nil {
		panic(err)
	}
	return s
}

func openLevelDB(stg storage.Storage, opts Options) (StoreCloser, error) {
	if opts.CacheSizeMB < 16 {
		opts.CacheSizeMB = 16
	}
	if opts.OpenFilesCacheCapacity < 16 {
		opts.OpenFilesCacheCapacity = 16
	}

	db, err := leveldb.Open(stg, &opt.Options{
		OpenFilesCacheCapacity: opts.OpenFilesCacheCapacity,
		BlockCacheCapacity:     opts.CacheSizeMB / 2 * opt.MiB,
		WriteBuffer:            opts.CacheSizeMB / 4 * opt.MiB,
		Filter:                 filter.NewBloomFilter(10),
	})
	if err != nil {
		return nil, errors.Wrap(err, "open level db")
	}
	return &levelStore{db}, nil
}

func (s *levelStore) Close() error {
	return s.db.Close()
}

func (s *levelStore) IsNotFound(err error) bool {
	return errors.Is(err, leveldb.ErrNotFound)
}

func (s *levelStore) Get(key []byte) ([]byte, error) {
	val, err := s.db.Get(key, &readOpt)
	// val will be []byte{} if error occurs, which is not expected
	if err != nil {
		return nil, err
	}
	return val, nil
}

func (s *levelStore) Has(key []byte) (bool, error) {
	return s.db.Has(key, &readOpt)
}

func (s *levelStore) Put(key, val []byte) error {
	return s.db.Put(key, val, &writeOpt)
}

func (s *levelStore) Delete(key []byte) error {
	return s.db.Delete(key, &writeOpt)
}

func (s *levelStore) Bulk() Bulk {
	batch := &leveldb.Batch{}
	return &struct {
		PutFunc
		DeleteFunc
		WriteFunc
	}{
		func(key, val []byte) error {
			batch.Put(key, val)
			return nil
		},
		func(key []byte) error {
			batch.Delete(key)
			return nil
		},
		func() error {
			if batch.Len() == 0 {
				return nil
			}
			err := s.db.Write(batch, &writeOpt)
			batch.Reset()
			return err
		},
	}
}

func (s *levelStore) Iterate(r Range) Iterator {
	return s.db.NewIterator(&util.Range{Start: r.Start, Limit: r.Limit}, &scanOpt)
}
