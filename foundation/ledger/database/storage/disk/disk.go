// Package disk implements the ability to read and write blocks to an
// embedded key/value store on disk. Blocks are keyed by their big endian
// number so iteration is height ordered, with the content hash kept as a
// secondary index.
package disk

import (
	"encoding/binary"
	"encoding/json"

	"go.etcd.io/bbolt"

	"github.com/startrail/starregistry/foundation/ledger/database"
)

var (
	blocksBucket = []byte("blocks")
	hashesBucket = []byte("hashes")
)

// Disk represents the storage implementation for reading and storing blocks
// in an embedded store on disk. This implements the database.Storage
// interface.
type Disk struct {
	db *bbolt.DB
}

// New opens or creates the store at the specified path.
func New(dbPath string) (*Disk, error) {
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(blocksBucket); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(hashesBucket); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &Disk{db: db}, nil
}

// Close releases the underlying store.
func (d *Disk) Close() error {
	return d.db.Close()
}

// Write takes the specified block and stores it on disk, updating the hash
// index in the same transaction.
func (d *Disk) Write(block database.Block) error {
	data, err := json.Marshal(block)
	if err != nil {
		return err
	}

	return d.db.Update(func(tx *bbolt.Tx) error {
		key := numToKey(block.Header.Number)

		if err := tx.Bucket(blocksBucket).Put(key, data); err != nil {
			return err
		}

		return tx.Bucket(hashesBucket).Put([]byte(block.Hash), key)
	})
}

// GetBlock searches the store to locate and return the contents of the
// specified block by number.
func (d *Disk) GetBlock(num uint64) (database.Block, error) {
	var block database.Block

	err := d.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(blocksBucket).Get(numToKey(num))
		if data == nil {
			return database.ErrNotFound
		}

		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// GetBlockByHash resolves the specified content hash through the secondary
// index and returns the matching block.
func (d *Disk) GetBlockByHash(hash string) (database.Block, error) {
	var block database.Block

	err := d.db.View(func(tx *bbolt.Tx) error {
		key := tx.Bucket(hashesBucket).Get([]byte(hash))
		if key == nil {
			return database.ErrNotFound
		}

		data := tx.Bucket(blocksBucket).Get(key)
		if data == nil {
			return database.ErrNotFound
		}

		return json.Unmarshal(data, &block)
	})
	if err != nil {
		return database.Block{}, err
	}

	return block, nil
}

// ForEach returns an iterator to walk through all the blocks starting
// with the genesis block.
func (d *Disk) ForEach() database.Iterator {
	return &diskIterator{disk: d}
}

// Reset clears out the stored chain.
func (d *Disk) Reset() error {
	return d.db.Update(func(tx *bbolt.Tx) error {
		for _, bucket := range [][]byte{blocksBucket, hashesBucket} {
			if err := tx.DeleteBucket(bucket); err != nil {
				return err
			}
			if _, err := tx.CreateBucket(bucket); err != nil {
				return err
			}
		}
		return nil
	})
}

// numToKey converts a block number into the big endian key format that
// keeps the blocks bucket height ordered.
func numToKey(num uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, num)
	return key
}

// =============================================================================

// diskIterator represents the iteration implementation for walking through
// and reading blocks on disk. This implements the database Iterator
// interface.
type diskIterator struct {
	disk    *Disk  // Access to the storage API.
	current uint64 // Current block number being iterated over.
	eoc     bool   // Represents the iterator is at the end of the chain.
}

// Next retrieves the next block from disk.
func (di *diskIterator) Next() (database.Block, error) {
	if di.eoc {
		return database.Block{}, database.ErrNotFound
	}

	block, err := di.disk.GetBlock(di.current)
	if err != nil {
		di.eoc = true
	}

	di.current++

	return block, err
}

// Done returns the end of chain value.
func (di *diskIterator) Done() bool {
	return di.eoc
}
