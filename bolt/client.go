package bolt

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/inmem"
	bolt "go.etcd.io/bbolt"
)

var clientsBucket = []byte("clientsv1")

func (c *Client) initializeClients(ctx context.Context, tx *bolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(clientsBucket); err != nil {
		return err
	}
	return nil
}

// ClientStore persists the clients of an inmem.Service.
type ClientStore struct {
	client *Client
}

var _ inmem.Persister = (*ClientStore)(nil)

// ClientStore returns the store for server side client records.
func (c *Client) ClientStore() *ClientStore {
	return &ClientStore{client: c}
}

// LoadClients returns every stored client ordered by ID.
func (s *ClientStore) LoadClients(ctx context.Context) ([]admin.Client, error) {
	var clients []admin.Client
	err := s.client.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(clientsBucket).ForEach(func(k, v []byte) error {
			var c admin.Client
			if err := json.Unmarshal(v, &c); err != nil {
				return &admin.Error{
					Code: admin.EInternal,
					Msg:  fmt.Sprintf("client %x is corrupt", k),
					Err:  err,
				}
			}
			clients = append(clients, c)
			return nil
		})
	})
	if err != nil {
		return nil, &admin.Error{Op: "bolt/LoadClients", Err: err}
	}
	return clients, nil
}

// PutClient stores c under its ID, replacing any previous version.
func (s *ClientStore) PutClient(ctx context.Context, c admin.Client) error {
	v, err := json.Marshal(c)
	if err != nil {
		return err
	}
	err = s.client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientsBucket).Put(encodeID(c.ID), v)
	})
	if err != nil {
		return &admin.Error{Code: admin.EInternal, Op: "bolt/PutClient", Err: err}
	}
	return nil
}

// DeleteClient removes the client with id. Missing clients are ignored.
func (s *ClientStore) DeleteClient(ctx context.Context, id admin.ID) error {
	err := s.client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(clientsBucket).Delete(encodeID(id))
	})
	if err != nil {
		return &admin.Error{Code: admin.EInternal, Op: "bolt/DeleteClient", Err: err}
	}
	return nil
}

// encodeID keys clients big-endian so ForEach yields them in ID order.
func encodeID(id admin.ID) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}
