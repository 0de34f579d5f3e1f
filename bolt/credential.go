package bolt

import (
	"context"

	"github.com/knoxite/admin"
	"github.com/knoxite/admin/session"
	bolt "go.etcd.io/bbolt"
)

var credentialsBucket = []byte("credentialsv1")

func (c *Client) initializeCredentials(ctx context.Context, tx *bolt.Tx) error {
	if _, err := tx.CreateBucketIfNotExists(credentialsBucket); err != nil {
		return err
	}
	return nil
}

// CredentialStore is a session.Store holding the credential for one server
// address.
type CredentialStore struct {
	client *Client
	key    []byte
}

var _ session.Store = (*CredentialStore)(nil)

// CredentialStore returns the store for the server at addr.
func (c *Client) CredentialStore(addr string) *CredentialStore {
	return &CredentialStore{client: c, key: []byte(addr)}
}

// Load returns the stored credential or an empty one.
func (s *CredentialStore) Load(ctx context.Context) (admin.Credential, error) {
	var cred admin.Credential
	err := s.client.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(credentialsBucket).Get(s.key); v != nil {
			cred = admin.Credential(v)
		}
		return nil
	})
	return cred, err
}

// Save replaces the stored credential.
func (s *CredentialStore) Save(ctx context.Context, cred admin.Credential) error {
	return s.client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Put(s.key, []byte(cred.Token()))
	})
}

// Clear removes the stored credential.
func (s *CredentialStore) Clear(ctx context.Context) error {
	return s.client.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).Delete(s.key)
	})
}

// Servers lists the addresses that have a stored credential.
func (c *Client) Servers(ctx context.Context) ([]string, error) {
	var addrs []string
	err := c.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(credentialsBucket).ForEach(func(k, _ []byte) error {
			addrs = append(addrs, string(k))
			return nil
		})
	})
	return addrs, err
}
