package admin

import (
	"context"
	"strings"

	"github.com/knoxite/admin/units"
)

// Ops for client errors.
const (
	OpFindClients          = "FindClients"
	OpFindClientByID       = "FindClientByID"
	OpFindClientByAuthCode = "FindClientByAuthCode"
	OpCreateClient         = "CreateClient"
	OpUpdateClient         = "UpdateClient"
	OpDeleteClient         = "DeleteClient"
)

// ByteCount is an amount of storage in raw bytes.
type ByteCount uint64

// String formats the count in the largest readable unit, e.g. "12 kB".
func (b ByteCount) String() string {
	return units.Format(uint64(b))
}

// Client is a backup account holding a share of the storage capacity.
// UsedSpace is expected to stay at or below Quota but nothing here enforces
// it; usage is reported by the storage backend.
type Client struct {
	ID        ID        `json:"ID"`
	Name      string    `json:"Name"`
	Quota     ByteCount `json:"Quota"`
	UsedSpace ByteCount `json:"UsedSpace"`
	AuthCode  string    `json:"AuthCode"`
}

// Valid returns an error if the client cannot be stored.
func (c *Client) Valid() error {
	return ValidClientName(c.Name)
}

// ValidClientName checks a name used as a storage directory.
func ValidClientName(name string) error {
	switch {
	case strings.TrimSpace(name) == "":
		return &Error{
			Code: EEmptyValue,
			Msg:  "client name is required",
		}
	case strings.Contains(name, ".."), strings.ContainsAny(name, `/\`):
		return &Error{
			Code: EInvalid,
			Msg:  "client name must not contain path elements",
		}
	}
	return nil
}

// ClientUpdate is the set of mutable client fields. Nil fields are left
// untouched.
type ClientUpdate struct {
	Name  *string
	Quota *ByteCount
}

// Apply copies the set fields onto c.
func (u ClientUpdate) Apply(c *Client) {
	if u.Name != nil {
		c.Name = *u.Name
	}
	if u.Quota != nil {
		c.Quota = *u.Quota
	}
}

// ClientService manages client accounts.
type ClientService interface {
	// FindClients returns every client.
	FindClients(ctx context.Context) ([]*Client, error)

	// FindClientByID returns a single client by ID.
	FindClientByID(ctx context.Context, id ID) (*Client, error)

	// CreateClient creates a new client and sets c.ID and c.AuthCode.
	CreateClient(ctx context.Context, c *Client) error

	// UpdateClient updates a single client with the changeset.
	// Returns the new client state after update.
	UpdateClient(ctx context.Context, id ID, upd ClientUpdate) (*Client, error)

	// DeleteClient removes a client by ID.
	DeleteClient(ctx context.Context, id ID) error
}

// ClientAuthService resolves the bearer auth code a backup client presents.
type ClientAuthService interface {
	FindClientByAuthCode(ctx context.Context, code string) (*Client, error)
}

// TokenGenerator produces client auth codes.
type TokenGenerator interface {
	Token() (string, error)
}
