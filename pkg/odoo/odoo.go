// Package odoo talks to the target Odoo instance over its external XML-RPC
// API. Only two model operations are used: search_read for reconciliation and
// create for the batch upload.
package odoo

import (
	"errors"
	"fmt"

	"github.com/kolo/xmlrpc"
)

var (
	// ErrStoreUnreachable means the instance could not be reached at all.
	ErrStoreUnreachable = errors.New("odoo unreachable")
	// ErrBadLogin means authentication was refused for the configured
	// database, username or password.
	ErrBadLogin = errors.New("odoo authentication failed")
	// ErrAuthOrModel means the instance rejected a model query, which in
	// practice is a bad session or a bad model name. Never retried.
	ErrAuthOrModel = errors.New("odoo rejected the query: bad credentials or model name")
	// ErrBatchCreate means the batch create call failed. The run aborts:
	// there is no per-record retry and no rollback.
	ErrBatchCreate = errors.New("odoo batch create failed")
)

// Logger matches the logging surface of logrus.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type caller interface {
	Call(serviceMethod string, args interface{}, reply interface{}) error
}

// NamedRecord is the slice of an existing record reconciliation cares about.
type NamedRecord struct {
	ID   int64  `xmlrpc:"id"`
	Name string `xmlrpc:"name"`
}

// Client is an authenticated handle on one Odoo database.
type Client struct {
	db       string
	username string
	password string
	uid      int64

	common caller
	object caller

	log Logger
}

// NewClient dials the common and object endpoints of an Odoo instance.
// Call Login before using any model operation.
func NewClient(url, db, username, password string, log Logger) (*Client, error) {
	common, err := xmlrpc.NewClient(url+"/xmlrpc/2/common", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreachable, url, err)
	}
	object, err := xmlrpc.NewClient(url+"/xmlrpc/2/object", nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreachable, url, err)
	}
	return &Client{
		db:       db,
		username: username,
		password: password,
		common:   common,
		object:   object,
		log:      log,
	}, nil
}

// Login authenticates against the configured database and keeps the uid for
// subsequent execute_kw calls.
func (c *Client) Login() error {
	// The reply is either an integer uid or the boolean false for wrong
	// credentials, so it has to be decoded into an untyped value.
	var reply interface{}
	err := c.common.Call("authenticate", []interface{}{c.db, c.username, c.password, map[string]interface{}{}}, &reply)
	if err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return fmt.Errorf("%w: database %q: %s", ErrBadLogin, c.db, fault.String)
		}
		return fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	uid, ok := reply.(int64)
	if !ok || uid == 0 {
		return fmt.Errorf("%w: database %q", ErrBadLogin, c.db)
	}
	c.uid = uid
	return nil
}

// SearchReadNames retrieves id and name of every record of the model that has
// a non-empty name.
func (c *Client) SearchReadNames(model string) ([]NamedRecord, error) {
	var out []NamedRecord
	args := []interface{}{
		c.db, c.uid, c.password, model, "search_read",
		[]interface{}{[]interface{}{[]interface{}{"name", "!=", ""}}},
		map[string]interface{}{"fields": []string{"name"}},
	}
	if err := c.object.Call("execute_kw", args, &out); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return nil, fmt.Errorf("%w: model %q: %s", ErrAuthOrModel, model, fault.String)
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnreachable, err)
	}
	return out, nil
}

// CreateBatch submits all records in one create call and returns the newly
// assigned ids in submission order.
func (c *Client) CreateBatch(model string, records []map[string]interface{}) ([]int64, error) {
	values := make([]interface{}, 0, len(records))
	for _, r := range records {
		values = append(values, r)
	}

	var ids []int64
	args := []interface{}{
		c.db, c.uid, c.password, model, "create",
		[]interface{}{values},
	}
	if err := c.object.Call("execute_kw", args, &ids); err != nil {
		var fault xmlrpc.FaultError
		if errors.As(err, &fault) {
			return nil, fmt.Errorf("%w: model %q: %s", ErrBatchCreate, model, fault.String)
		}
		return nil, fmt.Errorf("%w: model %q: %v", ErrBatchCreate, model, err)
	}
	return ids, nil
}
