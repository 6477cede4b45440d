// Package client is a thin library over the wire protocol: one dial,
// one request, one response, one close, matching the server's
// per-connection contract.
package client

import (
	"errors"
	"fmt"
	"net"
	"time"

	"kvs/internal/wire"
)

// ErrKeyNotFound mirrors the server's Err("Key not found") response,
// so callers can branch on it with errors.Is instead of string
// comparison.
var ErrKeyNotFound = errors.New("client: key not found")

// Client issues requests against one server address.
type Client struct {
	addr   string
	dialer net.Dialer
}

// New returns a Client targeting addr. No connection is made until a
// request is issued.
func New(addr string) *Client {
	return &Client{addr: addr, dialer: net.Dialer{Timeout: 5 * time.Second}}
}

func (c *Client) roundTrip(req wire.Request) (wire.Response, error) {
	conn, err := c.dialer.Dial("tcp", c.addr)
	if err != nil {
		return wire.Response{}, fmt.Errorf("client: dial %s: %w", c.addr, err)
	}
	defer conn.Close()

	if err := wire.WriteRequest(conn, req); err != nil {
		return wire.Response{}, err
	}
	resp, err := wire.ReadResponse(conn)
	if err != nil {
		return wire.Response{}, err
	}
	return resp, nil
}

// Get returns key's value, or found=false if it is absent.
func (c *Client) Get(key string) (value string, found bool, err error) {
	resp, err := c.roundTrip(wire.Request{Kind: wire.ReqGet, Key: key})
	if err != nil {
		return "", false, err
	}
	if resp.Kind == wire.RespErr {
		return "", false, errors.New(resp.Err)
	}
	return resp.Value, resp.HasValue, nil
}

// Set writes key -> value.
func (c *Client) Set(key, value string) error {
	resp, err := c.roundTrip(wire.Request{Kind: wire.ReqSet, Key: key, Value: value})
	if err != nil {
		return err
	}
	if resp.Kind == wire.RespErr {
		return errors.New(resp.Err)
	}
	return nil
}

// Remove deletes key, returning ErrKeyNotFound if the server reports
// it was absent.
func (c *Client) Remove(key string) error {
	resp, err := c.roundTrip(wire.Request{Kind: wire.ReqRemove, Key: key})
	if err != nil {
		return err
	}
	if resp.Kind == wire.RespErr {
		if resp.Err == "Key not found" {
			return ErrKeyNotFound
		}
		return errors.New(resp.Err)
	}
	return nil
}
