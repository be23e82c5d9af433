package rpcpool

import (
	"fmt"
	"net/rpc"
)

// Client is a thin net/rpc client for a Server.
type Client struct {
	client *rpc.Client
}

// Dial connects to a Server listening at address.
func Dial(address string) (*Client, error) {
	client, err := rpc.Dial("tcp", address)
	if err != nil {
		return nil, fmt.Errorf("rpcpool: dial: %w", err)
	}
	return &Client{client: client}, nil
}

// Allocate requests size bytes from the remote pool.
func (c *Client) Allocate(size uint64) (uint64, bool, error) {
	req := &AllocRequest{Size: size}
	resp := &AllocResponse{}

	if err := c.client.Call("Server.Allocate", req, resp); err != nil {
		return 0, false, fmt.Errorf("rpcpool: Allocate call failed: %w", err)
	}
	return resp.Addr, resp.Ok, nil
}

// Free returns addr/size to the remote pool.
func (c *Client) Free(addr, size uint64) error {
	req := &FreeRequest{Addr: addr, Size: size}
	resp := &FreeResponse{}

	if err := c.client.Call("Server.Free", req, resp); err != nil {
		return fmt.Errorf("rpcpool: Free call failed: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	return c.client.Close()
}
