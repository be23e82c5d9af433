// Package rpcpool exposes a poolfront.Pool over net/rpc, replaying the
// shape of the teacher repository's rpc.Server/rpc.Client: a thin request/
// response wrapper around Allocate/Free, registered with the standard
// library's net/rpc and served over a TCP listener.
package rpcpool

import (
	"fmt"
	"net"
	"net/rpc"
	"sync"
	"unsafe"

	"github.com/shenjiangwei/buddyheap/poolfront"
)

// AllocRequest carries a size to allocate.
type AllocRequest struct {
	Size uint64
}

// AllocResponse carries the resulting address, encoded as a plain
// integer since unsafe.Pointer values cannot cross the wire.
type AllocResponse struct {
	Addr uint64
	Ok   bool
}

// FreeRequest carries an address/size pair to return to the pool.
type FreeRequest struct {
	Addr uint64
	Size uint64
}

// FreeResponse is empty; Free cannot fail per buddy.BuddyAllocator's
// contract (spec.md §4.4), so there is nothing to report.
type FreeResponse struct{}

// Server wraps a poolfront.Pool for net/rpc dispatch.
type Server struct {
	pool *poolfront.Pool
	mu   sync.Mutex

	listener net.Listener
}

// NewServer wraps pool for RPC serving and registers it with the default
// net/rpc server.
func NewServer(pool *poolfront.Pool) (*Server, error) {
	s := &Server{pool: pool}
	if err := rpc.Register(s); err != nil {
		return nil, fmt.Errorf("rpcpool: register: %w", err)
	}
	return s, nil
}

// Start listens on address and serves RPC connections until Stop is
// called or the listener errors.
func (s *Server) Start(address string) error {
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("rpcpool: listen: %w", err)
	}
	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()

	for {
		conn, err := listener.Accept()
		if err != nil {
			return nil
		}
		go rpc.ServeConn(conn)
	}
}

// Addr returns the listener's bound address. It is only meaningful after
// Start has been called and returns "" otherwise.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop closes the listener, ending Start's accept loop.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Allocate is the RPC-exported allocation method.
func (s *Server) Allocate(req *AllocRequest, resp *AllocResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ptr, ok := s.pool.Allocate(uintptr(req.Size))
	resp.Ok = ok
	if ok {
		resp.Addr = uint64(uintptr(ptr))
	}
	return nil
}

// Free is the RPC-exported free method.
func (s *Server) Free(req *FreeRequest, resp *FreeResponse) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pool.Free(unsafe.Pointer(uintptr(req.Addr)), uintptr(req.Size))
	return nil
}

// Close releases the pool's pre-allocated blocks and stops the listener.
func (s *Server) Close() error {
	s.mu.Lock()
	s.pool.Close()
	s.mu.Unlock()

	return s.Stop()
}
