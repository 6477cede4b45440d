package server

import (
	"net"
	"testing"
	"time"

	"kvs/internal/boltengine"
	"kvs/internal/engine"
	"kvs/internal/pool"
	"kvs/internal/wire"
)

func startTestServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	eng, err := engine.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatalf("engine.Open() error = %v", err)
	}
	return startServerWithEngine(t, eng)
}

func startServerWithEngine(t *testing.T, eng engine.Engine) (addr string, stop func()) {
	t.Helper()

	p, err := pool.NewNaivePool(4)
	if err != nil {
		t.Fatalf("pool.NewNaivePool() error = %v", err)
	}

	s := New("127.0.0.1:0", eng, p, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	s.addr = ln.Addr().String()
	ln.Close()

	done := make(chan struct{})
	go func() {
		s.Run()
		close(done)
	}()

	// Give the accept loop a moment to start listening.
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		conn, err := net.Dial("tcp", s.addr)
		if err == nil {
			conn.Close()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	return s.addr, func() {
		s.Stop()
		<-done
		p.Close()
		eng.Close()
	}
}

func doRequest(t *testing.T, addr string, req wire.Request) wire.Response {
	t.Helper()
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		t.Fatalf("net.Dial() error = %v", err)
	}
	defer conn.Close()

	if err := wire.WriteRequest(conn, req); err != nil {
		t.Fatalf("WriteRequest() error = %v", err)
	}
	resp, err := wire.ReadResponse(conn)
	if err != nil {
		t.Fatalf("ReadResponse() error = %v", err)
	}
	return resp
}

func TestServer_SetGetRemove(t *testing.T) {
	addr, stop := startTestServer(t)
	defer stop()

	resp := doRequest(t, addr, wire.Request{Kind: wire.ReqSet, Key: "k", Value: "v"})
	if resp.Kind != wire.RespOK {
		t.Fatalf("Set response = %+v, want Ok", resp)
	}

	resp = doRequest(t, addr, wire.Request{Kind: wire.ReqGet, Key: "k"})
	if resp.Kind != wire.RespOK || !resp.HasValue || resp.Value != "v" {
		t.Fatalf("Get response = %+v, want Ok(Some(v))", resp)
	}

	resp = doRequest(t, addr, wire.Request{Kind: wire.ReqGet, Key: "missing"})
	if resp.Kind != wire.RespOK || resp.HasValue {
		t.Fatalf("Get(missing) response = %+v, want Ok(None)", resp)
	}

	resp = doRequest(t, addr, wire.Request{Kind: wire.ReqRemove, Key: "k"})
	if resp.Kind != wire.RespOK {
		t.Fatalf("Remove response = %+v, want Ok", resp)
	}

	resp = doRequest(t, addr, wire.Request{Kind: wire.ReqRemove, Key: "k"})
	if resp.Kind != wire.RespErr || resp.Err != "Key not found" {
		t.Fatalf("Remove(missing) response = %+v, want Err(Key not found)", resp)
	}
}

// TestServer_GetWithoutReaderProvider exercises the fallback path in
// dispatch: BoltEngine implements engine.Engine but not
// engine.ReaderProvider, so handleConn must fall back to s.eng.Get
// instead of obtaining a per-connection Reader.
func TestServer_GetWithoutReaderProvider(t *testing.T) {
	eng, err := boltengine.Open(t.TempDir())
	if err != nil {
		t.Fatalf("boltengine.Open() error = %v", err)
	}
	addr, stop := startServerWithEngine(t, eng)
	defer stop()

	resp := doRequest(t, addr, wire.Request{Kind: wire.ReqSet, Key: "k", Value: "v"})
	if resp.Kind != wire.RespOK {
		t.Fatalf("Set response = %+v, want Ok", resp)
	}

	resp = doRequest(t, addr, wire.Request{Kind: wire.ReqGet, Key: "k"})
	if resp.Kind != wire.RespOK || !resp.HasValue || resp.Value != "v" {
		t.Fatalf("Get response = %+v, want Ok(Some(v))", resp)
	}
}
