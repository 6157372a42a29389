// Package discovery implements the Alpaca UDP discovery responder:
// spec.md §5's broadcast listener on port 32227 that answers the
// literal message "alpacadiscovery1" with the JSON-encoded Alpaca TCP
// port. The poll loop is carried over from the original implementation's
// non-blocking-read-then-sleep(1s) shape (alpaca_hub_server.cpp), recast
// as a cancellable goroutine instead of a bytes-readable ioctl spin.
package discovery

import (
	"encoding/json"
	"net"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Port is the fixed Alpaca discovery UDP port (spec.md §5).
const Port = 32227

const discoveryMessage = "alpacadiscovery1"

const pollInterval = time.Second

// discoveryResponse is the JSON body of an ALPACA DISCOVERY RESPONSE.
type discoveryResponse struct {
	AlpacaPort int `json:"AlpacaPort"`
}

// Responder answers Alpaca discovery broadcasts with the configured
// Alpaca HTTP port until Stop is called.
type Responder struct {
	conn       *net.UDPConn
	alpacaPort int
	log        *zap.Logger
	stopped    int32
}

// New binds the discovery UDP socket. alpacaPort is the TCP port the
// HTTP server is listening on, reported back to discovering clients.
func New(alpacaPort int, log *zap.Logger) (*Responder, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: Port})
	if err != nil {
		return nil, err
	}
	return &Responder{conn: conn, alpacaPort: alpacaPort, log: log}, nil
}

// Serve polls the socket for discovery messages until Stop is called or
// the socket is closed. It reads with a short deadline so the stop flag
// is re-checked every pollInterval rather than blocking forever on a
// read, matching the original's 1-second poll cadence without busy-ioctl
// polling.
func (r *Responder) Serve() {
	buf := make([]byte, 1024)
	for atomic.LoadInt32(&r.stopped) == 0 {
		_ = r.conn.SetReadDeadline(time.Now().Add(pollInterval))
		n, addr, err := r.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			if atomic.LoadInt32(&r.stopped) != 0 {
				return
			}
			r.log.Warn("discovery read failed", zap.Error(err))
			continue
		}
		if string(buf[:n]) != discoveryMessage {
			r.log.Debug("ignoring non-discovery datagram", zap.String("payload", string(buf[:n])))
			continue
		}
		r.log.Debug("received discovery broadcast", zap.String("from", addr.String()))
		body, err := json.Marshal(discoveryResponse{AlpacaPort: r.alpacaPort})
		if err != nil {
			r.log.Error("failed to encode discovery response", zap.Error(err))
			continue
		}
		if _, err := r.conn.WriteToUDP(body, addr); err != nil {
			r.log.Warn("discovery response send failed", zap.Error(err))
		}
	}
}

// Stop halts Serve and closes the socket. Safe to call once.
func (r *Responder) Stop() {
	atomic.StoreInt32(&r.stopped, 1)
	_ = r.conn.Close()
}
