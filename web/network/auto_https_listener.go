// Package network lets a single TLS port answer plain-HTTP visitors with a
// redirect to the https URL they asked for.
package network

import (
	"bufio"
	"net"
	"net/http"
	"sync"
)

// recordTypeHandshake is the first byte of every TLS client hello.
const recordTypeHandshake = 0x16

// AutoHttpsListener wraps a net.Listener whose connections are normally TLS.
type AutoHttpsListener struct {
	net.Listener
}

// NewAutoHttpsListener wraps listener. Put it below tls.NewListener.
func NewAutoHttpsListener(listener net.Listener) net.Listener {
	return &AutoHttpsListener{Listener: listener}
}

// Accept implements net.Listener.
func (l *AutoHttpsListener) Accept() (net.Conn, error) {
	conn, err := l.Listener.Accept()
	if err != nil {
		return nil, err
	}
	return &autoHttpsConn{Conn: conn, r: bufio.NewReader(conn)}, nil
}

// autoHttpsConn inspects the first byte of a connection. A TLS handshake is
// passed through untouched; anything else is parsed as an HTTP request and
// answered with a 307 to the https URL.
type autoHttpsConn struct {
	net.Conn

	r    *bufio.Reader
	once sync.Once
	err  error
}

func (c *autoHttpsConn) Read(buf []byte) (int, error) {
	c.once.Do(c.sniff)
	if c.err != nil {
		return 0, c.err
	}
	return c.r.Read(buf)
}

func (c *autoHttpsConn) sniff() {
	first, err := c.r.Peek(1)
	if err != nil {
		c.err = err
		return
	}
	if first[0] == recordTypeHandshake {
		return
	}

	defer c.Conn.Close()
	c.err = net.ErrClosed
	req, err := http.ReadRequest(c.r)
	if err != nil {
		return
	}
	resp := http.Response{
		StatusCode: http.StatusTemporaryRedirect,
		ProtoMajor: 1,
		ProtoMinor: 1,
		Header:     http.Header{},
		Close:      true,
	}
	resp.Header.Set("Location", "https://"+req.Host+req.RequestURI)
	_ = resp.Write(c.Conn)
}
