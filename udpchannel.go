package widget

import (
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const (
	// udpPacketBufSize is used to buffer incoming packets during read
	// operations.
	udpPacketBufSize = 65536

	udpOriginScheme = "udp://"
)

// UDPChannel is a Channel implementation using UDP, for hosts that run the
// frame in a separate process rather than a browser. The origin of a window
// is its bound address with a udp:// scheme.
type UDPChannel struct {
	udpListener *net.UDPConn
	peerAddr    string
	listeners   *listenerSet
	wg          sync.WaitGroup
	shutdown    int32
	logger      *zap.Logger
}

// NewUDPChannel returns a UDP channel listening on bindAddr. peerAddr is the
// address of the parent window messages are posted to; it is empty for a
// top-level window.
func NewUDPChannel(bindAddr string, peerAddr string, logger *zap.Logger) (*UDPChannel, error) {
	udpListener, err := udpListen(bindAddr)
	if err != nil {
		return nil, err
	}

	c := &UDPChannel{
		udpListener: udpListener,
		peerAddr:    peerAddr,
		listeners:   newListenerSet(),
		logger:      logger,
	}

	c.wg.Add(1)
	go c.udpReadLoop(udpListener)

	return c, nil
}

func (c *UDPChannel) PostMessage(b []byte, targetOrigin string) error {
	if c.peerAddr == "" {
		return fmt.Errorf("post from %s: %w", c.Origin(), ErrNoPeer)
	}

	udpAddr, err := net.ResolveUDPAddr("udp4", c.peerAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve peer %s: %v", c.peerAddr, err)
	}
	if targetOrigin != TargetAny && targetOrigin != udpOriginScheme+udpAddr.String() {
		return nil
	}

	_, err = c.udpListener.WriteTo(b, udpAddr)
	// If we've been shutdown ignore the error.
	if s := atomic.LoadInt32(&c.shutdown); s == 1 {
		return ErrChannelClosed
	}
	return err
}

func (c *UDPChannel) AddListener(l Listener) func() {
	return c.listeners.Add(l)
}

func (c *UDPChannel) Origin() string {
	return udpOriginScheme + c.BindAddr()
}

// BindAddr returns the address the listener is bound to. Note this may be
// different from the configured bind addr if the system chooses the addr
// (such as using a port of 0).
func (c *UDPChannel) BindAddr() string {
	return c.udpListener.LocalAddr().String()
}

func (c *UDPChannel) Shutdown() error {
	if !atomic.CompareAndSwapInt32(&c.shutdown, 0, 1) {
		return nil
	}

	// Close the listener, which will stop the read loop.
	err := c.udpListener.Close()

	// Block until the read loop has exited.
	c.wg.Wait()
	return err
}

// udpReadLoop is a long running goroutine that accepts incoming UDP packets
// and dispatches them to the listeners in arrival order.
func (c *UDPChannel) udpReadLoop(lis *net.UDPConn) {
	defer c.wg.Done()
	for {
		buf := make([]byte, udpPacketBufSize)
		n, addr, err := lis.ReadFrom(buf)
		ts := time.Now()
		if err != nil {
			if s := atomic.LoadInt32(&c.shutdown); s == 1 {
				return
			}

			c.logger.Error("failed to read from channel", zap.Error(err))
			continue
		}

		if n < 1 {
			continue
		}

		c.listeners.Dispatch(&Envelope{
			Data:      buf[:n],
			Origin:    udpOriginScheme + addr.String(),
			Timestamp: ts,
		})
	}
}

func udpListen(bindAddr string) (*net.UDPConn, error) {
	udpAddr, err := net.ResolveUDPAddr("udp4", bindAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start UDP listener on %s: %v", bindAddr, err)
	}
	listener, err := net.ListenUDP("udp4", udpAddr)
	if err != nil {
		return nil, fmt.Errorf("failed to start UDP listener on %s: %v", bindAddr, err)
	}
	return listener, nil
}
