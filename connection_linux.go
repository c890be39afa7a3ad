//go:build linux

package epollserver

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/epollserver/poller"
	"github.com/legamerdc/epollserver/protocol"
)

// serveConn 在边缘触发下把连接读到 EAGAIN，逐块交给解码器
func (s *Server) serveConn(pl poller.Poller, c *connection) {
	for {
		n, err := unix.Read(c.fd, s.rbuf)
		if n > 0 {
			if ferr := c.dec.Feed(s.rbuf[:n]); ferr != nil {
				s.closeConn(pl, c, ferr)
				return
			}
			if !s.drain(pl, c) {
				return
			}
		}
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				return
			}
			s.closeConn(pl, c, fmt.Errorf("%w: %w", ErrRead, err))
			return
		}
		if n == 0 {
			// 对端关闭
			c.dec.SetEOF()
			s.drain(pl, c)
			return
		}
	}
}

// drain 分派缓冲中所有完整帧；连接被关闭时返回 false
func (s *Server) drain(pl poller.Poller, c *connection) bool {
	for {
		res, payload, err := c.dec.Next()
		switch res {
		case protocol.Message:
			c.api.Messages++
			c.api.Bytes += uint64(len(payload))
			s.handler.OnMessage(&c.api, payload)
			if c.api.closing {
				s.closeConn(pl, c, nil)
				return false
			}
		case protocol.NeedMoreData:
			return true
		case protocol.ConnectionClosed:
			s.closeConn(pl, c, nil)
			return false
		default:
			s.log.Warn().Err(err).Uint64("conn", c.api.ID).Int("buffered", c.dec.Buffered()).Msg("framing error")
			s.closeConn(pl, c, err)
			return false
		}
	}
}

// closeConn 注销、移出连接表并关闭 fd，之后通知 handler。重复调用无副作用。
func (s *Server) closeConn(pl poller.Poller, c *connection, err error) {
	if s.conns.remove(c.fd) == nil {
		return
	}
	// 注销失败可忽略，close 会隐式移除关注
	_ = pl.Unregister(c.fd)
	unix.Close(c.fd)
	s.log.Info().
		Err(err).
		Uint64("conn", c.api.ID).
		Str("fd", c.api.Handle()).
		Uint64("messages", c.api.Messages).
		Uint64("bytes", c.api.Bytes).
		Dur("lifetime", time.Since(c.api.Opened)).
		Msg("connection closed")
	s.handler.OnClose(&c.api, err)
}
