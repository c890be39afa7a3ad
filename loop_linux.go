//go:build linux

package epollserver

import (
	"errors"
	"fmt"
	"time"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/epollserver/internal/netutil"
	"github.com/legamerdc/epollserver/poller"
	"github.com/legamerdc/epollserver/protocol"
)

// acceptBackoff 为 fd 耗尽（EMFILE/ENFILE）后暂停 accept 的时长
var acceptBackoff = 100 * time.Millisecond

// run 为事件循环：等待就绪事件并分派到 accept 或已有连接
func (s *Server) run(ep *endpoint, pl poller.Poller) error {
	events := make([]poller.Event, s.cfg.MaxEvents)
	s.log.Debug().Dur("wait_timeout", s.cfg.WaitTimeout).Msg("polling")
	for !s.stopping.Load() {
		timeout, err := s.waitTimeout(ep, pl)
		if err != nil {
			return err
		}
		n, err := pl.Wait(events, timeout)
		if err != nil {
			s.log.Error().Err(err).Msg("wait failed")
			return fmt.Errorf("%w: %w", ErrWait, err)
		}
		for i := 0; i < n; i++ {
			ev := events[i]
			if ev.FD == ep.fd {
				// 已请求关停时不再接受新连接
				if !s.stopping.Load() {
					s.acceptAll(ep, pl)
				}
				continue
			}
			c := s.conns.lookup(ev.FD)
			if c == nil {
				// 表与注册应保持一致，出现即为 bug
				s.log.Error().Int("fd", ev.FD).Msg("event for untracked fd, dropping registration")
				_ = pl.Unregister(ev.FD)
				continue
			}
			if ev.Err {
				if serr := netutil.SocketError(c.fd); serr != nil {
					s.closeConn(pl, c, fmt.Errorf("%w: %w", ErrRead, serr))
					continue
				}
			}
			if ev.Hangup && !ev.Readable {
				// 挂断且没有可读数据，只需处理缓冲中的残留
				c.dec.SetEOF()
				s.drain(pl, c)
				continue
			}
			s.serveConn(pl, c)
		}
	}
	return nil
}

// waitTimeout 返回本轮 Wait 的超时；accept 暂停到期时重新注册监听端点
func (s *Server) waitTimeout(ep *endpoint, pl poller.Poller) (time.Duration, error) {
	if s.acceptResume.IsZero() {
		return s.cfg.WaitTimeout, nil
	}
	if left := time.Until(s.acceptResume); left > 0 {
		if s.cfg.WaitTimeout > 0 && s.cfg.WaitTimeout < left {
			return s.cfg.WaitTimeout, nil
		}
		return left, nil
	}
	s.acceptResume = time.Time{}
	if err := pl.Register(ep.fd, poller.Readable); err != nil {
		s.log.Error().Err(err).Msg("resume accept")
		return 0, fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	s.log.Debug().Msg("accept resumed")
	return s.cfg.WaitTimeout, nil
}

// acceptAll 接受 backlog 中所有待处理连接；accept 出错只记录日志，不终止循环
func (s *Server) acceptAll(ep *endpoint, pl poller.Poller) {
	for {
		fd, err := ep.accept()
		if err != nil {
			if errors.Is(err, errWouldBlock) {
				return
			}
			if errors.Is(err, unix.EMFILE) || errors.Is(err, unix.ENFILE) {
				s.pauseAccept(ep, pl, err)
				return
			}
			// 监听端点为水平触发，剩余连接在下一轮处理
			s.acceptLog.Warn().Err(err).Msg("accept")
			return
		}
		s.openConn(pl, fd)
	}
}

// pauseAccept 在 fd 耗尽时暂时注销水平触发的监听端点，避免 Wait 空转
func (s *Server) pauseAccept(ep *endpoint, pl poller.Poller, cause error) {
	if err := pl.Unregister(ep.fd); err != nil {
		s.acceptLog.Warn().Err(cause).AnErr("unregister", err).Msg("accept")
		return
	}
	s.acceptResume = time.Now().Add(acceptBackoff)
	s.acceptLog.Warn().Err(cause).Dur("backoff", acceptBackoff).Msg("accept paused")
}

// openConn 注册新连接；注册失败则直接关闭 fd，不进入连接表
func (s *Server) openConn(pl poller.Poller, fd int) {
	if s.cfg.RecvBuffer > 0 {
		if err := netutil.SetRecvBuf(fd, s.cfg.RecvBuffer); err != nil {
			s.log.Warn().Err(err).Int("fd", fd).Msg("set SO_RCVBUF")
		}
	}
	if err := pl.Register(fd, poller.Readable|poller.EdgeTriggered); err != nil {
		s.log.Warn().Err(err).Int("fd", fd).Msg("register connection")
		unix.Close(fd)
		return
	}
	s.nextConnID++
	c := &connection{fd: fd, dec: protocol.NewDecoder(s.cfg.ReadBufferSize, s.cfg.MaxPayload)}
	c.api = Conn{ID: s.nextConnID, FD: fd, Opened: time.Now()}
	if cred, err := netutil.PeerCred(fd); err == nil {
		c.api.PeerPID = cred.PID
		c.api.PeerUID = cred.UID
	}
	if !s.conns.add(c) {
		s.log.Error().Int("fd", fd).Msg("fd already tracked")
		_ = pl.Unregister(fd)
		unix.Close(fd)
		return
	}
	s.log.Info().
		Uint64("conn", c.api.ID).
		Str("fd", c.api.Handle()).
		Int32("peer_pid", c.api.PeerPID).
		Uint32("peer_uid", c.api.PeerUID).
		Msg("connection established")
	s.handler.OnOpen(&c.api)
	if c.api.closing {
		s.closeConn(pl, c, nil)
	}
}
