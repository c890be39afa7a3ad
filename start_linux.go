//go:build linux

package epollserver

import (
	"context"
	"fmt"

	"github.com/legamerdc/epollserver/poller"
)

// newPoller 可在测试中替换以注入 Wait 失败
var newPoller = poller.New

// Listen 绑定监听端点、创建 poller 并注册端点（水平触发）。
// 初始化失败时已申请的资源全部释放。
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrServerClosed
	}
	if s.ep != nil {
		return ErrAlreadyListening
	}
	ep, err := listen(s.cfg.Name, s.cfg.Backlog)
	if err != nil {
		return err
	}
	pl, err := newPoller(s.cfg.MaxEvents)
	if err != nil {
		ep.close()
		return fmt.Errorf("%w: %w", ErrPollerCreate, err)
	}
	if err := pl.Register(ep.fd, poller.Readable); err != nil {
		pl.Close()
		ep.close()
		return fmt.Errorf("%w: %w", ErrRegistration, err)
	}
	s.ep, s.pl = ep, pl
	s.log.Info().
		Str("name", ep.name).
		Str("socket", fmt.Sprintf("0x%016X", ep.fd)).
		Str("epoll", fmt.Sprintf("0x%016X", pl.FD())).
		Int("backlog", s.cfg.Backlog).
		Msg("listening")
	return nil
}

// Serve 运行事件循环直到 Shutdown 或 ctx 取消。
// 正常关停返回 nil；Wait 失败返回包装了 ErrWait 的错误。两种情况都会关闭所有连接并释放资源。
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ep, pl := s.ep, s.pl
	s.mu.Unlock()
	if ep == nil {
		return ErrNotListening
	}
	stop := context.AfterFunc(ctx, s.Shutdown)
	defer stop()

	err := s.run(ep, pl)
	s.teardown(ep, pl)
	return err
}

// teardown 关闭所有连接、监听端点与 poller
func (s *Server) teardown(ep *endpoint, pl poller.Poller) {
	open := s.conns.len()
	for _, c := range s.conns.snapshot() {
		s.closeConn(pl, c, ErrServerClosed)
	}
	s.mu.Lock()
	s.closed = true
	s.ep, s.pl = nil, nil
	s.mu.Unlock()

	if err := ep.close(); err != nil {
		s.log.Warn().Err(err).Msg("close listening socket")
	}
	if err := pl.Close(); err != nil {
		s.log.Warn().Err(err).Msg("close poller")
	}
	s.log.Info().Int("closed_connections", open).Msg("server stopped")
}
