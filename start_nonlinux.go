//go:build !linux

package epollserver

import "context"

// Listen 在非 Linux 平台返回 ErrPlatformNotSupported（需要 epoll 与抽象命名空间）
func (s *Server) Listen() error {
	return ErrPlatformNotSupported
}

// Serve 在非 Linux 平台返回 ErrPlatformNotSupported
func (s *Server) Serve(ctx context.Context) error {
	_ = ctx
	return ErrPlatformNotSupported
}
