package epollserver

import (
	"errors"

	"github.com/legamerdc/epollserver/poller"
)

// 初始化阶段的致命错误，返回时会带上底层 errno
var (
	ErrSocketCreation = errors.New("epollserver: socket creation failed")
	ErrBind           = errors.New("epollserver: bind failed")
	ErrListen         = errors.New("epollserver: listen failed")
	ErrPollerCreate   = errors.New("epollserver: poller creation failed")
	ErrRegistration   = errors.New("epollserver: poller registration failed")
)

// ErrWait 为事件循环运行期的致命错误
var ErrWait = errors.New("epollserver: wait failed")

// 单连接可恢复错误，只影响对应连接
var (
	ErrAccept = errors.New("epollserver: accept failed")
	ErrRead   = errors.New("epollserver: read failed")
)

var (
	// ErrServerClosed 在关停时传给 Handler.OnClose
	ErrServerClosed = errors.New("epollserver: server closed")

	// ErrNotListening 在 Listen 之前调用 Serve
	ErrNotListening = errors.New("epollserver: not listening")

	// ErrAlreadyListening 重复调用 Listen
	ErrAlreadyListening = errors.New("epollserver: already listening")

	// ErrInvalidArgument 参数非法
	ErrInvalidArgument = errors.New("epollserver: invalid argument")

	// ErrPlatformNotSupported 非 Linux 平台（需要 epoll 与抽象命名空间）
	ErrPlatformNotSupported = poller.ErrNotSupported
)
