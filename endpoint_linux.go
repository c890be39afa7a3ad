//go:build linux

package epollserver

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"

	"github.com/legamerdc/epollserver/internal/netutil"
)

var errWouldBlock = errors.New("epollserver: accept would block")

// accept4 可在测试中替换以注入 accept 错误
var accept4 = unix.Accept4

// listen 创建非阻塞的 unix 流 socket 并绑定到抽象命名空间
func listen(name string, backlog int) (*endpoint, error) {
	name = netutil.TruncateName(name)
	fd, err := unix.Socket(unix.AF_UNIX, unix.SOCK_STREAM|unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSocketCreation, err)
	}
	// 抽象地址随最后一个 fd 关闭而释放，无需清理文件
	if err := unix.Bind(fd, netutil.AbstractSockaddr(name)); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %q: %w", ErrBind, name, err)
	}
	if err := unix.Listen(fd, backlog); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("%w: %w", ErrListen, err)
	}
	return &endpoint{fd: fd, name: name}, nil
}

// accept 取出一个待处理连接，返回的 fd 已是非阻塞。
// 队列为空时返回 errWouldBlock。
func (e *endpoint) accept() (int, error) {
	for {
		fd, _, err := accept4(e.fd, unix.SOCK_NONBLOCK|unix.SOCK_CLOEXEC)
		if err == nil {
			return fd, nil
		}
		if err == unix.EINTR {
			continue
		}
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return -1, errWouldBlock
		}
		return -1, fmt.Errorf("%w: %w", ErrAccept, err)
	}
}

func (e *endpoint) close() error { return unix.Close(e.fd) }
