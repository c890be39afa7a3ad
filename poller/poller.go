package poller

import (
	"errors"
	"time"
)

// FD 表示文件描述符。
type FD = int

// Interest 为注册关注的事件集合
type Interest uint8

const (
	Readable Interest = 1 << iota
	// EdgeTriggered 要求调用方在每次就绪后读到 EAGAIN
	EdgeTriggered
)

// Event 为一次就绪通知
type Event struct {
	FD       FD
	Readable bool
	Hangup   bool // 对端关闭写方向或连接挂断
	Err      bool // socket 上有待取的错误（SO_ERROR）
}

var (
	ErrAlreadyRegistered = errors.New("poller: fd already registered")
	ErrNotRegistered     = errors.New("poller: fd not registered")
	ErrClosed            = errors.New("poller: closed")
	ErrNotSupported      = errors.New("poller: platform not supported (requires Linux/epoll)")
)

// Poller 封装操作系统的就绪通知机制。
// Wait 只能由单个 goroutine 调用；Wake 可跨 goroutine 调用。

type Poller interface {
	Register(fd FD, in Interest) error
	Unregister(fd FD) error
	// Wait 阻塞直到有就绪事件、超时（timeout<=0 表示无限等待）、被信号打断或被 Wake 唤醒。
	// 打断与唤醒均返回 (0, nil)。
	Wait(events []Event, timeout time.Duration) (int, error)
	Wake() error
	Close() error
	// FD 返回底层 epoll 描述符，仅用于日志
	FD() FD
}

func timeoutMillis(timeout time.Duration) int {
	if timeout <= 0 {
		return -1
	}
	ms := int(timeout / time.Millisecond)
	if ms == 0 {
		ms = 1
	}
	return ms
}
