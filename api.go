package epollserver

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/legamerdc/epollserver/internal/netutil"
)

// Config 为服务端配置
type Config struct {
	Name           string        // 抽象命名空间名字，超过 64 字节会被截断
	Backlog        int           // listen 队列长度
	MaxEvents      int           // 单次 Wait 返回的最大事件数
	MaxPayload     int           // 单帧最大负载，<0 表示不限制，0 使用默认值
	ReadBufferSize int           // 每次 read 的字节数，同时是每连接接收缓冲的初始容量
	RecvBuffer     int           // 已接受连接的 SO_RCVBUF，0 表示使用内核默认值
	WaitTimeout    time.Duration // Wait 超时，<=0 表示无限等待（Shutdown 通过 eventfd 唤醒）
	Logger         *zerolog.Logger
}

// DefaultConfig 提供一组可工作的默认值
func DefaultConfig() Config {
	return Config{
		Backlog:        32,
		MaxEvents:      32,
		MaxPayload:     16 << 20, // 16 MiB
		ReadBufferSize: 64 << 10, // 64 KiB
	}
}

// withDefaults 用默认值填充零值字段
func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Backlog == 0 {
		c.Backlog = d.Backlog
	}
	if c.MaxEvents == 0 {
		c.MaxEvents = d.MaxEvents
	}
	if c.MaxPayload == 0 {
		c.MaxPayload = d.MaxPayload
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = d.ReadBufferSize
	}
	return c
}

// Validate 检查配置
func (c Config) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: empty socket name", ErrInvalidArgument)
	}
	if c.Backlog <= 0 {
		return fmt.Errorf("%w: backlog must be positive, got %d", ErrInvalidArgument, c.Backlog)
	}
	if c.MaxEvents <= 0 {
		return fmt.Errorf("%w: max events must be positive, got %d", ErrInvalidArgument, c.MaxEvents)
	}
	if c.ReadBufferSize <= 0 {
		return fmt.Errorf("%w: read buffer size must be positive, got %d", ErrInvalidArgument, c.ReadBufferSize)
	}
	if c.RecvBuffer < 0 {
		return fmt.Errorf("%w: recv buffer must not be negative, got %d", ErrInvalidArgument, c.RecvBuffer)
	}
	return nil
}

// BoundName 返回实际绑定的名字（截断后）
func (c Config) BoundName() string { return netutil.TruncateName(c.Name) }
