package epollserver

import (
	"fmt"
	"time"
)

// Conn 表示一条已接受的连接，由事件循环持有
type Conn struct {
	ID     uint64
	FD     int
	Opened time.Time

	// 对端身份（SO_PEERCRED），读取失败时 PeerPID 为 0
	PeerPID int32
	PeerUID uint32

	Messages uint64 // 已收到的消息数
	Bytes    uint64 // 已收到的负载字节数

	closing bool
}

// Close 将连接标记为待移除，当前回调返回后由事件循环关闭。
func (c *Conn) Close() { c.closing = true }

// Closing 报告连接是否已被标记为待移除
func (c *Conn) Closing() bool { return c.closing }

// Handle 返回 fd 的十六进制表示，用于日志
func (c *Conn) Handle() string { return fmt.Sprintf("0x%08X", c.FD) }
