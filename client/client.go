package client

import (
	"context"
	"net"
	"sync"

	"github.com/legamerdc/epollserver/internal/netutil"
	"github.com/legamerdc/epollserver/protocol"
)

// LineTerminator 为文本消息的结尾，服务端按 C 字符串打印，遇 NUL 截止
const LineTerminator = "\n\x00"

// Client 为只写的帧客户端，服务端不会回包
type Client struct {
	conn net.Conn
	mu   sync.Mutex
	buf  []byte
}

// Dial 连接到抽象命名空间中的服务端
func Dial(name string) (*Client, error) {
	return DialContext(context.Background(), name)
}

// DialContext 与 Dial 相同，但受 ctx 控制
func DialContext(ctx context.Context, name string) (*Client, error) {
	var d net.Dialer
	nc, err := d.DialContext(ctx, "unix", netutil.AbstractAddress(name))
	if err != nil {
		return nil, err
	}
	return &Client{conn: nc}, nil
}

// Send 发送一帧
func (c *Client) Send(payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	frame, err := protocol.AppendFrame(c.buf[:0], payload)
	if err != nil {
		return err
	}
	c.buf = frame
	_, err = c.conn.Write(frame)
	return err
}

// SendLine 发送一行文本，自动追加 LineTerminator
func (c *Client) SendLine(text string) error {
	return c.Send([]byte(text + LineTerminator))
}

// WriteRaw 直接写出字节，不加帧头（用于分段写入或调试）
func (c *Client) WriteRaw(b []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := c.conn.Write(b)
	return err
}

// CloseWrite 半关闭写方向，服务端会观察到 EOF
func (c *Client) CloseWrite() error {
	if uc, ok := c.conn.(*net.UnixConn); ok {
		return uc.CloseWrite()
	}
	return c.conn.Close()
}

func (c *Client) Close() error { return c.conn.Close() }
