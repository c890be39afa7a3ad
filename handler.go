package epollserver

// Handler 为用户回调接口，所有回调都在事件循环 goroutine 中同步调用，要求无阻塞返回。
// OnMessage 的 msg 只在回调期间有效，需要保留时自行拷贝。
// OnClose 的 err 为 nil 表示对端正常关闭。
type Handler interface {
	OnOpen(c *Conn)
	OnMessage(c *Conn, msg []byte)
	OnClose(c *Conn, err error)
}
