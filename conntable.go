package epollserver

import "github.com/legamerdc/epollserver/protocol"

// connection 为事件循环内部的连接状态
type connection struct {
	fd  int
	api Conn
	dec *protocol.Decoder
}

// connTable 记录存活连接：fd -> 稠密数组下标。
// 表中存在的 fd 必然已注册到 poller，二者由 accept 与 closeConn 同步维护。
type connTable struct {
	index  map[int]int
	states []*connection
}

func newConnTable(capacity int) *connTable {
	return &connTable{
		index:  make(map[int]int, capacity),
		states: make([]*connection, 0, capacity),
	}
}

func (t *connTable) len() int { return len(t.states) }

func (t *connTable) lookup(fd int) *connection {
	if idx, ok := t.index[fd]; ok {
		return t.states[idx]
	}
	return nil
}

// add 插入连接；fd 已存在时返回 false
func (t *connTable) add(c *connection) bool {
	if _, ok := t.index[c.fd]; ok {
		return false
	}
	t.index[c.fd] = len(t.states)
	t.states = append(t.states, c)
	return true
}

// remove 删除并返回连接，末尾元素补位
func (t *connTable) remove(fd int) *connection {
	idx, ok := t.index[fd]
	if !ok {
		return nil
	}
	c := t.states[idx]
	last := len(t.states) - 1
	t.states[idx] = t.states[last]
	t.states[last] = nil
	t.states = t.states[:last]
	if idx < len(t.states) {
		t.index[t.states[idx].fd] = idx
	}
	delete(t.index, fd)
	return c
}

// snapshot 返回当前所有连接的拷贝，便于遍历时删除
func (t *connTable) snapshot() []*connection {
	out := make([]*connection, len(t.states))
	copy(out, t.states)
	return out
}
