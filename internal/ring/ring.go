package ring

import (
	"errors"
)

var ErrTooLarge = errors.New("ring: write too large")

// Buffer 是单线程使用的环形字节缓冲，用作每连接的接收缓冲。
// 容量按 2 的幂次增长，内容长度不超过 limit。

type Buffer struct {
	buf      []byte
	mask     int
	readPos  int
	writePos int
	initial  int
	limit    int
}

// New 返回初始容量为 capacity（向上取整到 2 的幂）的缓冲；limit<=0 表示不限制。
func New(capacity, limit int) *Buffer {
	capPow2 := roundPow2(capacity)
	return &Buffer{buf: make([]byte, capPow2), mask: capPow2 - 1, initial: capPow2, limit: limit}
}

func roundPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

func (b *Buffer) Cap() int { return len(b.buf) }

func (b *Buffer) Len() int { return b.writePos - b.readPos }

func (b *Buffer) Free() int { return b.Cap() - b.Len() }

// Write 将数据写入环形缓冲；空间不足时扩容，超过 limit 返回 ErrTooLarge。
func (b *Buffer) Write(p []byte) (int, error) {
	n := len(p)
	need := b.Len() + n
	if b.limit > 0 && need > b.limit {
		return 0, ErrTooLarge
	}
	if n > b.Free() {
		b.grow(need)
	}
	start := b.writePos & b.mask
	if end := start + n; end <= len(b.buf) {
		copy(b.buf[start:end], p)
	} else {
		// 尾部放 l 字节，其余 n-l 字节从头部开始
		l := len(b.buf) - start
		copy(b.buf[start:], p[:l])
		copy(b.buf[:n-l], p[l:])
	}
	b.writePos += n
	return n, nil
}

// grow 扩容并把现有内容线性化到新缓冲头部
func (b *Buffer) grow(need int) {
	nb := make([]byte, roundPow2(need))
	ln := b.Len()
	copy(nb, b.Peek(ln))
	b.buf = nb
	b.mask = len(nb) - 1
	b.readPos = 0
	b.writePos = ln
}

// Peek 读取最多 n 字节但不前进读指针。
// 返回的切片在下一次 Write 之前有效。
func (b *Buffer) Peek(n int) []byte {
	if n <= 0 {
		return nil
	}
	ln := b.Len()
	if n > ln {
		n = ln
	}
	start := b.readPos & b.mask
	if end := start + n; end <= len(b.buf) {
		return b.buf[start:end]
	}
	// 分段视图需要拷贝为连续切片
	buf := make([]byte, n)
	l := len(b.buf) - start
	copy(buf[:l], b.buf[start:])
	copy(buf[l:], b.buf[:n-l])
	return buf
}

// Discard 前进读指针。
func (b *Buffer) Discard(n int) int {
	ln := b.Len()
	if n > ln {
		n = ln
	}
	b.readPos += n
	if b.readPos == b.writePos {
		b.readPos, b.writePos = 0, 0
	}
	return n
}

// Shrink 在缓冲为空且曾经扩容时回收到初始容量。
func (b *Buffer) Shrink() {
	if b.Len() != 0 || len(b.buf) <= b.initial {
		return
	}
	b.buf = make([]byte, b.initial)
	b.mask = b.initial - 1
	b.readPos, b.writePos = 0, 0
}
