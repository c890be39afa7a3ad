// Package capture 把收到的消息写入 zstd 压缩的归档文件，供离线查看。
//
// 归档为一个 zstd 流，内容是连续的记录：
//
//	uvarint(connID) | uint32 length | payload
//
// 其中 length+payload 与线上帧格式一致。
package capture

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/legamerdc/epollserver/protocol"
)

// Record 为归档中的一条消息
type Record struct {
	ConnID  uint64
	Payload []byte
}

// Writer 非并发安全，由事件循环单独使用
type Writer struct {
	f       *os.File
	zw      *zstd.Encoder
	scratch []byte
	records uint64
}

// ParseLevel 解析压缩级别（fastest/default/better/best），空串为 fastest
func ParseLevel(s string) (zstd.EncoderLevel, error) {
	if s == "" {
		return zstd.SpeedFastest, nil
	}
	ok, lvl := zstd.EncoderLevelFromString(s)
	if !ok {
		return 0, fmt.Errorf("capture: unknown compression level %q", s)
	}
	return lvl, nil
}

// Create 创建（截断）归档文件
func Create(path string, level zstd.EncoderLevel) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("capture: open %s: %w", path, err)
	}
	zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(level), zstd.WithEncoderConcurrency(1))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("capture: zstd writer: %w", err)
	}
	return &Writer{f: f, zw: zw}, nil
}

// Append 追加一条记录
func (w *Writer) Append(connID uint64, payload []byte) error {
	b := binary.AppendUvarint(w.scratch[:0], connID)
	b, err := protocol.AppendFrame(b, payload)
	if err != nil {
		return err
	}
	w.scratch = b
	if _, err := w.zw.Write(b); err != nil {
		return fmt.Errorf("capture: write: %w", err)
	}
	w.records++
	return nil
}

// Records 返回已写入的记录数
func (w *Writer) Records() uint64 { return w.records }

// Flush 把已压缩的数据刷到文件
func (w *Writer) Flush() error { return w.zw.Flush() }

// Close 结束 zstd 流并关闭文件
func (w *Writer) Close() error {
	zerr := w.zw.Close()
	ferr := w.f.Close()
	return errors.Join(zerr, ferr)
}

// Reader 顺序读取归档
type Reader struct {
	zr         *zstd.Decoder
	br         *bufio.Reader
	maxPayload int
}

// NewReader 在 r 之上构造读取器；maxPayload<=0 表示不限制
func NewReader(r io.Reader, maxPayload int) (*Reader, error) {
	zr, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return nil, fmt.Errorf("capture: zstd reader: %w", err)
	}
	return &Reader{zr: zr, br: bufio.NewReader(zr), maxPayload: maxPayload}, nil
}

// Next 返回下一条记录，读完时返回 io.EOF
func (r *Reader) Next() (Record, error) {
	id, err := binary.ReadUvarint(r.br)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Record{}, io.EOF
		}
		return Record{}, fmt.Errorf("capture: record header: %w", err)
	}
	payload, err := protocol.ReadFrame(r.br, r.maxPayload)
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = protocol.ErrShortPrefix
		}
		return Record{}, fmt.Errorf("capture: record %d: %w", id, err)
	}
	return Record{ConnID: id, Payload: payload}, nil
}

func (r *Reader) Close() { r.zr.Close() }
