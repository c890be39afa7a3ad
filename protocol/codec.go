package protocol

import (
	"errors"
	"io"

	"github.com/legamerdc/epollserver/internal/ring"
)

// Result 为 Decoder.Next 的解析结果
type Result int

const (
	// Message 表示解析出一条完整负载
	Message Result = iota
	// NeedMoreData 表示缓冲中只有不完整的前缀或负载
	NeedMoreData
	// ConnectionClosed 表示对端在帧边界处关闭
	ConnectionClosed
	// FramingError 表示帧不合法或对端在帧中途关闭
	FramingError
)

func (r Result) String() string {
	switch r {
	case Message:
		return "message"
	case NeedMoreData:
		return "need-more-data"
	case ConnectionClosed:
		return "connection-closed"
	case FramingError:
		return "framing-error"
	default:
		return "unknown"
	}
}

// Decoder 是面向字节流的增量解码器，每条连接一个。
// 调用方把读到的数据 Feed 进来，再反复调用 Next 直到 NeedMoreData。
// 单次 Feed 不应超过构造时给定的 chunk 大小。
type Decoder struct {
	rx         *ring.Buffer
	maxPayload int
	eof        bool
}

// NewDecoder 构造解码器；chunk 为单次 Feed 的最大字节数，maxPayload<=0 表示不限制负载长度。
func NewDecoder(chunk, maxPayload int) *Decoder {
	limit := 0
	if maxPayload > 0 {
		limit = HeaderLen + maxPayload + chunk
	}
	return &Decoder{rx: ring.New(chunk, limit), maxPayload: maxPayload}
}

// Feed 追加从连接读取到的字节
func (d *Decoder) Feed(p []byte) error {
	if _, err := d.rx.Write(p); err != nil {
		if errors.Is(err, ring.ErrTooLarge) {
			return ErrFrameTooLarge
		}
		return err
	}
	return nil
}

// SetEOF 标记对端已关闭写方向，此后缓冲中的残留帧视为错误
func (d *Decoder) SetEOF() { d.eof = true }

// Buffered 返回尚未解析的字节数
func (d *Decoder) Buffered() int { return d.rx.Len() }

// Next 尝试解析一帧。
// 返回的 payload 为内部缓冲的视图，在下一次 Feed 之前有效。
func (d *Decoder) Next() (Result, []byte, error) {
	buffered := d.rx.Len()
	if buffered < HeaderLen {
		if !d.eof {
			return NeedMoreData, nil, nil
		}
		if buffered == 0 {
			return ConnectionClosed, nil, nil
		}
		return FramingError, nil, ErrShortPrefix
	}
	length, _ := DecodeLength(d.rx.Peek(HeaderLen))
	if err := checkLength(length, d.maxPayload); err != nil {
		return FramingError, nil, err
	}
	total := HeaderLen + int(length)
	if buffered < total {
		if d.eof {
			return FramingError, nil, ErrShortPayload
		}
		return NeedMoreData, nil, nil
	}
	frame := d.rx.Peek(total)
	d.rx.Discard(total)
	if d.rx.Len() == 0 {
		d.rx.Shrink()
	}
	return Message, frame[HeaderLen:], nil
}

// ReadFrame 从阻塞的 io.Reader 中读取一帧（客户端与归档使用）。
// 在帧边界处遇到 EOF 时返回 io.EOF。
func ReadFrame(r io.Reader, maxPayload int) ([]byte, error) {
	var hdr [HeaderLen]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, ErrShortPrefix
		}
		return nil, err
	}
	length, _ := DecodeLength(hdr[:])
	if err := checkLength(length, maxPayload); err != nil {
		return nil, err
	}
	payload := make([]byte, length)
	if length > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
				return nil, ErrShortPayload
			}
			return nil, err
		}
	}
	return payload, nil
}

// WriteFrame 以一次 Write 写出完整帧
func WriteFrame(w io.Writer, payload []byte) error {
	frame, err := AppendFrame(make([]byte, 0, HeaderLen+len(payload)), payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}
