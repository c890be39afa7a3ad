package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// 帧格式：
//   [0..4)  Length uint32（本机字节序，本地 socket 两端同机）
//   [4..)   Payload，恰好 Length 字节
// 服务端不回写任何数据。

const (
	// HeaderLen 为长度前缀字节数
	HeaderLen = 4

	// MaxLength 为长度前缀可表达的最大负载
	MaxLength = 1<<32 - 1
)

var (
	ErrShortPrefix   = errors.New("protocol: connection closed inside length prefix")
	ErrShortPayload  = errors.New("protocol: connection closed inside payload")
	ErrFrameTooLarge = errors.New("protocol: frame too large")

	errLengthOutOfRange = errors.New("protocol: length out of range")
)

// ByteOrder 为长度前缀使用的字节序
var ByteOrder = binary.NativeEndian

// EncodeLength 把负载长度写入 4 字节前缀。
func EncodeLength(dst []byte, length int) error {
	if length < 0 || uint64(length) > MaxLength {
		return errLengthOutOfRange
	}
	if len(dst) < HeaderLen {
		return fmt.Errorf("protocol: dst too small: %d", len(dst))
	}
	ByteOrder.PutUint32(dst[:HeaderLen], uint32(length))
	return nil
}

// DecodeLength 从前 4 字节解析负载长度。
func DecodeLength(b []byte) (uint32, error) {
	if len(b) < HeaderLen {
		return 0, ErrShortPrefix
	}
	return ByteOrder.Uint32(b[:HeaderLen]), nil
}

// AppendFrame 将一帧（前缀 + payload）追加到 dst 末尾。
func AppendFrame(dst, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > MaxLength {
		return dst, errLengthOutOfRange
	}
	var hdr [HeaderLen]byte
	ByteOrder.PutUint32(hdr[:], uint32(len(payload)))
	dst = append(dst, hdr[:]...)
	return append(dst, payload...), nil
}

func checkLength(length uint32, maxPayload int) error {
	if maxPayload > 0 && uint64(length) > uint64(maxPayload) {
		return fmt.Errorf("%w: %d > %d", ErrFrameTooLarge, length, maxPayload)
	}
	return nil
}
