//go:build linux

package netutil

import (
	"golang.org/x/sys/unix"
)

// Cred 为 SO_PEERCRED 返回的对端身份
type Cred struct {
	PID int32
	UID uint32
	GID uint32
}

func SetRecvBuf(fd int, n int) error {
	return unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_RCVBUF, n)
}

// AbstractSockaddr 构造抽象命名空间的 sockaddr。
// x/sys/unix 会把首字节 '@' 改写为 NUL，且不计入结尾 NUL。
func AbstractSockaddr(name string) *unix.SockaddrUnix {
	return &unix.SockaddrUnix{Name: AbstractAddress(name)}
}

// PeerCred 读取 unix socket 对端的 pid/uid/gid
func PeerCred(fd int) (Cred, error) {
	uc, err := unix.GetsockoptUcred(fd, unix.SOL_SOCKET, unix.SO_PEERCRED)
	if err != nil {
		return Cred{}, err
	}
	return Cred{PID: uc.Pid, UID: uc.Uid, GID: uc.Gid}, nil
}

// SocketError 读取并清除 SO_ERROR，无错误时返回 nil
func SocketError(fd int) error {
	v, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if v != 0 {
		return unix.Errno(v)
	}
	return nil
}
