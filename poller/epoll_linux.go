//go:build linux

package poller

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sys/unix"
)

type epollPoller struct {
	efd    int
	wfd    int // eventfd for wakeup
	evbuf  []unix.EpollEvent
	mu     sync.Mutex // 保护 wfd 在 Wake 与 Close 之间的竞争
	closed bool
}

// New 创建 epoll 实例；capacityHint 为单次 Wait 返回事件数的预估值。
func New(capacityHint int) (Poller, error) {
	if capacityHint <= 0 {
		capacityHint = 32
	}
	efd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wfd, err := unix.Eventfd(0, unix.EFD_NONBLOCK|unix.EFD_CLOEXEC)
	if err != nil {
		unix.Close(efd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &epollPoller{efd: efd, wfd: wfd, evbuf: make([]unix.EpollEvent, capacityHint)}
	// 注册 wakeup fd
	ev := &unix.EpollEvent{Events: unix.EPOLLIN | unix.EPOLLET, Fd: int32(wfd)}
	if err := unix.EpollCtl(efd, unix.EPOLL_CTL_ADD, wfd, ev); err != nil {
		unix.Close(wfd)
		unix.Close(efd)
		return nil, fmt.Errorf("epoll_ctl wakeup: %w", err)
	}
	return p, nil
}

func epollFlags(in Interest) uint32 {
	var flag uint32
	if in&Readable != 0 {
		flag |= unix.EPOLLIN | unix.EPOLLRDHUP
	}
	if in&EdgeTriggered != 0 {
		flag |= unix.EPOLLET
	}
	return flag
}

func (p *epollPoller) Register(fd FD, in Interest) error {
	ev := &unix.EpollEvent{Events: epollFlags(in), Fd: int32(fd)}
	err := unix.EpollCtl(p.efd, unix.EPOLL_CTL_ADD, fd, ev)
	if errors.Is(err, unix.EEXIST) {
		return fmt.Errorf("%w: fd=%d", ErrAlreadyRegistered, fd)
	}
	return err
}

func (p *epollPoller) Unregister(fd FD) error {
	err := unix.EpollCtl(p.efd, unix.EPOLL_CTL_DEL, fd, nil)
	if errors.Is(err, unix.ENOENT) {
		return fmt.Errorf("%w: fd=%d", ErrNotRegistered, fd)
	}
	return err
}

func (p *epollPoller) FD() FD { return p.efd }

func (p *epollPoller) Wake() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	var buf [8]byte
	buf[0] = 1
	_, err := unix.Write(p.wfd, buf[:])
	if err == unix.EAGAIN {
		return nil
	}
	return err
}

func (p *epollPoller) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	unix.Close(p.wfd)
	return unix.Close(p.efd)
}

func (p *epollPoller) Wait(events []Event, timeout time.Duration) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if len(p.evbuf) < len(events) {
		p.evbuf = make([]unix.EpollEvent, len(events))
	}
	n, err := unix.EpollWait(p.efd, p.evbuf[:len(events)], timeoutMillis(timeout))
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	out := 0
	var efdBuf [8]byte
	for i := 0; i < n; i++ {
		ev := p.evbuf[i]
		fd := int(ev.Fd)
		if fd == p.wfd {
			// 清空 eventfd
			for {
				_, rerr := unix.Read(p.wfd, efdBuf[:])
				if rerr == unix.EAGAIN {
					break
				}
				if rerr != nil {
					return out, rerr
				}
			}
			continue
		}
		events[out] = Event{
			FD:       fd,
			Readable: ev.Events&unix.EPOLLIN != 0,
			Hangup:   ev.Events&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0,
			Err:      ev.Events&unix.EPOLLERR != 0,
		}
		out++
	}
	return out, nil
}
