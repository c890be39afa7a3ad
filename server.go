package epollserver

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/legamerdc/epollserver/poller"
)

// Server 为单 goroutine 的就绪驱动服务端。
// 一个 Server 只能 Listen/Serve 一次。
type Server struct {
	cfg     Config
	handler Handler
	log     zerolog.Logger

	mu     sync.Mutex // 保护 ep/pl/closed，Shutdown 可能来自其他 goroutine
	ep     *endpoint
	pl     poller.Poller
	closed bool

	// 关停标志，每轮循环检查一次
	stopping atomic.Bool

	// 以下字段只在事件循环 goroutine 中访问
	conns        *connTable
	nextConnID   uint64
	rbuf         []byte
	acceptResume time.Time // 非零表示监听端点已暂停，到期重新注册
	acceptLog    zerolog.Logger
}

// NewServer 构造未启动的 Server 实例
func NewServer(cfg Config, h Handler) (*Server, error) {
	if h == nil {
		return nil, fmt.Errorf("%w: nil handler", ErrInvalidArgument)
	}
	cfg = cfg.withDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	base := log.Logger
	if cfg.Logger != nil {
		base = *cfg.Logger
	}
	s := &Server{
		cfg:     cfg,
		handler: h,
		log:     base.With().Str("component", "epollserver").Logger(),
		conns:   newConnTable(cfg.MaxEvents),
		rbuf:    make([]byte, cfg.ReadBufferSize),
	}
	// accept 持续失败时每秒最多一条日志
	s.acceptLog = s.log.Sample(&zerolog.BurstSampler{Burst: 1, Period: time.Second})
	return s, nil
}

// Start 以默认 context 启动服务并阻塞到关停
func Start(cfg Config, h Handler) error {
	s, err := NewServer(cfg, h)
	if err != nil {
		return err
	}
	return s.ListenAndServe(context.Background())
}

// ListenAndServe 绑定监听端点并运行事件循环，ctx 取消时优雅关停
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Name 返回绑定的抽象命名空间名字（截断后）
func (s *Server) Name() string { return s.cfg.BoundName() }

// Shutdown 请求事件循环退出，可从任意 goroutine 调用，可重复调用。
// 阻塞中的 Wait 会被唤醒，循环在当前轮结束后执行清理。
func (s *Server) Shutdown() {
	s.stopping.Store(true)
	s.mu.Lock()
	pl := s.pl
	s.mu.Unlock()
	if pl != nil {
		_ = pl.Wake()
	}
}

// ShuttingDown 报告是否已请求关停
func (s *Server) ShuttingDown() bool { return s.stopping.Load() }
