package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/legamerdc/epollserver"
	"github.com/legamerdc/epollserver/capture"
)

// printHandler 把每条消息原样打印到 out，可选写入归档
type printHandler struct {
	out     io.Writer
	capture *capture.Writer
	log     zerolog.Logger
}

func (h *printHandler) OnOpen(c *epollserver.Conn) {}

func (h *printHandler) OnMessage(c *epollserver.Conn, msg []byte) {
	// 文本以 "\n\0" 结尾，按 C 字符串截到第一个 NUL
	line := msg
	if i := bytes.IndexByte(line, 0); i >= 0 {
		line = line[:i]
	}
	if len(line) > 0 {
		fmt.Fprintf(h.out, "%s: %s", c.Handle(), line)
	}
	if h.capture != nil {
		if err := h.capture.Append(c.ID, msg); err != nil {
			h.log.Warn().Err(err).Msg("capture disabled")
			h.capture = nil
		}
	}
}

func (h *printHandler) OnClose(c *epollserver.Conn, err error) {
	if h.capture != nil {
		if ferr := h.capture.Flush(); ferr != nil {
			h.log.Warn().Err(ferr).Msg("flush capture")
		}
	}
}
