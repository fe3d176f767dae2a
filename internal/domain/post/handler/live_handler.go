package handler

import (
	"context"
	"net/http"
	"time"

	"blog_post_api/internal/pkg/notify"
	"blog_post_api/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// LiveRecorder 在线连接数
type LiveRecorder interface {
	LiveConnectionOpened()
	LiveConnectionClosed()
}

// LiveHandler 帖子详情页的实时评论推送，替代客户端轮询
type LiveHandler struct {
	broker   notify.Broker
	upgrader websocket.Upgrader
	metrics  LiveRecorder
	log      *zap.Logger
}

// NewLiveHandler allowedOrigins 为空时不校验 Origin
func NewLiveHandler(broker notify.Broker, allowedOrigins []string, metrics LiveRecorder, log *zap.Logger) *LiveHandler {
	if log == nil {
		log = zap.NewNop()
	}
	h := &LiveHandler{broker: broker, metrics: metrics, log: log}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	if len(allowed) == 0 {
		return func(*http.Request) bool { return true }
	}
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		set[o] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		_, ok := set[origin]
		return ok
	}
}

// Live 订阅帖子评论事件
// @Summary 实时评论 (WebSocket)
// @Tags Blog
// @Param blogID query int true "Post ID"
// @Router /blog-post/live [get]
func (h *LiveHandler) Live(c *gin.Context) {
	postID, ok := parseID(c.Query("blogID"))
	if !ok {
		response.Fail(c, response.MsgDetailsFailed)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	if h.metrics != nil {
		h.metrics.LiveConnectionOpened()
		defer h.metrics.LiveConnectionClosed()
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	events, unsubscribe := h.broker.Subscribe(ctx, postID)
	defer unsubscribe()

	// 读协程只负责发现断开
	go func() {
		defer cancel()
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	h.writeLoop(ctx, conn, events)
}

func (h *LiveHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan notify.Event) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
			if ev.Type == notify.EventPostDeleted {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "post deleted"),
					time.Now().Add(writeWait))
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}
