package realtime

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/afnanahmadtariq/collab-pm/internal/auth"
	"github.com/afnanahmadtariq/collab-pm/internal/response"
)

// ServerConfig tunes the socket pumps
type ServerConfig struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
	AllowedOrigins []string
}

func (c ServerConfig) withDefaults() ServerConfig {
	if c.SendBuffer <= 0 {
		c.SendBuffer = 256
	}
	if c.WriteWait <= 0 {
		c.WriteWait = 10 * time.Second
	}
	if c.PongWait <= 0 {
		c.PongWait = 60 * time.Second
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = 8192
	}
	return c
}

// Server upgrades authenticated requests and runs the per-connection pumps
type Server struct {
	hub       *Hub
	router    *Router
	validator auth.TokenValidator
	cfg       ServerConfig
	upgrader  websocket.Upgrader
	logger    *zap.Logger
}

func NewServer(hub *Hub, router *Router, validator auth.TokenValidator, cfg ServerConfig, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg = cfg.withDefaults()
	s := &Server{hub: hub, router: router, validator: validator, cfg: cfg, logger: logger}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	if len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	for _, allowed := range s.cfg.AllowedOrigins {
		if allowed == "*" || strings.EqualFold(allowed, origin) {
			return true
		}
	}
	return false
}

func bearerToken(r *http.Request) string {
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// HandleWebSocket godoc
// @Summary      실시간 협업 WebSocket 연결
// @Description  토큰을 검증한 뒤 WebSocket으로 업그레이드합니다. 이후 {"event","data"} 프레임을 주고받습니다.
// @Tags         realtime
// @Param        token query string false "JWT Access Token (또는 Authorization 헤더)"
// @Success      101 {string} string "Switching Protocols"
// @Failure      401 {object} response.ErrorResponse
// @Router       /ws [get]
func (s *Server) HandleWebSocket(c *gin.Context) {
	token := bearerToken(c.Request)
	if token == "" {
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Token required")
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	claims, err := s.validator.VerifyToken(ctx, token)
	cancel()
	if err != nil {
		s.logger.Debug("Rejected websocket handshake", zap.Error(err))
		response.SendError(c, http.StatusUnauthorized, response.ErrCodeUnauthorized, "Invalid token")
		return
	}

	ws, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", zap.Error(err))
		return
	}

	conn := newConn(*claims, s.cfg.SendBuffer)
	conn.ws = ws
	s.hub.Register(conn)

	go s.writePump(conn)
	go s.readPump(conn)
}

func (s *Server) readPump(conn *Conn) {
	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		dctx, dcancel := context.WithTimeout(context.Background(), 5*time.Second)
		s.hub.Disconnect(dctx, conn)
		dcancel()
	}()

	ws := conn.ws
	ws.SetReadLimit(s.cfg.MaxMessageSize)
	ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	ws.SetPongHandler(func(string) error {
		ws.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				s.logger.Warn("WebSocket error",
					zap.String("userId", conn.UserID().String()),
					zap.Error(err))
			}
			return
		}
		s.router.Handle(ctx, conn, message)
	}
}

func (s *Server) writePump(conn *Conn) {
	pingPeriod := (s.cfg.PongWait * 9) / 10
	ticker := time.NewTicker(pingPeriod)
	ws := conn.ws
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case message := <-conn.send:
			ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := ws.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-conn.done:
			ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			ws.WriteMessage(websocket.CloseMessage, []byte{})
			return

		case <-ticker.C:
			ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteWait))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
