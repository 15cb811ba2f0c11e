package ws

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/davicafu/imagelab/internal/realtime"
	userDomain "github.com/davicafu/imagelab/internal/user/domain"
)

const closeDeadline = 5 * time.Second

// Handler atiende el endpoint /ws: valida origen, autentica el token,
// resuelve el usuario interno y registra la conexión. La baja del registro
// corre en defer del read loop, así que se ejecuta en cualquier salida,
// también en terminaciones anómalas.
type Handler struct {
	registry *realtime.Registry
	verifier userDomain.TokenVerifier
	users    userDomain.UserRepository
	policy   OriginPolicy
	upgrader websocket.Upgrader
	log      *zap.Logger
}

func NewHandler(
	registry *realtime.Registry,
	verifier userDomain.TokenVerifier,
	users userDomain.UserRepository,
	policy OriginPolicy,
	log *zap.Logger,
) *Handler {
	return &Handler{
		registry: registry,
		verifier: verifier,
		users:    users,
		policy:   policy,
		upgrader: websocket.Upgrader{
			// El origen se valida tras el upgrade para poder cerrar con un
			// close code explícito en lugar de un 403 HTTP.
			CheckOrigin: func(*http.Request) bool { return true },
		},
		log: log,
	}
}

// Handle es el gin handler de GET /ws.
func (h *Handler) Handle(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Fallo en upgrade de WebSocket", zap.Error(err))
		return
	}

	origin := c.Request.Header.Get("Origin")
	if !h.policy.Allows(origin) {
		h.log.Warn("WS close 1008 - Origin not allowed", zap.String("origin", origin))
		h.closeWith(conn, websocket.ClosePolicyViolation, "Origin not allowed")
		return
	}

	token := c.Request.URL.Query().Get("token")
	if token == "" {
		h.log.Warn("WS close 1008 - Missing token")
		h.closeWith(conn, websocket.ClosePolicyViolation, "Missing token")
		return
	}

	externalUID, err := h.verifier.Verify(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, userDomain.ErrAuthUnavailable) {
			h.log.Error("WS close 1013 - Authentication service not available")
			h.closeWith(conn, websocket.CloseTryAgainLater, "Authentication service not available")
			return
		}
		h.log.Warn("WS close 1008 - Unauthorized", zap.Error(err))
		h.closeWith(conn, websocket.ClosePolicyViolation, "Unauthorized")
		return
	}

	user, err := h.users.FindByExternalUID(c.Request.Context(), externalUID)
	if err != nil {
		if errors.Is(err, userDomain.ErrUserNotFound) {
			h.log.Warn("WS close 1008 - User not found", zap.String("external_uid", externalUID))
			h.closeWith(conn, websocket.ClosePolicyViolation, "User not found")
			return
		}
		h.log.Warn("WS close 1008 - Unauthorized", zap.Error(err))
		h.closeWith(conn, websocket.ClosePolicyViolation, "Unauthorized")
		return
	}

	client := &wsConn{conn: conn}
	h.registry.Add(user.ID, client)

	go h.readLoop(user.ID, client)
}

// readLoop descarta los frames del cliente (el canal es de solo bajada) y
// mantiene viva la conexión hasta que falle la lectura.
func (h *Handler) readLoop(userID uuid.UUID, client *wsConn) {
	defer func() {
		// Limpieza en todo camino de salida: el registro nunca acumula
		// conexiones muertas.
		h.registry.Remove(userID, client)
		_ = client.Close()
	}()

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Handler) closeWith(conn *websocket.Conn, code int, reason string) {
	deadline := time.Now().Add(closeDeadline)
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(code, reason), deadline)
	_ = conn.Close()
}

// wsConn serializa las escrituras: gorilla no admite escritores concurrentes
// y el notifier difunde desde otra goroutine.
type wsConn struct {
	mu   sync.Mutex
	conn *websocket.Conn
}

func (c *wsConn) WriteJSON(v interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteJSON(v)
}

func (c *wsConn) Close() error {
	return c.conn.Close()
}
