package realtime

import (
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Conn es lo mínimo que el registro necesita de una conexión en vivo.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

// Registry mantiene el mapa usuario → conexiones abiertas. Es el único dueño
// de la pertenencia: las altas y bajas pasan por aquí, nunca por el notifier.
// Las mutaciones van protegidas con RWMutex porque registro y broadcast
// corren en goroutines distintas.
type Registry struct {
	mu    sync.RWMutex
	conns map[uuid.UUID]map[Conn]struct{}
	log   *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		conns: make(map[uuid.UUID]map[Conn]struct{}),
		log:   log,
	}
}

// Add registra una conexión autenticada, creando el set si no existe.
func (r *Registry) Add(userID uuid.UUID, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		set = make(map[Conn]struct{})
		r.conns[userID] = set
	}
	set[c] = struct{}{}
	r.log.Info("WS conectado", zap.String("user_id", userID.String()), zap.Int("connections", len(set)))
}

// Remove da de baja una conexión; si el set queda vacío elimina la entrada
// completa para no acumular usuarios sin conexiones.
func (r *Registry) Remove(userID uuid.UUID, c Conn) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(r.conns, userID)
	}
	r.log.Info("WS desconectado", zap.String("user_id", userID.String()), zap.Int("connections", len(set)))
}

// Connections devuelve una copia del set del usuario: el broadcast itera
// sobre la copia y no compite con altas/bajas concurrentes.
func (r *Registry) Connections(userID uuid.UUID) []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set, ok := r.conns[userID]
	if !ok {
		return nil
	}
	out := make([]Conn, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

// CountForUser devuelve cuántas conexiones vivas tiene el usuario.
func (r *Registry) CountForUser(userID uuid.UUID) int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID])
}
