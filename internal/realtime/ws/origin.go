package ws

import "strings"

// OriginPolicy decide qué orígenes pueden abrir el canal WebSocket:
// la allow-list exacta, localhost/loopback en cualquier puerto y las
// extensiones de navegador.
type OriginPolicy struct {
	Allowed           []string // matches exactos (frontend + extras del operador)
	LocalCertificates bool     // habilita las variantes https de loopback
}

// Allows valida el origen declarado. Un origen vacío se acepta: clientes
// no-navegador no lo envían.
func (p OriginPolicy) Allows(origin string) bool {
	if origin == "" {
		return true
	}

	for _, allowed := range p.Allowed {
		if allowed != "" && allowed == origin {
			return true
		}
	}

	if strings.HasPrefix(origin, "http://localhost:") || strings.HasPrefix(origin, "http://127.0.0.1:") {
		return true
	}
	if p.LocalCertificates &&
		(strings.HasPrefix(origin, "https://localhost:") || strings.HasPrefix(origin, "https://127.0.0.1:")) {
		return true
	}

	return strings.HasPrefix(origin, "chrome-extension://")
}
