// Package cars contiene los DTOs de /api/coches.
package cars

// CarRequest body de POST/PUT.
type CarRequest struct {
	ID        int64  `json:"id,omitempty"`
	Marca     string `json:"marca"`
	Potencia  int    `json:"potencia"`
	Encendido bool   `json:"encendido"`
	Version   int64  `json:"version,omitempty"`
}

// CarResponse representación pública de un coche.
type CarResponse struct {
	ID        int64  `json:"id"`
	Marca     string `json:"marca"`
	Potencia  int    `json:"potencia"`
	Encendido bool   `json:"encendido"`
	Version   int64  `json:"version"`
}

// StatusResponse respuesta de operaciones sin cuerpo (DELETE).
type StatusResponse struct {
	Status string `json:"status"`
}
