package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound            = errors.New("recurso no encontrado")
	ErrInvalidInput        = errors.New("entrada inválida")
	ErrInvalidPrice        = errors.New("el precio debe ser un número positivo")
	ErrInvalidQuantity     = errors.New("al menos una cantidad debe ser positiva")
	ErrAlreadyApproved     = errors.New("el ítem ya fue aprobado")
	ErrItemDeactivated     = errors.New("el ítem está desactivado")
	ErrConcurrencyConflict = errors.New("conflicto de concurrencia, reintente la operación")
	ErrDuplicate           = errors.New("recurso duplicado")
)
