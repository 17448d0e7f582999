package entity

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/farmasys/farmasys-api/internal/domain"
)

// ReceiptToken es una entrada del historial de recepciones de un lote:
// qué ítem entró, cuándo y quién lo aprobó. Se serializa como
// "item_id;fecha;aprobador_id" en la columna receipt_audit.
type ReceiptToken struct {
	ItemID     string
	Date       time.Time
	ApproverID string
}

// String serializa el token al formato persistido.
func (t ReceiptToken) String() string {
	return fmt.Sprintf("%s;%s;%s", t.ItemID, t.Date.Format("2006-01-02"), t.ApproverID)
}

// ParseReceiptToken deserializa un token "item_id;fecha;aprobador_id".
func ParseReceiptToken(s string) (ReceiptToken, error) {
	parts := strings.Split(s, ";")
	if len(parts) != 3 {
		return ReceiptToken{}, fmt.Errorf("token de recepción inválido: %q", s)
	}
	date, err := time.Parse("2006-01-02", parts[1])
	if err != nil {
		return ReceiptToken{}, fmt.Errorf("fecha de token inválida: %q", parts[1])
	}
	return ReceiptToken{ItemID: parts[0], Date: date, ApproverID: parts[2]}, nil
}

// InventoryLot identifica un lote físico de stock: la combinación
// (producto, vencimiento, nro de lote, nro de batch). Se crea solo por la
// ruta de consolidación "crear nuevo"; después solo se le agregan tokens
// al historial de recepciones.
type InventoryLot struct {
	ID           string
	ProductID    string
	ExpiryDate   *time.Time
	LotNo        *string
	BatchNo      *string
	Active       bool
	ReceiptAudit []ReceiptToken
	Version      int
	CreatedAt    time.Time
}

// SameIdentity compara la clave natural del lote contra los campos de un
// ítem de recepción (igualdad exacta, incluyendo nulos).
func (l *InventoryLot) SameIdentity(item *DeliveryItem) bool {
	if l.ProductID != item.ProductID {
		return false
	}
	if !equalDatePtr(l.ExpiryDate, item.ExpiryDate) {
		return false
	}
	return equalStrPtr(l.LotNo, item.LotNo) && equalStrPtr(l.BatchNo, item.BatchNo)
}

func equalStrPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func equalDatePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Format("2006-01-02") == b.Format("2006-01-02")
}

// Tipos de incentivo del vendedor asignado a un detalle.
const (
	IncentiveKindPercent = "percent"
	IncentiveKindAmount  = "amount"
)

// RepAssignment es la asignación de vendedor e incentivo de un detalle.
// Se actualiza siempre como grupo: nunca se sobreescribe un campo suelto.
type RepAssignment struct {
	RepID          string
	IncentiveKind  string
	IncentiveValue decimal.Decimal
}

// Validate verifica tipo de incentivo y valor no negativo.
func (a RepAssignment) Validate() error {
	if a.RepID == "" {
		return domain.ErrInvalidInput
	}
	if a.IncentiveKind != IncentiveKindPercent && a.IncentiveKind != IncentiveKindAmount {
		return domain.ErrInvalidInput
	}
	if a.IncentiveValue.IsNegative() {
		return domain.ErrInvalidInput
	}
	return nil
}

// InventoryDetail es el saldo en existencia de un lote expresado en una
// unidad de medida y nivel de conversión. RunningBalance solo crece bajo
// este motor (las salidas las maneja otro módulo).
type InventoryDetail struct {
	ID              string
	LotID           string
	UnitID          string
	ConversionLevel int
	RunningBalance  decimal.Decimal
	AssignedRepID   *string
	IncentiveKind   *string
	IncentiveValue  *decimal.Decimal
	Version         int
	UpdatedAt       time.Time
}

// ApplyRepAssignment sobreescribe los tres campos de vendedor como grupo.
func (d *InventoryDetail) ApplyRepAssignment(a RepAssignment) {
	repID := a.RepID
	kind := a.IncentiveKind
	value := a.IncentiveValue
	d.AssignedRepID = &repID
	d.IncentiveKind = &kind
	d.IncentiveValue = &value
}
