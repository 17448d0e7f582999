package entity

import "time"

// Product representa un producto del catálogo de la farmacia. Para el motor
// de consolidación es lectura: interesa su identidad y los descriptores
// técnicos que referencia (cada eje es opcional).
type Product struct {
	ID           string
	SKU          string // código único
	Name         string
	MaterialID   *string
	SizeID       *string
	DosageFormID *string
	ATCCodeID    *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DescriptorIDs devuelve los IDs de descriptores referenciados (sin nulos).
// Son los registros que quedan bloqueados al aprobar un ítem del producto.
func (p *Product) DescriptorIDs() []string {
	var ids []string
	for _, ref := range []*string{p.MaterialID, p.SizeID, p.DosageFormID, p.ATCCodeID} {
		if ref != nil && *ref != "" {
			ids = append(ids, *ref)
		}
	}
	return ids
}
