package repository

import "github.com/farmasys/farmasys-api/internal/domain/entity"

// ProductRepository define el puerto de lectura del catálogo de productos (DIP).
type ProductRepository interface {
	GetByID(id string) (*entity.Product, error)
	GetBySKU(sku string) (*entity.Product, error)
	List(limit, offset int) ([]*entity.Product, error)
}
