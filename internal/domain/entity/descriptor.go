package entity

// Descriptor es un registro de referencia de los catálogos técnicos
// (material, tamaño, forma farmacéutica, código ATC). El motor de
// consolidación solo lo lee y le baja la bandera Editable: una vez que
// algún producto que lo referencia entró al inventario, el descriptor
// queda bloqueado para edición de forma permanente.
type Descriptor struct {
	ID          string
	Description string
	Editable    bool
}
