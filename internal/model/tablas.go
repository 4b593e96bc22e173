package model

// Tablas returns one zero value per persisted model, parents first. Migration
// walks it forward; restore deletes in reverse and inserts forward.
func Tablas() []interface{} {
	return []interface{}{
		&Vendedor{},
		&Rubro{},
		&Cliente{},
		&Articulo{},
		&Remito{},
		&RemitoItem{},
		&HistorialPrecio{},
	}
}
