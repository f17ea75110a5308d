package models

// All returns every model the schema is migrated for.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&Cart{},
		&CartItem{},
		&Order{},
		&OrderItem{},
		&Session{},
		&SessionToken{},
	}
}
