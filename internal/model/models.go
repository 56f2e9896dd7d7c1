package model

// All returns every model for migrations
func All() []interface{} {
	return []interface{}{
		&Workshop{},
		&User{},
		&Job{},
		&JobPhoto{},
		&Estimate{},
		&Subscription{},
		&PendingCheckout{},
	}
}
