// Package models defines the persisted ledger entities.
package models

// All lists every model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Account{},
		&Category{},
		&Transaction{},
		&Budget{},
		&Project{},
		&Investment{},
		&AuditLog{},
	}
}
