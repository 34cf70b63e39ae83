package models

// SequenceInvoice names the sequence backing invoice numbers.
const SequenceInvoice = "invoice"

// Sequence stores the highest value ever issued for a named counter.
// It outlives the rows it numbered, so deleting the newest invoice does not free its number.
type Sequence struct {
	Name  string `gorm:"primaryKey;size:50"`
	Value int    `gorm:"not null;default:0"`
}

// All returns every persisted model in dependency order, for AutoMigrate and tests.
func All() []any {
	return []any{
		&CompanySettings{},
		&Recipient{},
		&Invoice{},
		&LineItem{},
		&Sequence{},
	}
}
