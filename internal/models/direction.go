package models

// Direction says which side of a debt the user is on.
type Direction string

const (
	// DirectionOwedToMe means the contact owes the user.
	DirectionOwedToMe Direction = "owed_to_me"
	// DirectionIOwe means the user owes the contact.
	DirectionIOwe Direction = "i_owe"
)

// Valid reports whether d is one of the known directions.
func (d Direction) Valid() bool {
	return d == DirectionOwedToMe || d == DirectionIOwe
}

// Opposite returns the other direction.
func (d Direction) Opposite() Direction {
	if d == DirectionOwedToMe {
		return DirectionIOwe
	}
	return DirectionOwedToMe
}

// TransactionType classifies an audit row.
type TransactionType string

const (
	TransactionLend      TransactionType = "lend"
	TransactionBorrow    TransactionType = "borrow"
	TransactionRepayment TransactionType = "repayment"
	TransactionIncome    TransactionType = "income"
)

// CreationType returns the transaction type recorded when a debt in
// direction d is created.
func (d Direction) CreationType() TransactionType {
	if d == DirectionOwedToMe {
		return TransactionLend
	}
	return TransactionBorrow
}

// EvidenceType classifies an evidence note.
type EvidenceType string

const (
	EvidencePayment    EvidenceType = "payment"
	EvidenceSettlement EvidenceType = "settlement"
	EvidenceNote       EvidenceType = "note"
)
