package license

// Type identifies the commercial shape of a license and drives expiry
// computation.
type Type string

const (
	TypePermanente         Type = "permanente"
	TypeTrial              Type = "trial"
	TypeAbbonamentoMensile Type = "abbonamento_mensile"
	TypeAbbonamentoAnnuale Type = "abbonamento_annuale"

	// Legacy aliases still present in older rows. Accepted everywhere a
	// subscription type is, never written back on new licenses.
	TypeMensile Type = "mensile"
	TypeAnnuale Type = "annuale"
)

// Status is the lifecycle state of a license.
type Status string

const (
	StatusAttiva            Status = "attiva"
	StatusDemo              Status = "demo"
	StatusScaduta           Status = "scaduta"
	StatusInAttesaConvalida Status = "in_attesa_convalida"
	StatusSospesa           Status = "sospesa"
)

// TransactionType classifies billing transactions emitted by the back office.
type TransactionType string

const (
	TransactionRinnovo     TransactionType = "rinnovo"
	TransactionAttivazione TransactionType = "attivazione"
)

// TransactionStatus is the settlement state of a transaction.
type TransactionStatus string

const (
	TransactionInAttesa  TransactionStatus = "in_attesa"
	TransactionPagata    TransactionStatus = "pagata"
	TransactionAnnullata TransactionStatus = "annullata"
)

// DefaultTrialDays is used when a trial license has no explicit trial length.
const DefaultTrialDays = 30

// ValidTypes lists every accepted license type, legacy aliases included.
func ValidTypes() []Type {
	return []Type{
		TypePermanente,
		TypeTrial,
		TypeAbbonamentoMensile,
		TypeAbbonamentoAnnuale,
		TypeMensile,
		TypeAnnuale,
	}
}

// IsValidType reports whether t is a recognized license type.
func IsValidType(t string) bool {
	for _, v := range ValidTypes() {
		if Type(t) == v {
			return true
		}
	}
	return false
}

// IsLegacyType reports whether t is one of the pre-migration aliases.
func IsLegacyType(t string) bool {
	return Type(t) == TypeMensile || Type(t) == TypeAnnuale
}

// IsSubscription reports whether t is a recurring subscription type,
// i.e. eligible for automatic renewal.
func IsSubscription(t string) bool {
	switch Type(t) {
	case TypeAbbonamentoMensile, TypeAbbonamentoAnnuale, TypeMensile, TypeAnnuale:
		return true
	}
	return false
}

// ValidStatuses lists every accepted license status.
func ValidStatuses() []Status {
	return []Status{
		StatusAttiva,
		StatusDemo,
		StatusScaduta,
		StatusInAttesaConvalida,
		StatusSospesa,
	}
}

// IsValidStatus reports whether s is a recognized license status.
func IsValidStatus(s string) bool {
	for _, v := range ValidStatuses() {
		if Status(s) == v {
			return true
		}
	}
	return false
}
