package board

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownLocation = errors.New("unknown location")
	ErrRowNotFound     = errors.New("staging row not found")
	ErrUnknownField    = errors.New("unknown staging field")
	ErrInvalidStatus   = errors.New("invalid slot status")
	ErrInvalidFlux     = errors.New("invalid flux")
	ErrNoOrder         = errors.New("slot holds no order")
)

// Status is the occupancy state of a slot.
type Status string

const (
	StatusEmpty  Status = "EMPTY"
	StatusJaune  Status = "JAUNE"  // failed, awaiting reprogramming
	StatusBlanc  Status = "BLANC"  // reprogrammed, awaiting dispatch
	StatusRouge  Status = "ROUGE"  // refused, awaiting cancellation
	StatusBleu   Status = "BLEU"   // cancelled, pending store return
	StatusOrange Status = "ORANGE" // status error or remaining article
)

// Statuses lists every status in display order.
var Statuses = []Status{StatusEmpty, StatusJaune, StatusBlanc, StatusRouge, StatusBleu, StatusOrange}

// ParseStatus validates a raw status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusEmpty, StatusJaune, StatusBlanc, StatusRouge, StatusBleu, StatusOrange:
		return st, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// UnmarshalText rejects statuses outside the closed set. A blank status
// decodes as EMPTY.
func (s *Status) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*s = StatusEmpty
		return nil
	}
	st, err := ParseStatus(string(b))
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Occupied reports whether the status carries an order.
func (s Status) Occupied() bool { return s != StatusEmpty }

// InProgress reports whether the status counts toward the "ENCOURS" total.
func (s Status) InProgress() bool {
	switch s {
	case StatusJaune, StatusBlanc, StatusRouge, StatusBleu:
		return true
	}
	return false
}

// Label is the operator-facing name of the status.
func (s Status) Label() string {
	switch s {
	case StatusEmpty:
		return "DISPONIBLE"
	case StatusJaune:
		return "FAILED"
	case StatusBlanc:
		return "DÉPART"
	case StatusRouge:
		return "REFUS"
	case StatusBleu:
		return "RETOUR ISOM"
	case StatusOrange:
		return "ORDER"
	}
	return string(s)
}

// Description explains the workflow stage.
func (s Status) Description() string {
	switch s {
	case StatusEmpty:
		return "Emplacement vide"
	case StatusJaune:
		return "En attente de reprogrammation"
	case StatusBlanc:
		return "Commande reprogrammée"
	case StatusRouge:
		return "En attente d'annulation"
	case StatusBleu:
		return "Retour magasin (annulé)"
	case StatusOrange:
		return "Erreur de statut ou article restant"
	}
	return ""
}

// Flux is the delivery-flow classification of an order.
type Flux string

const (
	FluxNone Flux = ""
	FluxCDC  Flux = "CDC"
	FluxLCD  Flux = "LCD"
	FluxRET  Flux = "RET"
	FluxREG  Flux = "REG"
)

// ParseFlux validates a raw flux string.
func ParseFlux(s string) (Flux, error) {
	switch f := Flux(s); f {
	case FluxNone, FluxCDC, FluxLCD, FluxRET, FluxREG:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFlux, s)
}

// UnmarshalText rejects flux values outside the closed set.
func (f *Flux) UnmarshalText(b []byte) error {
	v, err := ParseFlux(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// DateNew marks an order that has not been dated yet.
const DateNew = "NEW"

// Order is the payload held by an occupied slot. CreatedAt is the entry
// time in Unix milliseconds and is set once.
type Order struct {
	ID          string `json:"id"`
	OrderNumber string `json:"orderNumber"`
	Flux        Flux   `json:"flux"`
	ClientName  string `json:"clientName"`
	Date        string `json:"date"`
	Info        string `json:"info"`
	Tournee     string `json:"tournee,omitempty"`
	Comment     string `json:"comment"`
	CreatedAt   int64  `json:"createdAt,omitempty"`
}

// Slot is one physical pallet position. Order is set iff Status is not EMPTY.
type Slot struct {
	LocationID string `json:"locationId"`
	Status     Status `json:"status"`
	Order      *Order `json:"order,omitempty"`
}

// ArchiveEntry records one completed occupancy. Times are Unix milliseconds.
type ArchiveEntry struct {
	OrderNumber string `json:"orderNumber"`
	ClientName  string `json:"clientName"`
	EntryTime   int64  `json:"entryTime"`
	ExitTime    int64  `json:"exitTime"`
	Flux        Flux   `json:"flux,omitempty"`
	LocationID  string `json:"locationId"`
}

func millis(t time.Time) int64 { return t.UnixMilli() }
