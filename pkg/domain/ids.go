// Package domain holds the typed identifiers shared across modules.
//
// Each entity gets its own ID type so a ClientID can never be passed where an
// ActorID is expected. Construct IDs from external input with the ParseX
// functions; they reject empty, malformed and nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "taxdesk/pkg/domain-errors"
)

type (
	ActorID      uuid.UUID
	ClientID     uuid.UUID
	DocumentID   uuid.UUID
	PaymentID    uuid.UUID
	NoteID       uuid.UUID
	SessionID    uuid.UUID
	AuditEntryID uuid.UUID
)

func parseUUID(kind, s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, kind+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeValidation, "invalid "+kind)
	}
	return u, nil
}

func ParseActorID(s string) (ActorID, error) {
	u, err := parseUUID("actor id", s)
	return ActorID(u), err
}

func ParseClientID(s string) (ClientID, error) {
	u, err := parseUUID("client id", s)
	return ClientID(u), err
}

func ParseDocumentID(s string) (DocumentID, error) {
	u, err := parseUUID("document id", s)
	return DocumentID(u), err
}

func ParsePaymentID(s string) (PaymentID, error) {
	u, err := parseUUID("payment id", s)
	return PaymentID(u), err
}

func ParseNoteID(s string) (NoteID, error) {
	u, err := parseUUID("note id", s)
	return NoteID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID("session id", s)
	return SessionID(u), err
}

func (id ActorID) String() string      { return uuid.UUID(id).String() }
func (id ClientID) String() string     { return uuid.UUID(id).String() }
func (id DocumentID) String() string   { return uuid.UUID(id).String() }
func (id PaymentID) String() string    { return uuid.UUID(id).String() }
func (id NoteID) String() string       { return uuid.UUID(id).String() }
func (id SessionID) String() string    { return uuid.UUID(id).String() }
func (id AuditEntryID) String() string { return uuid.UUID(id).String() }

func (id ActorID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id ClientID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// MarshalText lets typed IDs appear as plain UUID strings in JSON.
func (id ActorID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ClientID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DocumentID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id PaymentID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id NoteID) MarshalText() ([]byte, error)       { return uuid.UUID(id).MarshalText() }
func (id SessionID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id AuditEntryID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *ActorID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ClientID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DocumentID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *PaymentID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *NoteID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SessionID) UnmarshalText(b []byte) error  { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *AuditEntryID) UnmarshalText(b []byte) error {
	return (*uuid.UUID)(id).UnmarshalText(b)
}

func NewActorID() ActorID           { return ActorID(uuid.New()) }
func NewClientID() ClientID         { return ClientID(uuid.New()) }
func NewDocumentID() DocumentID     { return DocumentID(uuid.New()) }
func NewPaymentID() PaymentID       { return PaymentID(uuid.New()) }
func NewNoteID() NoteID             { return NoteID(uuid.New()) }
func NewSessionID() SessionID       { return SessionID(uuid.New()) }
func NewAuditEntryID() AuditEntryID { return AuditEntryID(uuid.New()) }
