// Package hub implements the Real-Time Synchronization Hub: one owning
// actor per open planning period that serializes all mutations to that
// period's schedule and fans out accepted operations to attached sessions.
// Message shapes are grounded on the ShiftUpdate/ShiftSyncRequest envelope
// pattern of the theshidiq websocket reference server, adapted to this
// repo's Cell/Symbol domain model and to the camelCase wire naming of
// spec.md §6.1.
package hub

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shiftsync/core/pkg/model"
)

// MessageType names one of the wire protocol's recognized record types.
type MessageType string

const (
	TypeSyncRequest         MessageType = "SYNC_REQUEST"
	TypeSyncResponse        MessageType = "SYNC_RESPONSE"
	TypeShiftUpdate         MessageType = "SHIFT_UPDATE"
	TypeShiftBulkUpdate     MessageType = "SHIFT_BULK_UPDATE"
	TypeGenerateSchedule    MessageType = "GENERATE_SCHEDULE"
	TypeScheduleGenerated   MessageType = "SCHEDULE_GENERATED"
	TypeShiftUpdated        MessageType = "SHIFT_UPDATED"
	TypeSettingsSyncRequest MessageType = "SETTINGS_SYNC_REQUEST"
	TypeSettingsUpdated     MessageType = "SETTINGS_UPDATED"
	TypeConflict            MessageType = "CONFLICT"
	TypeError               MessageType = "ERROR"
	TypeConnectionAck       MessageType = "CONNECTION_ACK"
)

// Message is the self-describing envelope every wire record is framed in,
// per spec.md §6.1: {type, payload, timestamp, version?, client_id?}.
type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Version   *uint64         `json:"version,omitempty"`
	ClientID  string          `json:"clientId,omitempty"`
}

// encode marshals a typed payload into a framed Message.
func encode(t MessageType, clientID string, payload interface{}) (Message, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Message{}, err
	}
	return Message{Type: t, Payload: raw, Timestamp: time.Now(), ClientID: clientID}, nil
}

// SymbolEncoding is the deployment-wide, stable choice of how Symbol values
// are rendered on the wire (spec.md §6.1): as an integer tag or as a
// display glyph. It never varies per-message — a period hub is constructed
// with exactly one encoding and keeps it for its lifetime.
type SymbolEncoding int

const (
	EncodingTag SymbolEncoding = iota
	EncodingGlyph
)

// ParseSymbolEncoding parses the config/env value ("tag"|"glyph").
func ParseSymbolEncoding(s string) (SymbolEncoding, bool) {
	switch s {
	case "", "tag":
		return EncodingTag, true
	case "glyph":
		return EncodingGlyph, true
	default:
		return EncodingTag, false
	}
}

// CellPayload is one (staff, date, symbol) point on the wire. Symbol
// marshals per the period hub's configured SymbolEncoding, set once at
// startup and never scattered per call site.
type CellPayload struct {
	StaffID string `json:"staffId"`
	Date    string `json:"date"`
	Symbol  string `json:"symbol"`
}

func toCellPayload(c model.CellValue, enc SymbolEncoding) CellPayload {
	return CellPayload{StaffID: c.StaffID.String(), Date: c.Date, Symbol: encodeSymbol(c.Symbol, enc)}
}

func encodeSymbol(sym model.Symbol, enc SymbolEncoding) string {
	if enc == EncodingGlyph {
		return sym.Glyph()
	}
	return strconv.Itoa(sym.Tag())
}

// SyncRequestPayload is C→S SYNC_REQUEST's body.
type SyncRequestPayload struct {
	PeriodID     string  `json:"periodId"`
	SinceVersion *uint64 `json:"sinceVersion,omitempty"`
}

// SyncResponsePayload is S→C SYNC_RESPONSE's body: either a full snapshot
// or, when the requested version is within the change-log window, the
// list of operations to replay.
type SyncResponsePayload struct {
	PeriodID string        `json:"periodId"`
	Version  uint64        `json:"version"`
	Cells    []CellPayload `json:"cells,omitempty"`
	Replay   []Operation   `json:"replay,omitempty"`
	Snapshot bool          `json:"snapshot"`
}

// ShiftUpdatePayload is C→S SHIFT_UPDATE's body.
type ShiftUpdatePayload struct {
	StaffID     string `json:"staffId"`
	Date        string `json:"date"`
	Symbol      string `json:"symbol"`
	BaseVersion uint64 `json:"baseVersion"`
}

// ShiftBulkUpdatePayload is C→S SHIFT_BULK_UPDATE's body.
type ShiftBulkUpdatePayload struct {
	Cells       []CellPayload `json:"cells"`
	BaseVersion uint64        `json:"baseVersion"`
}

// ShiftUpdatedPayload is the S→C broadcast emitted after any accepted
// mutation, one per changed cell.
type ShiftUpdatedPayload struct {
	StaffID string `json:"staffId"`
	Date    string `json:"date"`
	Symbol  string `json:"symbol"`
	Version uint64 `json:"version"`
}

// GenerateSchedulePayload is C→S GENERATE_SCHEDULE's body.
type GenerateSchedulePayload struct {
	DateFrom    string `json:"dateFrom"`
	DateTo      string `json:"dateTo"`
	BaseVersion uint64 `json:"baseVersion"`
	TimeoutS    int    `json:"timeoutS"`
}

// ScheduleGeneratedPayload is S→C SCHEDULE_GENERATED's body.
type ScheduleGeneratedPayload struct {
	Cells         []CellPayload        `json:"cells"`
	Version       uint64               `json:"version"`
	IsOptimal     bool                 `json:"isOptimal"`
	SolveTimeMS   int64                `json:"solveTimeMs"`
	Stats         *model.ScheduleStats `json:"stats,omitempty"`
}

// ConflictPayload is S→C CONFLICT's body.
type ConflictPayload struct {
	CurrentVersion   uint64        `json:"currentVersion"`
	ConflictingCells []CellPayload `json:"conflictingCells,omitempty"`
}

// ErrorPayload is S→C ERROR's body.
type ErrorPayload struct {
	Kind   string `json:"kind"`
	Detail string `json:"detail"`
}

// ConnectionAckPayload is S→C CONNECTION_ACK's body, sent once per
// accepted connection before any other traffic.
type ConnectionAckPayload struct {
	ClientID   string    `json:"clientId"`
	ServerTime time.Time `json:"serverTime"`
}

// SettingsSyncRequestPayload carries a constraint-configuration mutation.
// The WebSocket server's dispatch has no case for this message type: a
// SETTINGS_SYNC_REQUEST is answered with an invalid_message ERROR, the
// period's ConfigVersion is not changed, and no SETTINGS_UPDATED is sent.
type SettingsSyncRequestPayload struct {
	ConfigVersion model.ConfigVersion `json:"configVersion"`
	BaseVersion   uint64              `json:"baseVersion"`
}

// Operation is one accepted, totally-ordered mutation recorded in a
// period's change log for late-joiner replay (spec.md §4.2).
type Operation struct {
	Seq     uint64        `json:"seq"`
	Version uint64        `json:"version"`
	Cells   []CellPayload `json:"cells"`
}
