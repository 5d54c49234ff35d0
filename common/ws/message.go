package ws

import (
	"encoding/json"
	"time"
)

// Message is the event envelope pushed to websocket subscribers.
type Message struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp,omitempty"`
}

// NewMessage builds a Message stamped with the current time.
func NewMessage(typ string, data map[string]interface{}) Message {
	return Message{Type: typ, Data: data, Timestamp: time.Now().UTC()}
}

// Marshal marshals the message to JSON bytes.
func (m *Message) Marshal() ([]byte, error) {
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now().UTC()
	}
	return json.Marshal(m)
}

// Fleet event types.
const (
	MessageTypeHello             = "hello"
	MessageTypePong              = "pong"
	MessageTypeError             = "error"
	MessageTypePrinterCreated    = "printer_created"
	MessageTypePrinterUpdated    = "printer_updated"
	MessageTypePrinterDeleted    = "printer_deleted"
	MessageTypeStatusChanged     = "printer_status_changed"
	MessageTypeTransferLogged    = "transfer_logged"
	MessageTypeMaintenanceLogged = "maintenance_logged"
	MessageTypeClientCreated     = "client_created"
	MessageTypeClientUpdated     = "client_updated"
	MessageTypeClientDeleted     = "client_deleted"
	MessageTypeDepartmentCreated = "department_created"
	MessageTypeDepartmentDeleted = "department_deleted"
	MessageTypeTonerDeleted      = "toner_deleted"
	MessageTypeTonersImported    = "toners_imported"
	MessageTypePrinterProbed     = "printer_probed"
	MessageTypeLogEntry          = "log_entry"
)
