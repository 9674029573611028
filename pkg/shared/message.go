package shared

import (
	"encoding/json"
	"fmt"
)

// MessageType definiert den Typ einer Nachricht für die WebSocket-Kommunikation.
type MessageType int

// Server -> Client: Text, Clear, Beep, Session, InputControl, Prompt.
// Client -> Server: Input, KeyDown, Break.
const (
	MessageTypeText         MessageType = 0  // Textausgabe
	MessageTypeClear        MessageType = 1  // Bildschirm löschen (HOME)
	MessageTypeBeep         MessageType = 2  // Beep-Ton
	MessageTypeSession      MessageType = 8  // Session-ID Übermittlung
	MessageTypeInputControl MessageType = 9  // Eingabesteuerung (aktivieren/deaktivieren)
	MessageTypePrompt       MessageType = 12 // Prompt-Informationen (Symbol, Eingabestatus)
	MessageTypeInput        MessageType = 14 // Eingabezeile vom Frontend
	MessageTypeKeyDown      MessageType = 16 // Taste gedrückt
	MessageTypeBreak        MessageType = 32 // Ctrl-C: laufendes Programm unterbrechen
)

// Modes reported with MessageTypePrompt and MessageTypeInputControl.
const (
	ModeReady   = "ready"
	ModeRunning = "running"
	ModeInput   = "input"
)

// Message repräsentiert eine Nachricht, die über WebSocket gesendet oder empfangen wird.
type Message struct {
	Type    MessageType `json:"type"`
	Content string      `json:"content,omitempty"`
	// Für TEXT - verhindert automatischen Zeilenumbruch im Frontend
	NoNewline bool `json:"noNewline,omitempty"`

	// Für SESSION
	SessionID string `json:"sessionId,omitempty"`
	Username  string `json:"username,omitempty"`

	// Für INPUT (Client -> Server)
	InputStr string `json:"input,omitempty"`
	// Für PROMPT oder INPUT_CONTROL
	InputEnabled *bool  `json:"inputEnabled,omitempty"`
	PromptSymbol string `json:"promptSymbol,omitempty"`
	// ready, input oder running
	Mode string `json:"mode,omitempty"`
}

// clientTypes are the types a client may send.
var clientTypes = map[MessageType]bool{
	MessageTypeInput:   true,
	MessageTypeKeyDown: true,
	MessageTypeBreak:   true,
}

// ParseClientMessage decodes a client message and rejects server-only
// types.
func ParseClientMessage(data []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("invalid message: %w", err)
	}
	if !clientTypes[msg.Type] {
		return nil, fmt.Errorf("message type %d not accepted from clients", msg.Type)
	}
	return &msg, nil
}

// Bool returns a pointer to b for the optional flags.
func Bool(b bool) *bool {
	return &b
}
