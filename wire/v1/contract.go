// Package v1 defines the Leviton push-socket wire contract.
//
// This package is intentionally stable and dependency-light. The vendor owns
// the encoding; everything inbound is validated defensively before use.
package v1

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Frame type constants (wire-stable).
const (
	// TypeStatus carries connection lifecycle status (server -> client).
	// An auth handshake completes when status == StatusReady arrives.
	TypeStatus = "status"

	// TypeNotification delivers a state-change push for a subscribed model
	// (server -> client).
	TypeNotification = "notification"

	// TypeSubscribe requests push updates for a model (client -> server).
	TypeSubscribe = "subscribe"

	// TypeUnsubscribe cancels push updates for a model (client -> server).
	TypeUnsubscribe = "unsubscribe"

	// TypeError is a server-reported failure (server -> client).
	TypeError = "error"
)

// StatusReady is the status value signalling that the socket is
// authenticated and accepting subscription traffic.
const StatusReady = "ready"

// Model kinds are LoopBack model names (wire-stable).
const (
	// KindHub is the LWHEM whole-home energy hub.
	KindHub = "IotWhem"
	// KindPanel is the DAU/LDATA breaker panel hub.
	KindPanel = "ResidentialBreakerPanel"
	// KindBreaker is an individual circuit breaker.
	KindBreaker = "ResidentialBreaker"
	// KindCT is a current-transformer clamp.
	KindCT = "IotCt"
)

// Frame is the canonical inbound wire wrapper.
//
// The auth frame is the one outbound message without a type field; it is
// encoded separately as AuthFrame.
type Frame struct {
	Type         string        `json:"type,omitempty"`
	Status       string        `json:"status,omitempty"`
	ConnectionID string        `json:"connectionId,omitempty"`
	Subscription *Subscription `json:"subscription,omitempty"`
	Notification *Notification `json:"notification,omitempty"`
	Error        *ErrorDetail  `json:"error,omitempty"`
}

// Validate checks structural invariants of an inbound frame.
func (f Frame) Validate() error {
	switch f.Type {
	case "":
		return errors.New("missing type")
	case TypeStatus:
		if f.Status == "" {
			return errors.New("status frame missing status")
		}
	case TypeNotification:
		if f.Notification == nil {
			return errors.New("notification frame missing notification")
		}
		return f.Notification.Validate()
	case TypeError:
		// Error detail is optional; some server errors arrive bare.
	case TypeSubscribe, TypeUnsubscribe:
		// Client-originated types are never valid inbound.
		return fmt.Errorf("unexpected client frame type: %s", f.Type)
	default:
		return fmt.Errorf("unsupported type: %s", f.Type)
	}
	return nil
}

// Subscription identifies one (model kind, model id) pair.
type Subscription struct {
	ModelName string  `json:"modelName"`
	ModelID   ModelID `json:"modelId"`
}

// SubscribeFrame is the outbound subscribe/unsubscribe message.
type SubscribeFrame struct {
	Type         string       `json:"type"`
	Subscription Subscription `json:"subscription"`
}

// Notification is the decoded push payload for a subscribed model.
// Data holds the partial attribute update and is left raw for the caller.
type Notification struct {
	ModelName string          `json:"modelName"`
	ModelID   ModelID         `json:"modelId,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// Validate checks structural invariants of a notification.
func (n Notification) Validate() error {
	if n.ModelName == "" {
		return errors.New("notification missing modelName")
	}
	return nil
}

// ErrorDetail is the server-side error body.
type ErrorDetail struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// Token is the session token material sent during the socket auth handshake.
// Field names and shape match the REST login response.
type Token struct {
	ID         string          `json:"id"`
	TTL        int64           `json:"ttl"`
	Scopes     json.RawMessage `json:"scopes"`
	Created    string          `json:"created"`
	UserID     string          `json:"userId"`
	User       json.RawMessage `json:"user"`
	RememberMe bool            `json:"rememberMe"`
}

// AuthFrame is the outbound auth handshake message. It deliberately has no
// type field; the server recognizes it by the token key.
type AuthFrame struct {
	Token Token `json:"token"`
}
