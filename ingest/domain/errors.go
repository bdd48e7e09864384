package domain

import "errors"

var (
	// ErrClientNotFound se retorna cuando no se encuentra un cliente
	ErrClientNotFound = errors.New("client not found")

	// ErrChatNotFound se retorna cuando no se encuentra un chat
	ErrChatNotFound = errors.New("chat not found")

	// ErrChannelNotFound se retorna cuando no se encuentra un canal
	ErrChannelNotFound = errors.New("channel not found")

	// ErrMessageNotFound se retorna cuando no se encuentra un mensaje
	ErrMessageNotFound = errors.New("message not found")

	// ErrUserNotFound se retorna cuando no se encuentra un usuario
	ErrUserNotFound = errors.New("user not found")

	// ErrNoResponsible indicates the client has no current assignee.
	ErrNoResponsible = errors.New("client has no responsible user")

	// ErrNoManagersAvailable indicates there is no active human staff member
	// eligible for fallback reassignment.
	ErrNoManagersAvailable = errors.New("no managers available")
)
