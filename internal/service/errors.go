package service

import (
	"errors"
	"net/http"
)

// APIError porte le statut HTTP et le message renvoyé au client
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

func NotFound(msg string) *APIError     { return &APIError{Status: http.StatusNotFound, Message: msg} }
func BadRequest(msg string) *APIError   { return &APIError{Status: http.StatusBadRequest, Message: msg} }
func Unauthorized(msg string) *APIError { return &APIError{Status: http.StatusUnauthorized, Message: msg} }
func Forbidden(msg string) *APIError    { return &APIError{Status: http.StatusForbidden, Message: msg} }
func Conflict(msg string) *APIError     { return &APIError{Status: http.StatusConflict, Message: msg} }

// AsAPIError extrait l'APIError d'une chaîne d'erreurs
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

const (
	msgNoCart           = "User does not have a cart"
	msgAlreadyInCart    = "Product already in the cart"
	msgProductNotInDB   = "Product does not exist in database"
	msgProductNotExist  = "Product does not exist"
	msgProductNotInCart = "Product not in cart"
	msgCartEmpty        = "Cart is empty"
	msgAddressNotSet    = "Address not set"
	msgInsufficient     = "Insufficient balance"
	msgEmailTaken       = "Email already taken"
	msgUserNotFound     = "User not found"
	msgBadCredentials   = "Incorrect email or password"
	msgProductNotFound  = "Product not found"
	msgCartBusy         = "Cart was modified concurrently, please retry"
	msgInvalidQuantity  = "Quantity must be a positive integer"
	msgNegativeQuantity = "Quantity must not be negative"
	msgAddressRequired  = "Address is required"
	msgInvalidAmount    = "Amount must be between 0 and 10000"
	msgInvalidSignature = "Invalid webhook signature"
	msgPaymentsDisabled = "Payments are not configured"
)
