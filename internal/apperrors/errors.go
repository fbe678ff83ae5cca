package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

type Code string

// Move rule violations.
const (
	CodeInvalidSquare           Code = "INVALID_SQUARE"
	CodeNotYourPiece            Code = "NOT_YOUR_PIECE"
	CodeDestinationOccupied     Code = "DESTINATION_OCCUPIED"
	CodeMustMoveDiagonally      Code = "MUST_MOVE_DIAGONALLY"
	CodeInvalidDirection        Code = "INVALID_DIRECTION"
	CodeMustCapture             Code = "MUST_CAPTURE"
	CodeNoPieceToCapture        Code = "NO_PIECE_TO_CAPTURE"
	CodeInvalidCaptureDirection Code = "INVALID_CAPTURE_DIRECTION"
	CodeInvalidMoveDistance     Code = "INVALID_MOVE_DISTANCE"
	CodeMustContinueJump        Code = "MUST_CONTINUE_JUMP"
)

// Game access guards.
const (
	CodeGameNotFound  Code = "GAME_NOT_FOUND"
	CodeGameNotActive Code = "GAME_NOT_ACTIVE"
	CodeNotYourTurn   Code = "NOT_YOUR_TURN"
	CodeNotInThisGame Code = "NOT_IN_THIS_GAME"
	CodeTimeExpired   Code = "TIME_EXPIRED"
)

// Tournament guards.
const (
	CodeTournamentNotFound        Code = "TOURNAMENT_NOT_FOUND"
	CodeMatchNotFound             Code = "MATCH_NOT_FOUND"
	CodeMatchNotReady             Code = "MATCH_NOT_READY"
	CodeNotInThisMatch            Code = "NOT_IN_THIS_MATCH"
	CodeInvalidInviteCode         Code = "INVALID_INVITE_CODE"
	CodeTournamentFull            Code = "TOURNAMENT_FULL"
	CodeAlreadyRegistered         Code = "ALREADY_REGISTERED"
	CodeNotAcceptingRegistrations Code = "NOT_ACCEPTING_REGISTRATIONS"
)

const (
	CodeValidation       Code = "VALIDATION_ERROR"
	CodeInvalidOperation Code = "INVALID_OPERATION"
	CodeForbidden        Code = "FORBIDDEN"
	CodePersistence      Code = "PERSISTENCE_ERROR"
)

type AppError struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Status  int    `json:"status"`
	Err     error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details == "" {
		return fmt.Sprintf("[%s] %s", e.Code, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is matches on code, so a rejection with a custom message still
// satisfies errors.Is against the sentinel for its code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func New(code Code, message string, status int) *AppError {
	return &AppError{Code: code, Message: message, Status: status}
}

var (
	ErrInvalidSquare           = New(CodeInvalidSquare, "Invalid square", http.StatusBadRequest)
	ErrNotYourPiece            = New(CodeNotYourPiece, "Not your piece", http.StatusBadRequest)
	ErrDestinationOccupied     = New(CodeDestinationOccupied, "Destination not empty", http.StatusBadRequest)
	ErrMustMoveDiagonally      = New(CodeMustMoveDiagonally, "Must move diagonally", http.StatusBadRequest)
	ErrInvalidDirection        = New(CodeInvalidDirection, "Invalid direction", http.StatusBadRequest)
	ErrMustCapture             = New(CodeMustCapture, "Must capture", http.StatusBadRequest)
	ErrNoPieceToCapture        = New(CodeNoPieceToCapture, "No piece to capture", http.StatusBadRequest)
	ErrInvalidCaptureDirection = New(CodeInvalidCaptureDirection, "Invalid capture direction", http.StatusBadRequest)
	ErrInvalidMoveDistance     = New(CodeInvalidMoveDistance, "Invalid move distance", http.StatusBadRequest)
	ErrMustContinueJump        = New(CodeMustContinueJump, "Must continue jumping with the same piece", http.StatusBadRequest)

	ErrGameNotFound  = New(CodeGameNotFound, "Game not found", http.StatusNotFound)
	ErrGameNotActive = New(CodeGameNotActive, "Game not active", http.StatusConflict)
	ErrNotYourTurn   = New(CodeNotYourTurn, "Not your turn", http.StatusConflict)
	ErrNotInThisGame = New(CodeNotInThisGame, "Not in this game", http.StatusForbidden)
	ErrTimeExpired   = New(CodeTimeExpired, "Time expired", http.StatusConflict)

	ErrTournamentNotFound        = New(CodeTournamentNotFound, "Tournament not found", http.StatusNotFound)
	ErrMatchNotFound             = New(CodeMatchNotFound, "Match not found", http.StatusNotFound)
	ErrMatchNotReady             = New(CodeMatchNotReady, "Match not ready", http.StatusConflict)
	ErrNotInThisMatch            = New(CodeNotInThisMatch, "Not in this match", http.StatusForbidden)
	ErrInvalidInviteCode         = New(CodeInvalidInviteCode, "Invalid invite code", http.StatusNotFound)
	ErrTournamentFull            = New(CodeTournamentFull, "Tournament is full", http.StatusConflict)
	ErrAlreadyRegistered         = New(CodeAlreadyRegistered, "Already registered", http.StatusConflict)
	ErrNotAcceptingRegistrations = New(CodeNotAcceptingRegistrations, "Tournament not accepting registrations", http.StatusConflict)

	// Code-only sentinels for errors.Is against Rejected, Forbidden,
	// Validation and Persistence errors.
	ErrInvalidOperation = New(CodeInvalidOperation, "Invalid operation", http.StatusConflict)
	ErrForbidden        = New(CodeForbidden, "Forbidden", http.StatusForbidden)
	ErrValidation       = New(CodeValidation, "Validation failed", http.StatusBadRequest)
	ErrPersistence      = New(CodePersistence, "Storage failure", http.StatusInternalServerError)
)

func Validation(message string, details string) *AppError {
	return &AppError{
		Code:    CodeValidation,
		Message: message,
		Details: details,
		Status:  http.StatusBadRequest,
	}
}

// Rejected reports a state-machine guard that has no dedicated code,
// e.g. "Draw already offered".
func Rejected(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidOperation,
		Message: message,
		Status:  http.StatusConflict,
	}
}

func Forbidden(message string) *AppError {
	return &AppError{
		Code:    CodeForbidden,
		Message: message,
		Status:  http.StatusForbidden,
	}
}

func Persistence(err error) *AppError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return &AppError{
		Code:    CodePersistence,
		Message: "Storage failure",
		Details: details,
		Status:  http.StatusInternalServerError,
		Err:     err,
	}
}

// CodeOf returns the code carried by err, or "" when err is not an AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}
