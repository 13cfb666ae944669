package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/auth"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
	"github.com/cory-johannsen/tabletop/internal/gameserver"
)

// errBadRequest marks malformed or incomplete request bodies.
var errBadRequest = errors.New("bad request")

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

type messageBody struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// decode reads a JSON body into dst.
//
// Postcondition: Returns an error wrapping errBadRequest on malformed or oversized input.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", errBadRequest)
		}
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}

// required takes name, value pairs and returns errBadRequest naming the first
// empty value.
func required(pairs ...string) error {
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			return fmt.Errorf("%w: %s is required", errBadRequest, pairs[i])
		}
	}
	return nil
}

// statusFor maps a domain error to its HTTP status.
func statusFor(err error) int {
	var abilityErr *interaction.AbilityNotFoundError
	switch {
	case errors.Is(err, auth.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, session.ErrGameNotFound),
		errors.Is(err, turn.ErrTurnNotFound),
		errors.Is(err, account.ErrUserNotFound),
		errors.Is(err, interaction.ErrParticipantNotFound):
		return http.StatusNotFound
	case errors.Is(err, account.ErrUserExists):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.As(err, &abilityErr),
		errors.Is(err, session.ErrGameNotActive),
		errors.Is(err, turn.ErrAlreadyFinished),
		errors.Is(err, turn.ErrNotParticipant),
		errors.Is(err, gameserver.ErrInvalidArgument):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err with its mapped status. Internal errors are logged and
// carry the original message in detail.
func writeError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.String("op", op), zap.Error(err))
		writeJSON(w, status, errorBody{Error: op + " failed", Detail: err.Error()})
		return
	}
	writeJSON(w, status, errorBody{Error: err.Error()})
}
