package api

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/cory-johannsen/tabletop/internal/game/interaction"
)

// participantHandler serves CRUD for one participant kind.
type participantHandler struct {
	store  ParticipantStore
	kind   interaction.Kind
	logger *zap.Logger
}

func (h participantHandler) op(verb string) string {
	return fmt.Sprintf("%s %s", verb, h.kind)
}

func (h participantHandler) decodeValid(w http.ResponseWriter, r *http.Request, op string) (*interaction.Participant, bool) {
	var p interaction.Participant
	if err := decode(w, r, &p); err != nil {
		writeError(w, h.logger, op, err)
		return nil, false
	}
	p.Kind = h.kind
	if err := p.Validate(); err != nil {
		writeError(w, h.logger, op, fmt.Errorf("%w: %v", errBadRequest, err))
		return nil, false
	}
	return &p, true
}

func (h participantHandler) create(w http.ResponseWriter, r *http.Request) {
	op := h.op("create")
	p, ok := h.decodeValid(w, r, op)
	if !ok {
		return
	}
	created, err := h.store.CreateParticipant(r.Context(), p)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h participantHandler) list(w http.ResponseWriter, r *http.Request) {
	all, err := h.store.ListParticipants(r.Context(), h.kind)
	if err != nil {
		writeError(w, h.logger, h.op("list"), err)
		return
	}
	writeJSON(w, http.StatusOK, all)
}

func (h participantHandler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.store.GetParticipant(r.Context(), h.kind, r.PathValue("id"))
	if err != nil {
		writeError(w, h.logger, h.op("get"), err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h participantHandler) update(w http.ResponseWriter, r *http.Request) {
	op := h.op("update")
	p, ok := h.decodeValid(w, r, op)
	if !ok {
		return
	}
	p.ID = r.PathValue("id")
	if err := h.store.SaveParticipant(r.Context(), p); err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	updated, err := h.store.GetParticipant(r.Context(), h.kind, p.ID)
	if err != nil {
		writeError(w, h.logger, op, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (h participantHandler) remove(w http.ResponseWriter, r *http.Request) {
	if err := h.store.DeleteParticipant(r.Context(), h.kind, r.PathValue("id")); err != nil {
		writeError(w, h.logger, h.op("delete"), err)
		return
	}
	writeJSON(w, http.StatusOK, messageBody{Message: fmt.Sprintf("%s deleted", h.kind)})
}
