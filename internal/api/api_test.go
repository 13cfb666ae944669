package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/cory-johannsen/tabletop/internal/account"
	"github.com/cory-johannsen/tabletop/internal/auth"
	"github.com/cory-johannsen/tabletop/internal/chat"
	"github.com/cory-johannsen/tabletop/internal/game/dice"
	"github.com/cory-johannsen/tabletop/internal/game/interaction"
	"github.com/cory-johannsen/tabletop/internal/game/session"
	"github.com/cory-johannsen/tabletop/internal/game/turn"
	"github.com/cory-johannsen/tabletop/internal/gameserver"
	"github.com/cory-johannsen/tabletop/internal/storage/memory"
)

type harness struct {
	store   *memory.Store
	handler http.Handler
	gm      *account.User
	player  *account.User
}

func newHarness(t *testing.T, strategy func(gm *account.User) auth.Strategy) *harness {
	t.Helper()
	logger := zaptest.NewLogger(t)
	store := memory.New()

	gm, err := store.CreateUser(t.Context(), &account.User{DisplayName: "Master", Email: "gm@example.com"})
	require.NoError(t, err)
	player, err := store.CreateUser(t.Context(), &account.User{DisplayName: "Alice", Email: "alice@example.com"})
	require.NoError(t, err)

	turns := turn.NewService(store, store, logger)
	srv := New(Deps{
		Sessions:     gameserver.NewSessionHandler(store, store, turns, chat.Disabled{Logger: logger}, logger),
		Turns:        turns,
		Resolver:     interaction.NewResolver(dice.NewLoggedRoller(dice.NewSeededSource(7), logger), logger),
		Participants: store,
		Users:        store,
		Auth:         strategy(gm),
		Logger:       logger,
	})
	return &harness{store: store, handler: srv.Handler(), gm: gm, player: player}
}

func staticAs(u *account.User) auth.Strategy { return auth.Static{UserID: u.ID} }

func (h *harness) do(t *testing.T, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	var out map[string]any
	if rec.Body.Len() > 0 && rec.Body.Bytes()[0] == '{' {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func fighter(health int, value float64, effects ...string) map[string]any {
	fx := make([]map[string]string, 0, len(effects))
	for _, e := range effects {
		fx = append(fx, map[string]string{"name": e})
	}
	return map[string]any{
		"name":      "fighter",
		"health":    health,
		"abilities": []map[string]any{{"name": "strength", "value": value}},
		"effects":   fx,
	}
}

func TestInteraction_CatastropheInflictsFirstEffect(t *testing.T) {
	h := newHarness(t, staticAs)
	rec, body := h.do(t, http.MethodPost, "/api/interaction", map[string]any{
		"character":       fighter(30, 12),
		"enemy":           fighter(20, 8, "poisoned", "stunned"),
		"selectedStat":    "strength",
		"diceType":        20,
		"overrideOutcome": -7,
	})

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "catastrophe", body["result"])
	assert.Equal(t, "poisoned", body["inflictedEffect"])
	assert.EqualValues(t, 20, body["character"].(map[string]any)["health"])
	assert.EqualValues(t, 20, body["enemy"].(map[string]any)["health"])
	assert.Contains(t, body, "characterRoll")
	assert.Contains(t, body, "enemyRoll")
}

func TestInteraction_GreatSuccessDamagesEnemy(t *testing.T) {
	h := newHarness(t, staticAs)
	rec, body := h.do(t, http.MethodPost, "/api/interaction", map[string]any{
		"character":       fighter(30, 12),
		"enemy":           fighter(20, 8, "poisoned"),
		"selectedStat":    "strength",
		"diceType":        6,
		"overrideOutcome": 10,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "great success", body["result"])
	assert.Nil(t, body["inflictedEffect"])
	assert.EqualValues(t, 10, body["enemy"].(map[string]any)["health"])
	assert.EqualValues(t, 30, body["character"].(map[string]any)["health"])
}

func TestInteraction_BadRequests(t *testing.T) {
	h := newHarness(t, staticAs)

	rec, body := h.do(t, http.MethodPost, "/api/interaction", map[string]any{
		"character":    fighter(30, 12),
		"enemy":        fighter(20, 8),
		"selectedStat": "wisdom",
		"diceType":     20,
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "wisdom")
	assert.Contains(t, body["error"], "character")

	rec, _ = h.do(t, http.MethodPost, "/api/interaction", `{"character":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, body = h.do(t, http.MethodPost, "/api/interaction", map[string]any{"selectedStat": "strength"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "character and enemy are required")
}

func TestGameLifecycle_EndToEnd(t *testing.T) {
	h := newHarness(t, staticAs)

	rec, created := h.do(t, http.MethodPost, "/api/games/create", map[string]any{"gameName": "Crypt", "gameMaster": h.gm.ID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	gameID := created["gameId"].(string)
	assert.Equal(t, "Crypt", created["gameName"])
	assert.Equal(t, h.gm.ID, created["gameMaster"])
	assert.Contains(t, created, "discordChannelId")

	rec, joined := h.do(t, http.MethodPost, "/api/games/join", map[string]any{"gameId": gameID, "playerId": h.player.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, joined, "invitationLink")
	assert.Equal(t, []any{h.player.ID}, joined["game"].(map[string]any)["players"])

	rec, finished := h.do(t, http.MethodPost, "/api/games/finishTurn", map[string]any{"gameId": gameID, "playerId": h.player.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "turn finished", finished["message"])

	rec, body := h.do(t, http.MethodPost, "/api/games/finishTurn", map[string]any{"gameId": gameID, "playerId": h.player.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "already finished")

	// The turn endpoint shares the round counter with the session.
	rec, ended := h.do(t, http.MethodPost, "/api/turns/end", map[string]any{"gameId": gameID, "playerId": h.gm.ID})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "round complete", ended["message"])
	tr := ended["turn"].(map[string]any)
	assert.EqualValues(t, 2, tr["currentTurnIndex"])
	assert.Empty(t, tr["finishedPlayers"])

	rec, got := h.do(t, http.MethodGet, "/api/games/"+gameID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, got["turn"].(map[string]any)["currentTurnIndex"])

	rec, saved := h.do(t, http.MethodPost, "/api/games/saveGameStateAtTurnEnd", map[string]any{
		"gameId":    gameID,
		"gameState": map[string]any{"room": "vault"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, map[string]any{"room": "vault"}, saved["game"].(map[string]any)["gameState"])

	rec, _ = h.do(t, http.MethodPost, "/api/games/endGame", map[string]any{"gameId": gameID})
	require.Equal(t, http.StatusOK, rec.Code)
	rec, body = h.do(t, http.MethodPost, "/api/games/endGame", map[string]any{"gameId": gameID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "not active")
}

func TestGames_Errors(t *testing.T) {
	h := newHarness(t, staticAs)

	rec, _ := h.do(t, http.MethodPost, "/api/games/create", map[string]any{"gameName": "Crypt", "gameMaster": "ghost"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = h.do(t, http.MethodPost, "/api/games/join", map[string]any{"gameId": "missing", "playerId": h.player.ID})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body := h.do(t, http.MethodPost, "/api/games/join", map[string]any{"gameId": "missing"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "playerId")

	rec, _ = h.do(t, http.MethodGet, "/api/games/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGames_CreateDefaultsGameMasterToCaller(t *testing.T) {
	h := newHarness(t, staticAs)
	rec, created := h.do(t, http.MethodPost, "/api/games/create", map[string]any{"gameName": "Crypt"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, h.gm.ID, created["gameMaster"])
}

func TestTurns(t *testing.T) {
	h := newHarness(t, staticAs)
	g, err := h.store.CreateGame(t.Context(), session.NewGame("", "Crypt", h.gm.ID))
	require.NoError(t, err)

	rec, first := h.do(t, http.MethodPost, "/api/turns/initialize", map[string]any{"gameId": g.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "turn order initialized", first["message"])

	rec, again := h.do(t, http.MethodPost, "/api/turns/initialize", map[string]any{"gameId": g.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "turn order already initialized", again["message"])
	assert.EqualValues(t, 1, again["turn"].(map[string]any)["currentTurnIndex"])

	rec, next := h.do(t, http.MethodPost, "/api/turns/next/"+g.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 2, next["turn"].(map[string]any)["currentTurnIndex"])

	rec, body := h.do(t, http.MethodPost, "/api/turns/end", map[string]any{"gameId": g.ID, "playerId": h.player.ID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, body["error"], "not a participant")

	rec, _ = h.do(t, http.MethodPost, "/api/turns/initialize", map[string]any{"gameId": "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec, _ = h.do(t, http.MethodPost, "/api/turns/next/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGuardedRoutesRequireAuth(t *testing.T) {
	h := newHarness(t, func(*account.User) auth.Strategy {
		return auth.NewJWT([]byte("0123456789abcdef0123456789abcdef"), "tabletop", time.Hour, "tabletop_session")
	})
	for _, path := range []string{"/api/games/create", "/api/turns/initialize", "/api/games/join"} {
		rec, _ := h.do(t, http.MethodPost, path, map[string]any{})
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}
	rec, _ := h.do(t, http.MethodPost, "/api/interaction", map[string]any{"selectedStat": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "interaction is open")
}

func TestCharactersAndEnemiesCRUD(t *testing.T) {
	h := newHarness(t, staticAs)

	rec, char := h.do(t, http.MethodPost, "/api/characters", fighter(30, 12))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	charID := char["id"].(string)
	assert.Equal(t, "character", char["kind"])

	rec, _ = h.do(t, http.MethodGet, "/api/enemies/"+charID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "a character is not an enemy")

	update := fighter(25, 14)
	update["name"] = "Ayla"
	rec, updated := h.do(t, http.MethodPut, "/api/characters/"+charID, update)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Ayla", updated["name"])
	assert.EqualValues(t, 25, updated["health"])

	rec, _ = h.do(t, http.MethodPost, "/api/characters", map[string]any{"health": 3})
	assert.Equal(t, http.StatusBadRequest, rec.Code, "name is required")

	listRec := httptest.NewRecorder()
	h.handler.ServeHTTP(listRec, httptest.NewRequest(http.MethodGet, "/api/characters", nil))
	require.Equal(t, http.StatusOK, listRec.Code)
	var list []map[string]any
	require.NoError(t, json.Unmarshal(listRec.Body.Bytes(), &list))
	require.Len(t, list, 1)

	rec, _ = h.do(t, http.MethodDelete, "/api/characters/"+charID, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = h.do(t, http.MethodDelete, "/api/characters/"+charID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStoredInteractionPersistsHealth(t *testing.T) {
	h := newHarness(t, staticAs)
	_, char := h.do(t, http.MethodPost, "/api/characters", fighter(30, 12))
	_, enemy := h.do(t, http.MethodPost, "/api/enemies", fighter(20, 8, "poisoned"))

	rec, res := h.do(t, http.MethodPost, "/api/interaction/stored", map[string]any{
		"characterId":     char["id"],
		"enemyId":         enemy["id"],
		"selectedStat":    "strength",
		"diceType":        10,
		"overrideOutcome": 6,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "success", res["result"])

	stored, err := h.store.GetParticipant(t.Context(), interaction.KindEnemy, enemy["id"].(string))
	require.NoError(t, err)
	assert.Equal(t, 15, stored.Health)

	rec, _ = h.do(t, http.MethodPost, "/api/interaction/stored", map[string]any{
		"characterId": char["id"], "enemyId": "missing", "selectedStat": "strength",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAuthRoutes(t *testing.T) {
	h := newHarness(t, staticAs)

	rec, body := h.do(t, http.MethodPost, "/api/auth/register", map[string]any{"displayName": "Bob", "email": "bob@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	id := body["user"].(map[string]any)["_id"].(string)

	rec, _ = h.do(t, http.MethodPost, "/api/auth/register", map[string]any{"displayName": "Bob", "email": "bob@example.com"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	rec, _ = h.do(t, http.MethodPost, "/api/auth/register", map[string]any{"displayName": "Bob", "email": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = h.do(t, http.MethodDelete, "/api/auth/delete/"+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = h.do(t, http.MethodDelete, "/api/auth/delete/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, me := h.do(t, http.MethodGet, "/api/auth/success", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, h.gm.ID, me["user"].(map[string]any)["_id"])

	rec, _ = h.do(t, http.MethodGet, "/api/auth/failure", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec, _ = h.do(t, http.MethodGet, "/api/auth/google", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code, "google login disabled")
}

func TestStatusFor(t *testing.T) {
	for _, tc := range []struct {
		err  error
		want int
	}{
		{session.ErrGameNotFound, http.StatusNotFound},
		{turn.ErrTurnNotFound, http.StatusNotFound},
		{account.ErrUserNotFound, http.StatusNotFound},
		{interaction.ErrParticipantNotFound, http.StatusNotFound},
		{session.ErrGameNotActive, http.StatusBadRequest},
		{turn.ErrAlreadyFinished, http.StatusBadRequest},
		{turn.ErrNotParticipant, http.StatusBadRequest},
		{&interaction.AbilityNotFoundError{Role: interaction.KindEnemy, Ability: "wit"}, http.StatusBadRequest},
		{gameserver.ErrInvalidArgument, http.StatusBadRequest},
		{auth.ErrUnauthenticated, http.StatusUnauthorized},
		{account.ErrUserExists, http.StatusConflict},
		{interaction.ErrResolutionFailed, http.StatusInternalServerError},
		{errors.New("disk on fire"), http.StatusInternalServerError},
	} {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestWriteError_InternalCarriesDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	writeError(rec, zaptest.NewLogger(t), "create game", errors.New("discord: 503"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"create game failed","detail":"discord: 503"}`, rec.Body.String())
}
