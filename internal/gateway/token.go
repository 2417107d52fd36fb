package gateway

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/koscakluka/ema-relay/core/conversations"
)

const tokenIdentity = "user"

// TokenIssuer signs join credentials for a media room.
type TokenIssuer interface {
	Issue(room, identity string) (string, error)
}

// RoomRegistry creates an empty history for a room that is about to be
// joined.
type RoomRegistry interface {
	Register(room string) *conversations.History
}

type tokenResponse struct {
	RoomName string `json:"roomName"`
	Token    string `json:"token"`
	Identity string `json:"identity"`
}

func tokenHandler(issuer TokenIssuer, rooms RoomRegistry, now func() time.Time, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		room := fmt.Sprintf("ai-room-%d", now().UnixMilli())

		if issuer == nil {
			log.Error("token requested but no issuer is configured")
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get token"})
			return
		}

		token, err := issuer.Issue(room, tokenIdentity)
		if err != nil {
			log.Error("failed to issue token", "room", room, "error", err)
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Failed to get token"})
			return
		}
		rooms.Register(room)

		writeJSON(w, http.StatusOK, tokenResponse{RoomName: room, Token: token, Identity: tokenIdentity})
	}
}
