package handlers

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/isdelr/splinter-be/internal/riot"
)

// RiotHandler proxies game data lookups to the Riot gateway.
type RiotHandler struct {
	gateway riot.GatewayProvider
	errorReporter
}

// NewRiotHandler creates a new RiotHandler. verbose adds error details to 500 responses.
func NewRiotHandler(gateway riot.GatewayProvider, verbose bool) *RiotHandler {
	return &RiotHandler{gateway: gateway, errorReporter: errorReporter{verbose: verbose}}
}

// GetSummoner handles GET /summoner/{name}.
func (h *RiotHandler) GetSummoner(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "name")
	if strings.TrimSpace(name) == "" {
		writeError(w, http.StatusBadRequest, "Summoner name is required")
		return
	}
	data, err := h.gateway.GetSummonerByName(r.Context(), name)
	h.respond(w, r, data, err)
}

// GetAccount handles GET /account/{gameName}/{tagLine}.
func (h *RiotHandler) GetAccount(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine, ok := riotIDParams(w, r)
	if !ok {
		return
	}
	data, err := h.gateway.GetAccountByRiotID(r.Context(), gameName, tagLine)
	h.respond(w, r, data, err)
}

// GetMatchIDs handles GET /matches/ids/{puuid}?count=.
func (h *RiotHandler) GetMatchIDs(w http.ResponseWriter, r *http.Request) {
	puuid := pathParam(r, "puuid")
	if strings.TrimSpace(puuid) == "" {
		writeError(w, http.StatusBadRequest, "Player PUUID is required")
		return
	}
	count, ok := countParam(w, r)
	if !ok {
		return
	}
	data, err := h.gateway.ListMatchIDs(r.Context(), puuid, count)
	h.respond(w, r, data, err)
}

// GetMatch handles GET /matches/{matchId}.
func (h *RiotHandler) GetMatch(w http.ResponseWriter, r *http.Request) {
	matchID := pathParam(r, "matchId")
	if strings.TrimSpace(matchID) == "" {
		writeError(w, http.StatusBadRequest, "Match ID is required")
		return
	}
	data, err := h.gateway.GetMatch(r.Context(), matchID)
	h.respond(w, r, data, err)
}

// GetMatchHistory handles GET /match-history/{gameName}/{tagLine}?count=.
func (h *RiotHandler) GetMatchHistory(w http.ResponseWriter, r *http.Request) {
	gameName, tagLine, ok := riotIDParams(w, r)
	if !ok {
		return
	}
	count, ok := countParam(w, r)
	if !ok {
		return
	}
	data, err := h.gateway.GetMatchHistory(r.Context(), gameName, tagLine, count)
	h.respond(w, r, data, err)
}

func (h *RiotHandler) respond(w http.ResponseWriter, r *http.Request, data any, err error) {
	if err == nil {
		writeJSON(w, http.StatusOK, map[string]any{"success": true, "data": data})
		return
	}

	var gwErr *riot.Error
	if !errors.As(err, &gwErr) {
		h.serverError(w, r, err, "Riot lookup failed")
		return
	}

	switch gwErr.Kind {
	case riot.KindNotFound:
		log.Info().Str("path", r.URL.Path).Msg(gwErr.Error())
		writeError(w, http.StatusNotFound, gwErr.Error())
	case riot.KindUnauthorizedKey:
		log.Error().Err(gwErr).Msg("Riot API key rejected")
		writeError(w, http.StatusForbidden, gwErr.Error())
	case riot.KindRateLimited:
		log.Warn().Dur("retry_after", gwErr.RetryAfter).Msg("Riot API rate limit hit")
		if gwErr.RetryAfter > 0 {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(gwErr.RetryAfter.Seconds()))))
		}
		writeError(w, http.StatusTooManyRequests, gwErr.Error())
	default:
		h.serverError(w, r, gwErr, "Riot API request failed")
	}
}

func riotIDParams(w http.ResponseWriter, r *http.Request) (string, string, bool) {
	gameName, tagLine := pathParam(r, "gameName"), pathParam(r, "tagLine")
	if strings.TrimSpace(gameName) == "" || strings.TrimSpace(tagLine) == "" {
		writeError(w, http.StatusBadRequest, "Game name and tagline are required")
		return "", "", false
	}
	return gameName, tagLine, true
}

// countParam parses the optional count query; absent means 0 (gateway default).
func countParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("count")
	if raw == "" {
		return 0, true
	}
	count, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, http.StatusBadRequest, "count must be an integer")
		return 0, false
	}
	return count, true
}
