package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isdelr/splinter-be/internal/api/handlers"
	"github.com/isdelr/splinter-be/internal/riot"
)

type fakeGateway struct {
	err        error
	gotName    string
	gotGame    string
	gotTag     string
	gotCount   int
	gotMatchID string
}

func (f *fakeGateway) GetSummonerByName(_ context.Context, name string) (*riot.SummonerProfile, error) {
	f.gotName = name
	if f.err != nil {
		return nil, f.err
	}
	return &riot.SummonerProfile{PUUID: "puuid-1", Name: name}, nil
}

func (f *fakeGateway) GetAccountByRiotID(_ context.Context, gameName, tagLine string) (*riot.GameAccountRef, error) {
	f.gotGame, f.gotTag = gameName, tagLine
	if f.err != nil {
		return nil, f.err
	}
	return &riot.GameAccountRef{PUUID: "puuid-1", GameName: gameName, TagLine: tagLine}, nil
}

func (f *fakeGateway) ListMatchIDs(_ context.Context, _ string, count int) ([]string, error) {
	f.gotCount = count
	if f.err != nil {
		return nil, f.err
	}
	return []string{"NA1_1"}, nil
}

func (f *fakeGateway) GetMatch(_ context.Context, matchID string) (*riot.MatchSummary, error) {
	f.gotMatchID = matchID
	if f.err != nil {
		return nil, f.err
	}
	m := &riot.MatchSummary{}
	m.Metadata.MatchID = matchID
	return m, nil
}

func (f *fakeGateway) GetMatchHistory(_ context.Context, gameName, tagLine string, count int) (*riot.MatchHistory, error) {
	f.gotGame, f.gotTag, f.gotCount = gameName, tagLine, count
	if f.err != nil {
		return nil, f.err
	}
	return &riot.MatchHistory{Account: riot.GameAccountRef{PUUID: "puuid-1"}, MatchIDs: []string{"NA1_1"}}, nil
}

func riotRouter(gw riot.GatewayProvider, production bool) http.Handler {
	h := handlers.NewRiotHandler(gw, !production)
	r := chi.NewRouter()
	r.Get("/summoner/{name}", h.GetSummoner)
	r.Get("/account/{gameName}/{tagLine}", h.GetAccount)
	r.Get("/matches/ids/{puuid}", h.GetMatchIDs)
	r.Get("/matches/{matchId}", h.GetMatch)
	r.Get("/match-history/{gameName}/{tagLine}", h.GetMatchHistory)
	return r
}

func get(h http.Handler, target string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestRiotHandler_Success(t *testing.T) {
	gw := &fakeGateway{}
	h := riotRouter(gw, false)

	rec := get(h, "/summoner/Faker")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true,"data":{"id":"","accountId":"","puuid":"puuid-1","name":"Faker","profileIconId":0,"revisionDate":0,"summonerLevel":0}}`, rec.Body.String())

	rec = get(h, "/account/Hide%20on%20bush/KR1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Hide on bush", gw.gotGame)
	assert.Equal(t, "KR1", gw.gotTag)

	rec = get(h, "/matches/ids/puuid-1?count=20")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 20, gw.gotCount)

	rec = get(h, "/matches/NA1_1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "NA1_1", gw.gotMatchID)

	rec = get(h, "/match-history/Faker/KR1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, gw.gotCount, "absent count leaves the default to the gateway")
	assert.Contains(t, rec.Body.String(), `"matchIds":["NA1_1"]`)
}

func TestRiotHandler_EscapedSlash(t *testing.T) {
	gw := &fakeGateway{}
	rec := get(riotRouter(gw, false), "/summoner/a%2Fb")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a/b", gw.gotName)
}

func TestRiotHandler_BadInput(t *testing.T) {
	h := riotRouter(&fakeGateway{}, false)

	rec := get(h, "/summoner/%20")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Summoner name is required"}`, rec.Body.String())

	rec = get(h, "/matches/ids/p?count=ten")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRiotHandler_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		production bool
		status     int
		retryAfter string
		body       string
	}{
		{
			name:   "not found",
			err:    &riot.Error{Kind: riot.KindNotFound, Resource: "Summoner", Key: "Faker"},
			status: http.StatusNotFound,
			body:   `{"error":"Summoner 'Faker' not found"}`,
		},
		{
			name:   "unauthorized key",
			err:    &riot.Error{Kind: riot.KindUnauthorizedKey},
			status: http.StatusForbidden,
			body:   `{"error":"API key expired or unauthorized"}`,
		},
		{
			name:       "rate limited",
			err:        &riot.Error{Kind: riot.KindRateLimited, RetryAfter: 1500 * time.Millisecond},
			status:     http.StatusTooManyRequests,
			retryAfter: "2",
			body:       `{"error":"Rate limit exceeded. Please try again later"}`,
		},
		{
			name:   "upstream in development",
			err:    &riot.Error{Kind: riot.KindUpstream, Detail: "Service unavailable"},
			status: http.StatusInternalServerError,
			body:   `{"error":"Something went wrong on the server","message":"Riot API Error: Service unavailable"}`,
		},
		{
			name:       "upstream in production",
			err:        &riot.Error{Kind: riot.KindUpstream, Detail: "Service unavailable"},
			production: true,
			status:     http.StatusInternalServerError,
			body:       `{"error":"Something went wrong on the server"}`,
		},
		{
			name:       "untyped error",
			err:        errors.New("boom"),
			production: true,
			status:     http.StatusInternalServerError,
			body:       `{"error":"Something went wrong on the server"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(riotRouter(&fakeGateway{err: tt.err}, tt.production), "/summoner/Faker")
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, tt.retryAfter, rec.Header().Get("Retry-After"))
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}
