package riot

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"strconv"
)

const (
	defaultMatchCount   = 10
	maxMatchCount       = 100
	defaultHistoryCount = 5
)

// Requester is satisfied by *Client.
type Requester interface {
	Get(ctx context.Context, path string, query url.Values) (json.RawMessage, error)
}

// GatewayProvider defines the game-data operations exposed to handlers.
type GatewayProvider interface {
	GetSummonerByName(ctx context.Context, name string) (*SummonerProfile, error)
	GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*GameAccountRef, error)
	ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error)
	GetMatch(ctx context.Context, matchID string) (*MatchSummary, error)
	GetMatchHistory(ctx context.Context, gameName, tagLine string, count int) (*MatchHistory, error)
}

// Gateway routes summoner lookups to the platform host and account and
// match lookups to the continental host.
type Gateway struct {
	platform    Requester
	continental Requester
}

// NewGateway creates a new Gateway.
func NewGateway(platform, continental Requester) *Gateway {
	return &Gateway{platform: platform, continental: continental}
}

// shapeValidator is implemented by every response type.
type shapeValidator interface {
	validate() error
}

// fetch performs the call, normalizes failures and decodes into out.
func fetch[T any, PT interface {
	*T
	shapeValidator
}](ctx context.Context, r Requester, path string, query url.Values, resource, key string) (*T, error) {
	raw, err := r.Get(ctx, path, query)
	if err != nil {
		return nil, normalize(err, resource, key)
	}
	out := PT(new(T))
	if err := json.Unmarshal(raw, out); err != nil {
		return nil, shapeError(resource, err)
	}
	if err := out.validate(); err != nil {
		return nil, shapeError(resource, err)
	}
	return (*T)(out), nil
}

// GetSummonerByName looks up a summoner on the platform host.
func (g *Gateway) GetSummonerByName(ctx context.Context, name string) (*SummonerProfile, error) {
	return fetch[SummonerProfile](ctx, g.platform,
		"/lol/summoner/v4/summoners/by-name/"+url.PathEscape(name), nil,
		"Summoner", name)
}

// GetAccountByRiotID resolves gameName#tagLine to an account.
func (g *Gateway) GetAccountByRiotID(ctx context.Context, gameName, tagLine string) (*GameAccountRef, error) {
	return fetch[GameAccountRef](ctx, g.continental,
		"/riot/account/v1/accounts/by-riot-id/"+url.PathEscape(gameName)+"/"+url.PathEscape(tagLine), nil,
		"Riot ID", gameName+"#"+tagLine)
}

// matchIDList adapts the bare JSON array of match ids to fetch.
type matchIDList []string

func (l *matchIDList) validate() error {
	for _, id := range *l {
		if id == "" {
			return errors.New("empty match id")
		}
	}
	return nil
}

// ListMatchIDs returns up to count recent match ids, newest first.
// count <= 0 means 10; values above 100 are capped.
func (g *Gateway) ListMatchIDs(ctx context.Context, puuid string, count int) ([]string, error) {
	if count <= 0 {
		count = defaultMatchCount
	}
	count = min(count, maxMatchCount)

	ids, err := fetch[matchIDList](ctx, g.continental,
		"/lol/match/v5/matches/by-puuid/"+url.PathEscape(puuid)+"/ids",
		url.Values{"count": {strconv.Itoa(count)}},
		"Match list for PUUID", puuid)
	if err != nil {
		return nil, err
	}
	if *ids == nil {
		return []string{}, nil
	}
	return []string(*ids), nil
}

// GetMatch returns the details of one match.
func (g *Gateway) GetMatch(ctx context.Context, matchID string) (*MatchSummary, error) {
	return fetch[MatchSummary](ctx, g.continental,
		"/lol/match/v5/matches/"+url.PathEscape(matchID), nil,
		"Match", matchID)
}

// GetMatchHistory resolves the account and then lists its match ids,
// stopping at the first failure. count <= 0 means 5.
func (g *Gateway) GetMatchHistory(ctx context.Context, gameName, tagLine string, count int) (*MatchHistory, error) {
	if count <= 0 {
		count = defaultHistoryCount
	}
	account, err := g.GetAccountByRiotID(ctx, gameName, tagLine)
	if err != nil {
		return nil, err
	}
	ids, err := g.ListMatchIDs(ctx, account.PUUID, count)
	if err != nil {
		return nil, err
	}
	return &MatchHistory{Account: *account, MatchIDs: ids}, nil
}
