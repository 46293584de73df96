package riot

import "errors"

// SummonerProfile is the Summoner-V4 summoner DTO.
type SummonerProfile struct {
	ID            string `json:"id"`
	AccountID     string `json:"accountId"`
	PUUID         string `json:"puuid"`
	Name          string `json:"name"`
	ProfileIconID int    `json:"profileIconId"`
	RevisionDate  int64  `json:"revisionDate"`
	SummonerLevel int64  `json:"summonerLevel"`
}

func (p *SummonerProfile) validate() error {
	if p.PUUID == "" {
		return errors.New("summoner has no puuid")
	}
	return nil
}

// GameAccountRef is the Account-V1 account DTO.
type GameAccountRef struct {
	PUUID    string `json:"puuid"`
	GameName string `json:"gameName"`
	TagLine  string `json:"tagLine"`
}

func (a *GameAccountRef) validate() error {
	if a.PUUID == "" {
		return errors.New("account has no puuid")
	}
	return nil
}

// MatchSummary is the subset of the Match-V5 match DTO the dashboard uses.
type MatchSummary struct {
	Metadata MatchMetadata `json:"metadata"`
	Info     MatchInfo     `json:"info"`
}

type MatchMetadata struct {
	DataVersion  string   `json:"dataVersion"`
	MatchID      string   `json:"matchId"`
	Participants []string `json:"participants"`
}

type MatchInfo struct {
	GameCreation int64              `json:"gameCreation"`
	GameDuration int64              `json:"gameDuration"`
	GameMode     string             `json:"gameMode"`
	GameType     string             `json:"gameType"`
	GameVersion  string             `json:"gameVersion"`
	MapID        int                `json:"mapId"`
	QueueID      int                `json:"queueId"`
	Participants []MatchParticipant `json:"participants"`
	Teams        []MatchTeam        `json:"teams"`
}

type MatchParticipant struct {
	PUUID                       string `json:"puuid"`
	RiotIDGameName              string `json:"riotIdGameName,omitempty"`
	RiotIDTagline               string `json:"riotIdTagline,omitempty"`
	SummonerName                string `json:"summonerName,omitempty"`
	ChampionID                  int    `json:"championId"`
	ChampionName                string `json:"championName"`
	ChampLevel                  int    `json:"champLevel"`
	TeamID                      int    `json:"teamId"`
	TeamPosition                string `json:"teamPosition,omitempty"`
	Kills                       int    `json:"kills"`
	Deaths                      int    `json:"deaths"`
	Assists                     int    `json:"assists"`
	TotalMinionsKilled          int    `json:"totalMinionsKilled"`
	GoldEarned                  int    `json:"goldEarned"`
	TotalDamageDealtToChampions int    `json:"totalDamageDealtToChampions"`
	Win                         bool   `json:"win"`
}

type MatchTeam struct {
	TeamID int  `json:"teamId"`
	Win    bool `json:"win"`
}

func (m *MatchSummary) validate() error {
	if m.Metadata.MatchID == "" {
		return errors.New("match has no metadata.matchId")
	}
	return nil
}

// MatchHistory pairs an account with its most recent match ids.
type MatchHistory struct {
	Account  GameAccountRef `json:"account"`
	MatchIDs []string       `json:"matchIds"`
}
