package models

import (
	"fmt"
	"strconv"
)

type Tournament struct {
	OwnerId string `json:"owner_id"`
	Active  bool   `json:"active"`
	Balance uint64 `json:"balance"`
}

// TournamentMetadata is written once at creation and never changes.
type TournamentMetadata struct {
	Name          string  `json:"name"`
	Icon          *string `json:"icon,omitempty"`
	PlayersNumber uint8   `json:"players_number"`
	InPrice       uint64  `json:"in_price"`
}

// TournamentView joins the registry record, its metadata and the first
// three prize ranks. A nil prize means the rank is not configured.
type TournamentView struct {
	TournamentId     string             `json:"tournament_id"`
	OwnerId          string             `json:"owner_id"`
	Metadata         TournamentMetadata `json:"metadata"`
	FirstPlacePrize  *uint8             `json:"first_place_prize,omitempty"`
	SecondPlacePrize *uint8             `json:"second_place_prize,omitempty"`
	ThirdPlacePrize  *uint8             `json:"third_place_prize,omitempty"`
	Active           bool               `json:"active"`
	PrizeFund        uint64             `json:"prize_fund"`
}

type ContractMetadata struct {
	Name string  `json:"name"`
	Icon *string `json:"icon,omitempty"`
}

// Key handlers

func TournamentPK(tournamentId string) string {
	return fmt.Sprintf("TOURNAMENT#%s", tournamentId)
}

func MetadataPK(tournamentId string) string {
	return fmt.Sprintf("METADATA#%s", tournamentId)
}

func PlayerPK(tournamentId, accountId string) string {
	return fmt.Sprintf("PLAYER#%s#%s", tournamentId, accountId)
}

func PlayersLenPK(tournamentId string) string {
	return fmt.Sprintf("PLAYERS#%s#LEN", tournamentId)
}

func PrizePK(tournamentId string, rank uint8) string {
	return fmt.Sprintf("PRIZE#%s#%s", tournamentId, strconv.Itoa(int(rank)))
}

// TournamentsSeq is the insertion-ordered list of tournament ids.
func TournamentsSeq() string {
	return "TOURNAMENTS"
}
