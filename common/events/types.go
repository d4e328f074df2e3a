package events

const (
	// Streams
	TournamentEventsStream = "TOURNAMENT_EVENTS"
	PayoutStream           = "PAYOUTS"

	// Events
	TournamentCreated  = "events.tournament.created"
	TournamentEntered  = "events.tournament.entered"
	TournamentRewarded = "events.tournament.rewarded"

	PayoutTransferRequested = "payouts.transfer.requested"

	// Event Wildcards
	TournamentEventsWildcard = "events.tournament.*"
	PayoutWildcard           = "payouts.>"
)
