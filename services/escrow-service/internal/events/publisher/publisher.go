package publisher

import (
	"context"
	"encoding/json"
	"strconv"

	"go.uber.org/multierr"

	commonevents "github.com/burakmert236/goodswipe-escrow/common/events"
	"github.com/burakmert236/goodswipe-escrow/common/logger"
	"github.com/burakmert236/goodswipe-escrow/common/natsjetstream"
)

const (
	EventStandard = "escrow"
	EventVersion  = "1.0.0"
	LogPrefix     = "EVENT_JSON:"

	KindTournamentCreate       = "tournament_create"
	KindTournamentEntrance     = "tournament_entrance"
	KindTournamentPrizesReward = "tournament_prizes_reward"
)

// Event is the envelope every sink receives. Data always holds a list of
// records of the same kind.
type Event struct {
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

type TournamentCreateLog struct {
	TournamentId  string `json:"tournament_id"`
	PlayersNumber uint8  `json:"players_number"`
	InPrice       string `json:"in_price"`
}

type TournamentEntranceLog struct {
	Account      string `json:"account"`
	TournamentId string `json:"tournament_id"`
}

type TournamentPrizesRewardLog struct {
	TournamentId   string `json:"tournament_id"`
	RewardedAmount uint64 `json:"rewarded_amount"`
}

type Sink interface {
	Emit(ctx context.Context, kind string, payload []byte) error
}

type SinkFunc func(ctx context.Context, kind string, payload []byte) error

func (f SinkFunc) Emit(ctx context.Context, kind string, payload []byte) error {
	return f(ctx, kind, payload)
}

// LogSink writes each event as a single EVENT_JSON log line.
type LogSink struct {
	logger *logger.Logger
}

func NewLogSink(logger *logger.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Emit(ctx context.Context, kind string, payload []byte) error {
	s.logger.Info(LogPrefix + string(payload))
	return nil
}

var subjects = map[string]string{
	KindTournamentCreate:       commonevents.TournamentCreated,
	KindTournamentEntrance:     commonevents.TournamentEntered,
	KindTournamentPrizesReward: commonevents.TournamentRewarded,
}

type JetStreamSink struct {
	publisher *natsjetstream.Publisher
}

func NewJetStreamSink(client *natsjetstream.Client) *JetStreamSink {
	return &JetStreamSink{publisher: natsjetstream.NewPublisher(client)}
}

func (s *JetStreamSink) Emit(ctx context.Context, kind string, payload []byte) error {
	subject, ok := subjects[kind]
	if !ok {
		return nil
	}
	if err := s.publisher.Publish(ctx, subject, "", payload); err != nil {
		return err
	}
	return nil
}

type EventPublisher struct {
	sinks  []Sink
	logger *logger.Logger
}

func NewEventPublisher(logger *logger.Logger, sinks ...Sink) *EventPublisher {
	return &EventPublisher{
		sinks:  sinks,
		logger: logger,
	}
}

func (p *EventPublisher) PublishTournamentCreated(ctx context.Context, tournamentId string, playersNumber uint8, inPrice uint64) error {
	return p.publish(ctx, KindTournamentCreate, []TournamentCreateLog{{
		TournamentId:  tournamentId,
		PlayersNumber: playersNumber,
		InPrice:       strconv.FormatUint(inPrice, 10),
	}})
}

func (p *EventPublisher) PublishTournamentEntered(ctx context.Context, accountId, tournamentId string) error {
	return p.publish(ctx, KindTournamentEntrance, []TournamentEntranceLog{{
		Account:      accountId,
		TournamentId: tournamentId,
	}})
}

func (p *EventPublisher) PublishPrizesRewarded(ctx context.Context, tournamentId string, rewardedAmount uint64) error {
	return p.publish(ctx, KindTournamentPrizesReward, []TournamentPrizesRewardLog{{
		TournamentId:   tournamentId,
		RewardedAmount: rewardedAmount,
	}})
}

// publish hands the event to every sink. A failing sink does not stop the
// others; failures are logged and returned combined.
func (p *EventPublisher) publish(ctx context.Context, kind string, data any) error {
	payload, err := json.Marshal(Event{
		Standard: EventStandard,
		Version:  EventVersion,
		Event:    kind,
		Data:     data,
	})
	if err != nil {
		p.logger.Error("Failed to marshal event", "event", kind, "error", err)
		return err
	}

	var errs error
	for _, sink := range p.sinks {
		if err := sink.Emit(ctx, kind, payload); err != nil {
			p.logger.Warn("Failed to publish event", "event", kind, "error", err)
			errs = multierr.Append(errs, err)
		}
	}

	return errs
}
