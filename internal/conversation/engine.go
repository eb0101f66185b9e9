package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
	"github.com/manishsharma864/ai-horroscope/internal/model/chat"
)

var (
	ErrEmptyInput           = errors.New("message is empty")
	ErrUnknownStep          = errors.New("unknown conversation step")
	ErrGeneratorUnavailable = errors.New("text generator unavailable")
)

// Geocoder resolves a place name to coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, place string) (birth.Coordinates, error)
}

// TextGenerator turns a prompt into a reply.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ServiceError reports a failed text generation. The state returned with it
// keeps the step and collected details of the input and only gains the user
// entry.
type ServiceError struct {
	Step Step
	Err  error
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("text generation failed at step %s: %v", e.Step, e.Err)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

type stepFunc func(ctx context.Context, s *State, input string) (string, error)

// Engine runs the wizard transitions.
type Engine struct {
	geocoder  Geocoder
	generator TextGenerator
	now       func() time.Time
	steps     map[Step]stepFunc
}

// NewEngine wires the engine to its collaborators. A nil geocoder resolves
// every place to (0, 0); a nil generator fails generating steps with a
// ServiceError.
func NewEngine(geocoder Geocoder, generator TextGenerator) *Engine {
	e := &Engine{
		geocoder:  geocoder,
		generator: generator,
		now:       func() time.Time { return time.Now().UTC() },
	}

	e.steps = map[Step]stepFunc{
		StepName:         e.handleName,
		StepDOB:          e.handleDOB,
		StepTOB:          e.handleTOB,
		StepPlace:        e.handlePlace,
		StepChoice:       e.handleChoice,
		StepPartnerName:  e.handlePartnerName,
		StepPartnerDOB:   e.handlePartnerDOB,
		StepPartnerTOB:   e.handlePartnerTOB,
		StepPartnerPlace: e.handlePartnerPlace,
		StepDone:         e.handleDone,
	}
	return e
}

// Handle applies one user message to state and returns the next state. The
// returned state has the raw input and the reply appended to its transcript.
// On a ServiceError only the raw input is appended; on any other error the
// input state is returned unchanged.
func (e *Engine) Handle(ctx context.Context, state State, input string) (State, error) {
	if strings.TrimSpace(input) == "" {
		return state, ErrEmptyInput
	}

	if !state.Step.Valid() {
		return state, fmt.Errorf("%w: %q", ErrUnknownStep, state.Step)
	}
	step := e.steps[state.Step]

	userMessage := chat.Message{Role: chat.RoleUser, Content: input, CreatedAt: e.now()}
	next := state.clone()
	next.Messages = append(next.Messages, userMessage)

	reply, err := step(ctx, &next, input)
	if err != nil {
		var serviceErr *ServiceError
		if errors.As(err, &serviceErr) {
			failed := state.clone()
			failed.Messages = append(failed.Messages, userMessage)
			return failed, err
		}
		return state, err
	}

	next.Messages = append(next.Messages, chat.Message{Role: chat.RoleBot, Content: reply, CreatedAt: e.now()})

	log.Debug().
		Str("component", "conversation").
		Str("from", string(state.Step)).
		Str("to", string(next.Step)).
		Int("messages", len(next.Messages)).
		Msg("step handled")
	return next, nil
}

func (e *Engine) handleName(_ context.Context, s *State, input string) (string, error) {
	s.Subject = birth.Details{Name: input}
	s.Partner = birth.Details{}
	s.Step = StepDOB
	return greetReply(input), nil
}

func (e *Engine) handleDOB(_ context.Context, s *State, input string) (string, error) {
	date, err := birth.ParseDate(input)
	if err != nil {
		return ReplyInvalidDate, nil
	}
	s.Subject.Date = date
	s.Step = StepTOB
	return replyAskTime, nil
}

func (e *Engine) handleTOB(_ context.Context, s *State, input string) (string, error) {
	clock, err := birth.ParseTime(input)
	if err != nil {
		return ReplyInvalidTime, nil
	}
	s.Subject.Time = clock
	s.Step = StepPlace
	return replyAskPlace, nil
}

func (e *Engine) handlePlace(ctx context.Context, s *State, input string) (string, error) {
	s.Subject.Place = input
	s.Subject.Coordinates = e.locate(ctx, input)
	s.Step = StepChoice
	return detailsReply(s.Subject), nil
}

func (e *Engine) handleChoice(ctx context.Context, s *State, input string) (string, error) {
	switch ParseReading(input) {
	case ReadingPersonal:
		reply, err := e.generate(ctx, StepChoice, PersonalPrompt(s.Subject))
		if err != nil {
			return "", err
		}
		s.Step = StepDone
		return reply, nil
	case ReadingCompatibility:
		s.Step = StepPartnerName
		return replyAskPartnerName, nil
	default:
		return replyChooseReading, nil
	}
}

func (e *Engine) handlePartnerName(_ context.Context, s *State, input string) (string, error) {
	s.Partner = birth.Details{Name: input}
	s.Step = StepPartnerDOB
	return partnerNameReply(input), nil
}

func (e *Engine) handlePartnerDOB(_ context.Context, s *State, input string) (string, error) {
	date, err := birth.ParseDate(input)
	if err != nil {
		return ReplyInvalidDate, nil
	}
	s.Partner.Date = date
	s.Step = StepPartnerTOB
	return replyAskPartnerTime, nil
}

func (e *Engine) handlePartnerTOB(_ context.Context, s *State, input string) (string, error) {
	clock, err := birth.ParseTime(input)
	if err != nil {
		return ReplyInvalidTime, nil
	}
	s.Partner.Time = clock
	s.Step = StepPartnerPlace
	return replyAskPartnerPlace, nil
}

func (e *Engine) handlePartnerPlace(ctx context.Context, s *State, input string) (string, error) {
	s.Partner.Place = input
	s.Partner.Coordinates = e.locate(ctx, input)

	reply, err := e.generate(ctx, StepPartnerPlace, CompatibilityPrompt(s.Subject, s.Partner))
	if err != nil {
		return "", err
	}
	s.Step = StepDone
	return reply, nil
}

func (e *Engine) handleDone(ctx context.Context, s *State, input string) (string, error) {
	return e.generate(ctx, StepDone, FollowUpPrompt(s.Subject, input))
}

// locate never fails: misses and lookup errors both resolve to (0, 0).
func (e *Engine) locate(ctx context.Context, place string) birth.Coordinates {
	if e.geocoder == nil {
		return birth.Coordinates{}
	}

	coords, err := e.geocoder.Geocode(ctx, place)
	if err != nil {
		log.Warn().Err(err).Str("component", "conversation").Str("place", place).Msg("geocoding failed, using (0, 0)")
		return birth.Coordinates{}
	}
	return coords
}

func (e *Engine) generate(ctx context.Context, step Step, prompt string) (string, error) {
	if e.generator == nil {
		return "", &ServiceError{Step: step, Err: ErrGeneratorUnavailable}
	}

	reply, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return "", &ServiceError{Step: step, Err: err}
	}
	return strings.TrimSpace(reply), nil
}
