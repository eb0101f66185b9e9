package conversation

import (
	"time"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
	"github.com/manishsharma864/ai-horroscope/internal/model/chat"
)

// Greeting seeds every fresh transcript.
const Greeting = "Welcome! Please enter your name to begin."

// Step is the current position in the birth-detail wizard.
type Step string

const (
	StepName         Step = "name"
	StepDOB          Step = "dob"
	StepTOB          Step = "tob"
	StepPlace        Step = "place"
	StepChoice       Step = "choice"
	StepPartnerName  Step = "partner_name"
	StepPartnerDOB   Step = "partner_dob"
	StepPartnerTOB   Step = "partner_tob"
	StepPartnerPlace Step = "partner_place"
	StepDone         Step = "done"
)

// Steps lists every step in wizard order.
var Steps = []Step{
	StepName, StepDOB, StepTOB, StepPlace, StepChoice,
	StepPartnerName, StepPartnerDOB, StepPartnerTOB, StepPartnerPlace,
	StepDone,
}

// Valid reports whether s is a known step.
func (s Step) Valid() bool {
	for _, step := range Steps {
		if step == s {
			return true
		}
	}
	return false
}

// State is the value a conversation carries between messages. The engine
// only fills Subject and Partner fields once the owning step has completed.
type State struct {
	Step     Step           `json:"step"`
	Subject  birth.Details  `json:"subject"`
	Partner  birth.Details  `json:"partner"`
	Messages []chat.Message `json:"messages"`
}

// NewState returns a fresh conversation: step name, no collected details and
// a transcript holding only the greeting.
func NewState() State {
	return newStateAt(time.Now().UTC())
}

func newStateAt(now time.Time) State {
	return State{
		Step: StepName,
		Messages: []chat.Message{
			{Role: chat.RoleBot, Content: Greeting, CreatedAt: now},
		},
	}
}

// Exchanges returns the transcript entries produced by user messages, i.e.
// everything after the seed greeting.
func (s State) Exchanges() []chat.Message {
	if len(s.Messages) == 0 {
		return nil
	}
	start := 0
	if s.Messages[0].Role == chat.RoleBot && s.Messages[0].Content == Greeting {
		start = 1
	}
	return s.Messages[start:]
}

func (s State) clone() State {
	cloned := s
	cloned.Messages = make([]chat.Message, len(s.Messages), len(s.Messages)+2)
	copy(cloned.Messages, s.Messages)
	return cloned
}
