package conversation

import (
	"fmt"
	"strings"

	"github.com/manishsharma864/ai-horroscope/internal/model/birth"
)

// Fixed bot replies.
const (
	replyAskTime         = "Thank you! Now, what time were you born? (HH:MM, 24-hour format)"
	replyAskPlace        = "Great! Where were you born? (City, Country)"
	replyAskPartnerName  = "Please enter your partner's name."
	replyChooseReading   = "Please choose: 'personal insight' or 'compatibility'."
	replyAskPartnerTime  = "Now, what time was your partner born? (HH:MM)"
	replyAskPartnerPlace = "Finally, where was your partner born? (City, Country)"
)

// Re-prompts sent when a date or time does not parse.
const (
	ReplyInvalidDate = "Please enter a valid date (e.g., 09/12/1989)."
	ReplyInvalidTime = "Please enter a valid time (e.g., 23:00)."
)

var (
	personalChoices      = []string{"personal", "personal insight", "insight"}
	compatibilityChoices = []string{"partner", "compatibility", "match"}
)

// Reading is the branch picked at the choice step.
type Reading int

const (
	ReadingUnknown Reading = iota
	ReadingPersonal
	ReadingCompatibility
)

// ParseReading matches the choice-step input case-insensitively.
func ParseReading(input string) Reading {
	normalized := strings.ToLower(input)
	for _, choice := range personalChoices {
		if normalized == choice {
			return ReadingPersonal
		}
	}
	for _, choice := range compatibilityChoices {
		if normalized == choice {
			return ReadingCompatibility
		}
	}
	return ReadingUnknown
}

func greetReply(name string) string {
	return fmt.Sprintf("Nice to meet you, %s! Please provide your date of birth (DD/MM/YYYY).", name)
}

func partnerNameReply(name string) string {
	return fmt.Sprintf("Partner's name: %s. Please provide their date of birth (DD/MM/YYYY).", name)
}

func detailsReply(subject birth.Details) string {
	return fmt.Sprintf(
		"Got it! Your birth details: %s, %s, %s. Would you like a personal insight or to check compatibility with a partner?",
		subject.Date, subject.Time, subject.Place,
	)
}

// PersonalPrompt asks for a general reading of one subject.
func PersonalPrompt(subject birth.Details) string {
	return fmt.Sprintf(
		"Provide general Vedic astrology insights for %s, born on %s at %s in %s. Focus on personality, career, and relationships without specific predictions.",
		subject.Name, subject.Date, subject.Time, subject.Place,
	)
}

// CompatibilityPrompt asks for a bounded score out of 36 for two subjects.
func CompatibilityPrompt(subject, partner birth.Details) string {
	return fmt.Sprintf(
		"Provide a Vedic astrology compatibility overview (e.g., Guna Milan-inspired) for %s (born %s at %s in %s) and %s (born %s at %s in %s). Include a general compatibility score out of 36 and insights on relationship harmony, without precise chart calculations.",
		subject.Name, subject.Date, subject.Time, subject.Place,
		partner.Name, partner.Date, partner.Time, partner.Place,
	)
}

// FollowUpPrompt wraps free-form text with the subject's profile.
func FollowUpPrompt(subject birth.Details, question string) string {
	return fmt.Sprintf(
		"General Vedic astrology insights for %s born on %s at %s in %s: %s",
		subject.Name, subject.Date, subject.Time, subject.Place, question,
	)
}
