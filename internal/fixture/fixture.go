// Package fixture holds the mock data the in-memory stores are seeded with.
package fixture

import (
	_ "embed"
	"errors"
	"fmt"

	"github.com/exammaker/exammaker-backend/internal/model"
	"github.com/goccy/go-yaml"
)

//go:embed seed.yaml
var seedYAML []byte

// Seed is the full fixture catalogue.
type Seed struct {
	Exams     []model.Exam         `json:"exams" yaml:"exams"`
	Questions []model.BankQuestion `json:"questions" yaml:"questions"`
	Topics    []model.Topic        `json:"topics" yaml:"topics"`
	Resources []model.Resource     `json:"resources" yaml:"resources"`
}

// Load parses the embedded catalogue.
func Load() (*Seed, error) {
	return Parse(seedYAML)
}

// Parse decodes and validates a catalogue. Unknown keys are rejected.
func Parse(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.UnmarshalWithOptions(data, &seed, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	if err := seed.Validate(); err != nil {
		return nil, err
	}
	return &seed, nil
}

// Validate checks the invariants the stores rely on.
func (s *Seed) Validate() error {
	var errs []error

	examIDs := make(map[int]bool, len(s.Exams))
	for _, e := range s.Exams {
		if examIDs[e.ID] {
			errs = append(errs, fmt.Errorf("exam %d: duplicate id", e.ID))
		}
		examIDs[e.ID] = true

		if e.DurationMinutes <= 0 {
			errs = append(errs, fmt.Errorf("exam %d: duration must be positive", e.ID))
		}
		if len(e.Questions) == 0 {
			errs = append(errs, fmt.Errorf("exam %d: no questions", e.ID))
		}

		qIDs := make(map[int]bool, len(e.Questions))
		for _, q := range e.Questions {
			if qIDs[q.ID] {
				errs = append(errs, fmt.Errorf("exam %d question %d: duplicate id", e.ID, q.ID))
			}
			qIDs[q.ID] = true
			if err := validateKind(q.Kind, q.Options); err != nil {
				errs = append(errs, fmt.Errorf("exam %d question %d: %w", e.ID, q.ID, err))
			}
		}
	}

	bankIDs := make(map[int]bool, len(s.Questions))
	for _, q := range s.Questions {
		if bankIDs[q.ID] {
			errs = append(errs, fmt.Errorf("bank question %d: duplicate id", q.ID))
		}
		bankIDs[q.ID] = true
		if err := validateKind(q.Kind, q.Options); err != nil {
			errs = append(errs, fmt.Errorf("bank question %d: %w", q.ID, err))
		}
	}

	return errors.Join(errs...)
}

func validateKind(kind model.QuestionKind, options []string) error {
	switch kind {
	case model.QuestionKindMultipleChoice:
		if len(options) < 2 {
			return errors.New("multiple-choice question needs at least two options")
		}
	case model.QuestionKindFreeResponse:
		if len(options) > 0 {
			return errors.New("free-response question must not have options")
		}
	default:
		return fmt.Errorf("unknown question kind %q", kind)
	}
	return nil
}
