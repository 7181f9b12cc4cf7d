// Package validation contains the policy rules a message must pass before the
// faucet disburses anything
package validation // import "github.com/joincivil/civil-social-faucet/pkg/validation"

import (
	"fmt"
	"strings"

	"github.com/joincivil/civil-social-faucet/pkg/model"
)

// ValidationError is returned when a message violates a rule
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// IsValidationError returns true if err is a ValidationError
func IsValidationError(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// NewKeywordsValidator returns a validator requiring every keyword to appear in
// the message text
func NewKeywordsValidator(keywords []string) *KeywordsValidator {
	return &KeywordsValidator{keywords: keywords}
}

// KeywordsValidator checks case sensitive containment of each keyword
type KeywordsValidator struct {
	keywords []string
}

// Validate fails on the first keyword missing from the text
func (k *KeywordsValidator) Validate(message *model.Message) error {
	for _, keyword := range k.keywords {
		if !strings.Contains(message.Text(), keyword) {
			return &ValidationError{
				Reason: fmt.Sprintf("%v not found in %v", keyword, message.Text()),
			}
		}
	}
	return nil
}

// RetweetValidator rejects messages flagged as retweets
type RetweetValidator struct{}

// Validate fails if the message is a retweet
func (r *RetweetValidator) Validate(message *model.Message) error {
	if message.IsRetweet() {
		return &ValidationError{Reason: "message is a retweet"}
	}
	return nil
}

// RunValidators runs validators in order and returns the first failure
func RunValidators(validators []model.Validator, message *model.Message) error {
	for _, validator := range validators {
		err := validator.Validate(message)
		if err != nil {
			return err
		}
	}
	return nil
}
