package ui

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
)

// PromptYesNo prompts the user for a yes/no answer
func (u *UI) PromptYesNo(prompt string, defaultYes bool) (bool, error) {
	var result bool
	p := &survey.Confirm{
		Message: prompt,
		Default: defaultYes,
	}

	err := survey.AskOne(p, &result)
	return result, err
}

// PromptInput prompts the user for optional text input
func (u *UI) PromptInput(prompt, defaultValue string) (string, error) {
	var result string
	p := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}

	err := survey.AskOne(p, &result)
	return result, err
}

// PromptSelect prompts the user to select from a list and returns the index
func (u *UI) PromptSelect(prompt string, options []string) (int, error) {
	var selected string
	p := &survey.Select{
		Message: prompt,
		Options: options,
	}

	if err := survey.AskOne(p, &selected); err != nil {
		return -1, err
	}

	for i, opt := range options {
		if opt == selected {
			return i, nil
		}
	}

	return -1, fmt.Errorf("selected option not found")
}

// PromptInputWithValidation prompts for required input checked by validate.
func (u *UI) PromptInputWithValidation(prompt, defaultValue string, validate func(string) error) (string, error) {
	var result string
	p := &survey.Input{
		Message: prompt,
		Default: defaultValue,
	}

	validator := func(ans interface{}) error {
		s, ok := ans.(string)
		if !ok {
			return fmt.Errorf("expected text input")
		}
		return validate(s)
	}

	err := survey.AskOne(p, &result, survey.WithValidator(survey.Required), survey.WithValidator(validator))
	return result, err
}
