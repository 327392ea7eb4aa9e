package cli

import (
	"github.com/AlecAivazis/survey/v2"
)

// Prompter asks for answers missing from the command line.
type Prompter interface {
	Input(message, def string) (string, error)
	Select(message string, options []string, def string) (string, error)
}

// SurveyPrompter prompts on the terminal.
type SurveyPrompter struct{}

func (SurveyPrompter) Input(message, def string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Input{Message: message, Default: def}, &answer)
	return answer, err
}

func (SurveyPrompter) Select(message string, options []string, def string) (string, error) {
	var answer string
	err := survey.AskOne(&survey.Select{Message: message, Options: options, Default: def}, &answer)
	return answer, err
}
