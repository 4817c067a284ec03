// survey_stdio.go - Contains utilities for handling survey I/O consistently
package cmd

import (
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// SurveyIO represents the standard input/output streams for surveys
type SurveyIO struct {
	In  terminal.FileReader
	Out terminal.FileWriter
	Err terminal.FileWriter
}

// SurveyStdio is the IO used by interactive prompts. Tests replace it.
var SurveyStdio = SurveyIO{
	In:  os.Stdin,
	Out: os.Stdout,
	Err: os.Stderr,
}

// AskOptions returns an array of survey options to use with AskOne
func (s SurveyIO) AskOptions(extra ...survey.AskOpt) []survey.AskOpt {
	return append([]survey.AskOpt{survey.WithStdio(s.In, s.Out, s.Err)}, extra...)
}

// Prompter asks the player to choose among labels and returns the chosen
// indexes.
type Prompter interface {
	Select(message string, options []string) (int, error)
	MultiSelect(message string, options []string, limit int) ([]int, error)
}

// surveyPrompter implements Prompter with survey.
type surveyPrompter struct {
	io SurveyIO
}

func (p surveyPrompter) Select(message string, options []string) (int, error) {
	var answer string
	prompt := &survey.Select{Message: message, Options: options}
	if err := survey.AskOne(prompt, &answer, p.io.AskOptions()...); err != nil {
		return -1, err
	}
	return indexOf(options, answer)
}

func (p surveyPrompter) MultiSelect(message string, options []string, limit int) ([]int, error) {
	var answers []string
	prompt := &survey.MultiSelect{Message: message, Options: options}
	validators := []survey.AskOpt{survey.WithValidator(survey.MinItems(1))}
	if limit > 0 {
		validators = append(validators, survey.WithValidator(survey.MaxItems(limit)))
	}
	if err := survey.AskOne(prompt, &answers, p.io.AskOptions(validators...)...); err != nil {
		return nil, err
	}
	out := make([]int, 0, len(answers))
	for _, a := range answers {
		i, err := indexOf(options, a)
		if err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, nil
}

func indexOf(options []string, answer string) (int, error) {
	for i, o := range options {
		if o == answer {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %q", ErrUnknownChoice, answer)
}
