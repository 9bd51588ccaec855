// Package prompts builds the user prompts of the four self-discover stages.
package prompts

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidInput reports missing or blank prompt-building inputs.
var ErrInvalidInput = errors.New("invalid input")

const (
	emptyCatalogErrorMessage    = "reasoning module catalog is empty"
	blankTaskErrorMessage       = "task is blank"
	blankPriorErrorFormat       = "%s text is blank"
	blankModuleErrorFormat      = "reasoning module %d is blank"
	selectedModulesInputName    = "selected modules"
	adaptedModulesInputName     = "adapted modules"
	reasoningStructureInputName = "reasoning structure"
)

const selectTemplate = `Select several reasoning modules that are crucial to utilize in order to solve the given task:

All reasoning module descriptions:
%s

Task: %s

Select several modules that are crucial for solving the task above:`

const adaptTemplate = `Rephrase and specify each reasoning module so that it better helps solving the task:

SELECTED module descriptions:
%s

Task: %s

Adapt each reasoning module description to better solve the task:`

const structureTemplate = `Operationalize the reasoning modules into a step-by-step reasoning plan in JSON format:

Here's an example:

Example task:

If you follow these instructions, do you return to the starting point? Always face forward. Take 1 step backward. Take 9 steps left. Take 2 steps backward. Take 6 steps forward. Take 4 steps forward. Take 4 steps backward. Take 3 steps right.

Example reasoning structure:

{
    "Position after instruction 1":
    "Position after instruction 2":
    "Position after instruction n":
    "Is final position the same as starting position":
}

Adapted module description:
%s

Task: %s

Implement a reasoning structure for solvers to follow step-by-step and arrive at correct answer.

Note: do NOT actually arrive at a conclusion in this pass. Your job is to generate a PLAN so that in the future you can fill it out and arrive at the correct conclusion for tasks like this`

const executeTemplate = `Follow the step-by-step reasoning plan in JSON to correctly solve the task. Fill in the values following the keys by reasoning specifically about the task given. Do not simply rephrase the keys.

Reasoning Structure:
%s

Task: %s`

// BuildSelectPrompt lists every catalog entry, in order, followed by the task.
func BuildSelectPrompt(catalog []string, task string) (string, error) {
	if len(catalog) == 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidInput, emptyCatalogErrorMessage)
	}
	if err := requireTask(task); err != nil {
		return "", err
	}
	var listing strings.Builder
	for index, module := range catalog {
		if strings.TrimSpace(module) == "" {
			return "", fmt.Errorf("%w: "+blankModuleErrorFormat, ErrInvalidInput, index+1)
		}
		if index > 0 {
			listing.WriteString("\n")
		}
		listing.WriteString(fmt.Sprintf("%d. %s", index+1, module))
	}
	return fmt.Sprintf(selectTemplate, listing.String(), task), nil
}

// BuildAdaptPrompt embeds the full select-stage output.
func BuildAdaptPrompt(selectedModules string, task string) (string, error) {
	return buildFromPrior(adaptTemplate, selectedModulesInputName, selectedModules, task, false)
}

// BuildStructurePrompt embeds the full adapt-stage output.
func BuildStructurePrompt(adaptedModules string, task string) (string, error) {
	return buildFromPrior(structureTemplate, adaptedModulesInputName, adaptedModules, task, false)
}

// BuildExecutePrompt embeds the full structure-stage output.
func BuildExecutePrompt(reasoningStructure string, task string) (string, error) {
	return buildFromPrior(executeTemplate, reasoningStructureInputName, reasoningStructure, task, false)
}

func buildFromPrior(template string, inputName string, prior string, task string, allowBlankPrior bool) (string, error) {
	if err := requireTask(task); err != nil {
		return "", err
	}
	if !allowBlankPrior && strings.TrimSpace(prior) == "" {
		return "", fmt.Errorf("%w: "+blankPriorErrorFormat, ErrInvalidInput, inputName)
	}
	return fmt.Sprintf(template, prior, task), nil
}

func requireTask(task string) error {
	if strings.TrimSpace(task) == "" {
		return fmt.Errorf("%w: %s", ErrInvalidInput, blankTaskErrorMessage)
	}
	return nil
}

// Builder binds a catalog to the four stage builders. With AllowBlankPrior
// an empty stage output, e.g. a safety-filtered stream, is embedded as is
// instead of failing the next stage.
type Builder struct {
	Catalog         []string
	AllowBlankPrior bool
}

// NewBuilder copies the catalog, falling back to ReasoningModules when empty.
func NewBuilder(catalog []string) Builder {
	source := catalog
	if len(source) == 0 {
		source = ReasoningModules
	}
	copied := make([]string, len(source))
	copy(copied, source)
	return Builder{Catalog: copied}
}

func (b Builder) Select(task string) (string, error) {
	return BuildSelectPrompt(b.Catalog, task)
}

func (b Builder) Adapt(selectedModules string, task string) (string, error) {
	return buildFromPrior(adaptTemplate, selectedModulesInputName, selectedModules, task, b.AllowBlankPrior)
}

func (b Builder) Structure(adaptedModules string, task string) (string, error) {
	return buildFromPrior(structureTemplate, adaptedModulesInputName, adaptedModules, task, b.AllowBlankPrior)
}

func (b Builder) Execute(reasoningStructure string, task string) (string, error) {
	return buildFromPrior(executeTemplate, reasoningStructureInputName, reasoningStructure, task, b.AllowBlankPrior)
}
