package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Strategy names how a step locates its target element.
type Strategy string

const (
	StrategyID    Strategy = "id"
	StrategyName  Strategy = "name"
	StrategyClass Strategy = "class"
	StrategyTag   Strategy = "tag"
	StrategyCSS   Strategy = "css"
	StrategyXPath Strategy = "xpath"
)

var strategyAliases = map[string]Strategy{
	"id":          StrategyID,
	"name":        StrategyName,
	"class":       StrategyClass,
	"classname":   StrategyClass,
	"tag":         StrategyTag,
	"tagname":     StrategyTag,
	"css":         StrategyCSS,
	"cssselector": StrategyCSS,
	"xpath":       StrategyXPath,
}

// ParseStrategy accepts both the canonical names and the legacy spellings
// used by older clients ("Id", "ClassName", "CssSelector", "XPath", ...).
func ParseStrategy(s string) (Strategy, bool) {
	st, ok := strategyAliases[strings.ToLower(strings.TrimSpace(s))]
	return st, ok
}

func (s *Strategy) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if st, ok := ParseStrategy(raw); ok {
		*s = st
		return nil
	}
	// Unknown values are kept so ValidateSteps can report them.
	*s = Strategy(raw)
	return nil
}

// Action is the interaction a step performs.
type Action string

const (
	ActionClick       Action = "Click"
	ActionInputText   Action = "InputText"
	ActionSelectValue Action = "SelectValue"
	ActionNavigate    Action = "Navigate"
)

var actionAliases = map[string]Action{
	"click":       ActionClick,
	"inputtext":   ActionInputText,
	"input":       ActionInputText,
	"selectvalue": ActionSelectValue,
	"select":      ActionSelectValue,
	"navigate":    ActionNavigate,
}

func ParseAction(s string) (Action, bool) {
	a, ok := actionAliases[strings.ToLower(strings.TrimSpace(s))]
	return a, ok
}

func (a *Action) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if act, ok := ParseAction(raw); ok {
		*a = act
		return nil
	}
	*a = Action(raw)
	return nil
}

// Step is one scripted browser interaction run before scanning, typically
// part of a login sequence.
type Step struct {
	// URL the page must be on before the step runs. Empty means "wherever we are".
	URL string `json:"url,omitempty"`

	Strategy Strategy `json:"find_by"`
	Selector string   `json:"find_value"`

	// Input is the text to type or the option value to select.
	Input string `json:"input,omitempty"`

	Action Action `json:"action"`

	// Wait is the step's time budget in seconds.
	Wait int `json:"wait_time"`

	Active bool `json:"active"`
}

// Validate checks a single step. Navigate steps carry their destination in
// Selector and need no strategy.
func (s Step) Validate() error {
	switch s.Action {
	case ActionClick, ActionInputText, ActionSelectValue:
		if _, ok := ParseStrategy(string(s.Strategy)); !ok {
			return fmt.Errorf("unsupported selector strategy %q", s.Strategy)
		}
		if strings.TrimSpace(s.Selector) == "" {
			return fmt.Errorf("missing selector for %s step", s.Action)
		}
	case ActionNavigate:
		if strings.TrimSpace(s.Selector) == "" {
			return fmt.Errorf("missing destination for Navigate step")
		}
	default:
		return fmt.Errorf("unsupported step action %q", s.Action)
	}
	if s.Wait < 0 {
		return fmt.Errorf("negative wait time %d", s.Wait)
	}
	return nil
}

// ValidateSteps validates every step and reports the first failure wrapped
// in ErrValidation. Inactive steps are validated too, since they can be
// re-enabled by an edit without going through creation again.
func ValidateSteps(steps []Step) error {
	for i, s := range steps {
		if err := s.Validate(); err != nil {
			return fmt.Errorf("%w: step %d: %v", ErrValidation, i, err)
		}
	}
	return nil
}
