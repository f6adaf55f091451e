// Package automaton replays scripted browser steps, typically a login flow,
// before a scan starts.
package automaton

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/utils"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// DefaultWait is the budget of a step whose Wait is zero.
const DefaultWait = 10 * time.Second

// loginErrorExpr reads the text of a common login error banner, if any.
const loginErrorExpr = `(() => { const el = document.querySelector('.messages--error, [role="alert"].error'); return el ? el.innerText.trim() : ''; })()`

// StepError reports the step that stopped a run.
type StepError struct {
	Index int
	Step  model.Step
	Err   error
}

func (e *StepError) Error() string {
	if e.Step.Action == model.ActionNavigate {
		return fmt.Sprintf("step %d (%s %s): %v", e.Index, e.Step.Action, e.Step.Selector, e.Err)
	}
	return fmt.Sprintf("step %d (%s %s=%q): %v", e.Index, e.Step.Action, e.Step.Strategy, e.Step.Selector, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

// Is makes every StepError match model.ErrStepExecution.
func (e *StepError) Is(target error) bool { return target == model.ErrStepExecution }

type stepFunc func(ctx context.Context, r *runner, step model.Step, sel webclient.Selector, budget time.Duration) error

// actions is the dispatch table; model.Step.Validate admits exactly these keys.
var actions = map[model.Action]stepFunc{
	model.ActionClick:       clickStep,
	model.ActionInputText:   inputStep,
	model.ActionSelectValue: selectStep,
	model.ActionNavigate:    navigateStep,
}

type runner struct {
	page   webclient.Page
	logger logging.Logger
}

// Run executes the active steps in order and stops at the first failure,
// returned as a *StepError. On success it returns the page location after
// the last step.
func Run(ctx context.Context, page webclient.Page, steps []model.Step, logger logging.Logger) (string, error) {
	r := &runner{
		page:   page,
		logger: logger.With(logging.Field{Key: "component", Value: "automaton"}),
	}

	for i, step := range steps {
		if !step.Active {
			continue
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if err := r.runStep(ctx, step); err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", &StepError{Index: i, Step: step, Err: err}
		}
		r.logger.Debug("step executed",
			logging.Field{Key: "index", Value: i},
			logging.Field{Key: "action", Value: string(step.Action)})
	}

	loc, err := page.Location(ctx)
	if err != nil {
		return "", fmt.Errorf("read final location: %w", err)
	}
	return loc, nil
}

func (r *runner) runStep(ctx context.Context, step model.Step) error {
	if err := step.Validate(); err != nil {
		return err
	}
	fn, ok := actions[step.Action]
	if !ok {
		return fmt.Errorf("unsupported step action %q", step.Action)
	}

	budget := DefaultWait
	if step.Wait > 0 {
		budget = time.Duration(step.Wait) * time.Second
	}

	if step.URL != "" {
		loc, err := r.page.Location(ctx)
		if err != nil {
			return fmt.Errorf("read location: %w", err)
		}
		if !sameURL(loc, step.URL) {
			r.logger.Debug("navigating to step url", logging.Field{Key: "url", Value: step.URL})
			if err := r.page.Navigate(ctx, step.URL, budget); err != nil {
				return err
			}
		}
	}

	var sel webclient.Selector
	if step.Action != model.ActionNavigate {
		var err error
		if sel, err = Resolve(step.Strategy, step.Selector); err != nil {
			return err
		}
	}
	return fn(ctx, r, step, sel, budget)
}

func sameURL(a, b string) bool {
	ca, errA := utils.Canonicalize(a, utils.CanonicalizeOptions{})
	cb, errB := utils.Canonicalize(b, utils.CanonicalizeOptions{})
	if errA != nil || errB != nil {
		return a == b
	}
	return ca == cb
}

var cssIdent = regexp.MustCompile(`^-?[_a-zA-Z][_a-zA-Z0-9-]*$`)

func cssString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

// Resolve maps a strategy and value onto a page selector.
//
//	id    login      → #login
//	name  user       → [name="user"]
//	class btn submit → .btn.submit
//	tag, css         → used as is
//	xpath            → evaluated as XPath
func Resolve(strategy model.Strategy, value string) (webclient.Selector, error) {
	st, ok := model.ParseStrategy(string(strategy))
	if !ok {
		return webclient.Selector{}, fmt.Errorf("unsupported selector strategy %q", strategy)
	}
	value = strings.TrimSpace(value)
	switch st {
	case model.StrategyID:
		if cssIdent.MatchString(value) {
			return webclient.Selector{Query: "#" + value}, nil
		}
		return webclient.Selector{Query: "[id=" + cssString(value) + "]"}, nil
	case model.StrategyName:
		return webclient.Selector{Query: "[name=" + cssString(value) + "]"}, nil
	case model.StrategyClass:
		return webclient.Selector{Query: "." + strings.Join(strings.Fields(value), ".")}, nil
	case model.StrategyTag, model.StrategyCSS:
		return webclient.Selector{Query: value}, nil
	case model.StrategyXPath:
		return webclient.Selector{Query: value, XPath: true}, nil
	}
	return webclient.Selector{}, fmt.Errorf("unsupported selector strategy %q", strategy)
}

// clickStep submits the enclosing form when there is one, so plain HTML
// login forms work without their submit handlers; otherwise it clicks.
func clickStep(ctx context.Context, r *runner, step model.Step, sel webclient.Selector, budget time.Duration) error {
	if err := r.page.WaitReady(ctx, sel, budget); err != nil {
		return err
	}
	inForm, err := r.page.InForm(ctx, sel)
	if err != nil {
		return fmt.Errorf("inspect element %s: %w", step.Selector, err)
	}

	wait := r.page.ExpectNavigation(ctx)
	if inForm {
		err = r.page.SubmitForm(ctx, sel)
	} else {
		err = r.page.Click(ctx, sel)
	}
	if err != nil {
		return err
	}

	if err := wait(budget); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		r.logger.Warn("no navigation detected after click",
			logging.Field{Key: "selector", Value: step.Selector},
			logging.Field{Key: "error", Value: err.Error()})
	}

	var banner string
	if err := r.page.Evaluate(ctx, loginErrorExpr, &banner); err == nil && banner != "" {
		r.logger.Warn("page shows an error message after click",
			logging.Field{Key: "selector", Value: step.Selector},
			logging.Field{Key: "message", Value: banner})
	}
	return nil
}

func inputStep(ctx context.Context, r *runner, step model.Step, sel webclient.Selector, budget time.Duration) error {
	if err := r.page.WaitReady(ctx, sel, budget); err != nil {
		return err
	}
	return r.page.Type(ctx, sel, step.Input)
}

// selectStep uses native option selection, except for XPath targets where
// only the value property can be assigned.
func selectStep(ctx context.Context, r *runner, step model.Step, sel webclient.Selector, budget time.Duration) error {
	if err := r.page.WaitReady(ctx, sel, budget); err != nil {
		return err
	}
	if sel.XPath {
		return r.page.SetValue(ctx, sel, step.Input)
	}
	return r.page.SelectOption(ctx, sel, step.Input)
}

func navigateStep(ctx context.Context, r *runner, step model.Step, _ webclient.Selector, budget time.Duration) error {
	err := r.page.Navigate(ctx, strings.TrimSpace(step.Selector), budget)
	if err != nil && !errors.Is(err, model.ErrNavigation) {
		return fmt.Errorf("%w: %v", model.ErrNavigation, err)
	}
	return err
}
