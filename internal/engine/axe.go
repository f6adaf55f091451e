package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
	"github.com/raysh454/a11yscan/internal/webclient"
)

// DefaultScriptURL is the axe-core build loaded when no local copy is set.
const DefaultScriptURL = "https://cdnjs.cloudflare.com/ajax/libs/axe-core/4.8.2/axe.min.js"

// Config locates the axe-core source. ScriptPath wins over ScriptURL.
type Config struct {
	ScriptPath string `yaml:"script_path"`
	ScriptURL  string `yaml:"script_url"`
}

func DefaultConfig() Config {
	return Config{ScriptURL: DefaultScriptURL}
}

// Axe injects axe-core into the page and runs it.
type Axe struct {
	cfg    Config
	wc     webclient.WebClient
	logger logging.Logger

	mu     sync.Mutex
	source string
}

var _ Engine = (*Axe)(nil)

// NewAxe returns an engine that loads its script lazily. wc is only used when
// the script comes from ScriptURL.
func NewAxe(cfg Config, wc webclient.WebClient, logger logging.Logger) (*Axe, error) {
	if logger == nil {
		return nil, errors.New("engine: nil logger provided")
	}
	if cfg.ScriptPath == "" && cfg.ScriptURL == "" {
		cfg.ScriptURL = DefaultScriptURL
	}
	if cfg.ScriptPath == "" && wc == nil {
		return nil, errors.New("engine: a web client is required to fetch the axe script")
	}
	return &Axe{
		cfg:    cfg,
		wc:     wc,
		logger: logger.With(logging.Field{Key: "component", Value: "axe"}),
	}, nil
}

// NewAxeFromSource returns an engine using the given script.
func NewAxeFromSource(source string, logger logging.Logger) *Axe {
	return &Axe{
		source: source,
		logger: logger.With(logging.Field{Key: "component", Value: "axe"}),
	}
}

// script returns the axe source, loading it on first use. A failed load is
// retried on the next call.
func (a *Axe) script(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.source != "" {
		return a.source, nil
	}

	if a.cfg.ScriptPath != "" {
		b, err := os.ReadFile(a.cfg.ScriptPath)
		if err != nil {
			return "", fmt.Errorf("read axe script %s: %w", a.cfg.ScriptPath, err)
		}
		a.source = string(b)
	} else {
		resp, err := a.wc.Get(ctx, a.cfg.ScriptURL)
		if err != nil {
			return "", fmt.Errorf("fetch axe script: %w", err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return "", fmt.Errorf("fetch axe script %s: status %d", a.cfg.ScriptURL, resp.StatusCode)
		}
		a.source = string(resp.Body)
	}
	if a.source == "" {
		return "", errors.New("axe script is empty")
	}
	a.logger.Info("loaded axe-core", logging.Field{Key: "bytes", Value: len(a.source)})
	return a.source, nil
}

type runOnly struct {
	Type   string   `json:"type"`
	Values []string `json:"values"`
}

type runOptions struct {
	RunOnly *runOnly `json:"runOnly,omitempty"`
}

// runExpr builds the script that runs axe and returns its results as JSON,
// which keeps DOM references out of the reply.
func runExpr(tags []string) (string, error) {
	opts := runOptions{}
	if len(tags) > 0 {
		opts.RunOnly = &runOnly{Type: "tag", Values: tags}
	}
	b, err := json.Marshal(opts)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("axe.run(document, %s).then(r => JSON.stringify(r))", b), nil
}

const presentExpr = "typeof window.axe !== 'undefined' && typeof window.axe.run === 'function'"

func (a *Axe) Analyze(ctx context.Context, page webclient.Page, tags []string) (*model.EngineResult, error) {
	var present bool
	if err := page.Evaluate(ctx, presentExpr, &present); err != nil {
		return nil, fmt.Errorf("probe axe: %w", err)
	}
	if !present {
		src, err := a.script(ctx)
		if err != nil {
			return nil, err
		}
		var ok bool
		if err := page.Evaluate(ctx, src+"\n;true", &ok); err != nil {
			return nil, fmt.Errorf("inject axe: %w", err)
		}
	}

	expr, err := runExpr(tags)
	if err != nil {
		return nil, fmt.Errorf("encode axe options: %w", err)
	}
	var raw string
	if err := page.Evaluate(ctx, expr, &raw); err != nil {
		return nil, fmt.Errorf("run axe: %w", err)
	}

	var res model.EngineResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("decode axe results: %w", err)
	}
	a.logger.Debug("axe finished",
		logging.Field{Key: "url", Value: res.URL},
		logging.Field{Key: "violations", Value: len(res.Violations)},
		logging.Field{Key: "passes", Value: len(res.Passes)})
	return &res, nil
}
