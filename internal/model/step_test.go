package model_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/raysh454/a11yscan/internal/model"
)

func TestParseStrategy_LegacySpellings(t *testing.T) {
	t.Parallel()
	cases := map[string]model.Strategy{
		"Id":          model.StrategyID,
		"Name":        model.StrategyName,
		"ClassName":   model.StrategyClass,
		"TagName":     model.StrategyTag,
		"CssSelector": model.StrategyCSS,
		"XPath":       model.StrategyXPath,
		"css":         model.StrategyCSS,
	}
	for in, want := range cases {
		got, ok := model.ParseStrategy(in)
		if !ok || got != want {
			t.Errorf("ParseStrategy(%q) = %q, %v; want %q", in, got, ok, want)
		}
	}
	if _, ok := model.ParseStrategy("shadow"); ok {
		t.Error("expected unknown strategy to be rejected")
	}
}

func TestStep_UnmarshalLegacyJSON(t *testing.T) {
	t.Parallel()
	raw := `{"url":"https://example.com/login","find_by":"XPath","find_value":"//button","action":"click","wait_time":5,"active":true}`

	var s model.Step
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s.Strategy != model.StrategyXPath {
		t.Errorf("expected xpath strategy, got %q", s.Strategy)
	}
	if s.Action != model.ActionClick {
		t.Errorf("expected Click action, got %q", s.Action)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestValidateSteps(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		steps   []model.Step
		wantErr bool
	}{
		{"empty", nil, false},
		{"valid input", []model.Step{{Strategy: model.StrategyID, Selector: "user", Action: model.ActionInputText, Input: "bob"}}, false},
		{"navigate without strategy", []model.Step{{Action: model.ActionNavigate, Selector: "https://example.com/a"}}, false},
		{"unknown action", []model.Step{{Strategy: model.StrategyID, Selector: "x", Action: "Hover"}}, true},
		{"unknown strategy", []model.Step{{Strategy: "shadow", Selector: "x", Action: model.ActionClick}}, true},
		{"missing selector", []model.Step{{Strategy: model.StrategyCSS, Action: model.ActionClick}}, true},
		{"negative wait", []model.Step{{Strategy: model.StrategyCSS, Selector: "a", Action: model.ActionClick, Wait: -1}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := model.ValidateSteps(tt.steps)
			if tt.wantErr {
				if !errors.Is(err, model.ErrValidation) {
					t.Errorf("expected ErrValidation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
