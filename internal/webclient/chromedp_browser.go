package webclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/device"

	"github.com/raysh454/a11yscan/internal/logging"
	"github.com/raysh454/a11yscan/internal/model"
)

// ChromedpLauncher starts headless Chrome sessions for scan runs.
type ChromedpLauncher struct {
	cfg    Config
	logger logging.Logger
}

var _ Launcher = (*ChromedpLauncher)(nil)

func NewChromedpLauncher(cfg Config, logger logging.Logger) *ChromedpLauncher {
	defaults := DefaultConfig()
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.IdleAfter <= 0 {
		cfg.IdleAfter = defaults.IdleAfter
	}
	return &ChromedpLauncher{
		cfg:    cfg,
		logger: logger.With(logging.Field{Key: "component", Value: "browser"}),
	}
}

func (l *ChromedpLauncher) Launch(ctx context.Context) (Session, error) {
	// The browser outlives the launching call; it is released by Close.
	browserCtx, browserCancel, allocCancel, err := startBrowser(context.WithoutCancel(ctx), l.cfg)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("browser session started")
	return &chromedpSession{
		cfg:           l.cfg,
		logger:        l.logger,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		allocCancel:   allocCancel,
	}, nil
}

type chromedpSession struct {
	cfg           Config
	logger        logging.Logger
	browserCtx    context.Context
	browserCancel context.CancelFunc
	allocCancel   context.CancelFunc
}

func (s *chromedpSession) NewPage(ctx context.Context) (Page, error) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx)
	p := &chromedpPage{ctx: tabCtx, cancel: cancel, cfg: s.cfg}
	if err := p.run(ctx, s.cfg.Timeout); err != nil {
		cancel()
		return nil, fmt.Errorf("open page: %w", err)
	}
	return p, nil
}

func (s *chromedpSession) Close() error {
	s.browserCancel()
	s.allocCancel()
	s.logger.Debug("browser session closed")
	return nil
}

type chromedpPage struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    Config
}

var _ Page = (*chromedpPage)(nil)

// run executes actions on the tab, bounded by timeout and by the caller's ctx.
func (p *chromedpPage) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithCancel(p.ctx)
	defer cancel()
	if timeout > 0 {
		var cancelTimeout context.CancelFunc
		runCtx, cancelTimeout = context.WithTimeout(runCtx, timeout)
		defer cancelTimeout()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func queryOption(sel Selector) chromedp.QueryOption {
	if sel.XPath {
		return chromedp.BySearch
	}
	return chromedp.ByQuery
}

// jsElement is a JS expression evaluating to the element sel names, or null.
func jsElement(sel Selector) string {
	q, _ := json.Marshal(sel.Query)
	if sel.XPath {
		return fmt.Sprintf("document.evaluate(%s, document, null, XPathResult.FIRST_ORDERED_NODE_TYPE, null).singleNodeValue", q)
	}
	return fmt.Sprintf("document.querySelector(%s)", q)
}

func (p *chromedpPage) Emulate(ctx context.Context, d model.DeviceProfile) error {
	if d.UserAgent != "" {
		info := device.Info{
			Name:      d.Name,
			UserAgent: d.UserAgent,
			Width:     d.Width,
			Height:    d.Height,
			Scale:     d.Scale,
			Landscape: d.Landscape,
			Mobile:    d.Mobile,
			Touch:     d.Touch,
		}
		return p.run(ctx, p.cfg.Timeout, chromedp.Emulate(info))
	}

	opts := []chromedp.EmulateViewportOption{chromedp.EmulateScale(d.Scale)}
	if d.Landscape {
		opts = append(opts, chromedp.EmulateLandscape)
	} else {
		opts = append(opts, chromedp.EmulatePortrait)
	}
	if d.Mobile {
		opts = append(opts, chromedp.EmulateMobile)
	}
	if d.Touch {
		opts = append(opts, chromedp.EmulateTouch)
	}
	return p.run(ctx, p.cfg.Timeout, chromedp.EmulateViewport(d.Width, d.Height, opts...))
}

func (p *chromedpPage) Navigate(ctx context.Context, url string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = p.cfg.Timeout
	}
	idle, stopWatching := watchNetworkIdle(p.ctx, p.cfg.IdleAfter)
	defer stopWatching()
	if err := p.run(ctx, timeout, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("%w: %s: %v", model.ErrNavigation, url, err)
	}
	select {
	case <-idle:
	case <-time.After(p.cfg.IdleAfter * 4):
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

func (p *chromedpPage) Location(ctx context.Context) (string, error) {
	var loc string
	err := p.run(ctx, p.cfg.Timeout, chromedp.Location(&loc))
	return loc, err
}

func (p *chromedpPage) Content(ctx context.Context) (string, error) {
	var html string
	err := p.run(ctx, p.cfg.Timeout, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

func (p *chromedpPage) WaitReady(ctx context.Context, sel Selector, timeout time.Duration) error {
	err := p.run(ctx, timeout, chromedp.WaitReady(sel.Query, queryOption(sel)))
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if sel.XPath {
		// DOM.performSearch does not handle every XPath expression the
		// document evaluator does.
		var found bool
		if evalErr := p.run(ctx, p.cfg.Timeout, chromedp.Evaluate(jsElement(sel)+" !== null", &found)); evalErr == nil && found {
			return nil
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("timeout waiting for selector: %s", sel.Query)
	}
	return fmt.Errorf("error with selector: %s: %w", sel.Query, err)
}

func (p *chromedpPage) Click(ctx context.Context, sel Selector) error {
	err := p.run(ctx, p.cfg.Timeout, chromedp.Click(sel.Query, queryOption(sel), chromedp.NodeVisible))
	if err != nil && sel.XPath {
		return p.Evaluate(ctx, fmt.Sprintf("(el => { if (!el) throw new Error('element not found'); el.click(); return true })(%s)", jsElement(sel)), nil)
	}
	return err
}

func (p *chromedpPage) InForm(ctx context.Context, sel Selector) (bool, error) {
	var inForm bool
	expr := fmt.Sprintf("(el => !!(el && el.closest('form')))(%s)", jsElement(sel))
	err := p.Evaluate(ctx, expr, &inForm)
	return inForm, err
}

func (p *chromedpPage) SubmitForm(ctx context.Context, sel Selector) error {
	expr := fmt.Sprintf(`(el => {
	const form = el && el.closest('form');
	if (!form) throw new Error('element is not inside a form');
	form.submit();
	return true;
})(%s)`, jsElement(sel))
	return p.Evaluate(ctx, expr, nil)
}

func (p *chromedpPage) Type(ctx context.Context, sel Selector, text string) error {
	return p.run(ctx, p.cfg.Timeout, chromedp.SendKeys(sel.Query, text, queryOption(sel)))
}

func (p *chromedpPage) SelectOption(ctx context.Context, sel Selector, value string) error {
	v, _ := json.Marshal(value)
	expr := fmt.Sprintf(`(el => {
	if (!el || el.tagName !== 'SELECT') throw new Error('element is not a <select>');
	const opt = Array.from(el.options).find(o => o.value === %[1]s);
	if (!opt) throw new Error('no option with value ' + %[1]s);
	el.value = opt.value;
	el.dispatchEvent(new Event('input', { bubbles: true }));
	el.dispatchEvent(new Event('change', { bubbles: true }));
	return true;
})(%[2]s)`, v, jsElement(sel))
	return p.Evaluate(ctx, expr, nil)
}

func (p *chromedpPage) SetValue(ctx context.Context, sel Selector, value string) error {
	v, _ := json.Marshal(value)
	expr := fmt.Sprintf("(el => { if (el) { el.value = %s; } return !!el })(%s)", v, jsElement(sel))
	return p.Evaluate(ctx, expr, nil)
}

func (p *chromedpPage) ExpectNavigation(ctx context.Context) func(timeout time.Duration) error {
	navigated := make(chan struct{}, 1)
	listenCtx, stopListening := context.WithCancel(p.ctx)
	chromedp.ListenTarget(listenCtx, func(ev any) {
		if e, ok := ev.(*page.EventFrameNavigated); ok && e.Frame != nil && e.Frame.ParentID == "" {
			select {
			case navigated <- struct{}{}:
			default:
			}
		}
	})

	return func(timeout time.Duration) error {
		defer stopListening()
		if timeout <= 0 {
			timeout = p.cfg.Timeout
		}
		deadline := time.Now().Add(timeout)
		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case <-navigated:
		case <-timer.C:
			return fmt.Errorf("no navigation within %s", timeout)
		case <-ctx.Done():
			return ctx.Err()
		}
		// Wait for the new document to be usable.
		return p.run(ctx, time.Until(deadline), chromedp.WaitReady("body", chromedp.ByQuery))
	}
}

func (p *chromedpPage) Evaluate(ctx context.Context, expr string, out any) error {
	return p.run(ctx, p.cfg.Timeout, chromedp.Evaluate(expr, out, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}))
}

func (p *chromedpPage) Close() error {
	p.cancel()
	return nil
}
