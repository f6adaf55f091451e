package webclient

import (
	"context"
	"time"

	"github.com/raysh454/a11yscan/internal/model"
)

// Selector locates an element, either by CSS query or by XPath expression.
type Selector struct {
	Query string
	XPath bool
}

// Launcher starts browser sessions. A scan run holds one session for its
// whole lifetime.
type Launcher interface {
	Launch(ctx context.Context) (Session, error)
}

// Session is one running browser. Close releases it and every page it owns.
type Session interface {
	NewPage(ctx context.Context) (Page, error)
	Close() error
}

// Page is a single tab inside a Session. Methods taking a timeout treat a
// non-positive value as "no extra limit beyond ctx".
type Page interface {
	Emulate(ctx context.Context, device model.DeviceProfile) error

	// Navigate loads url. Failures wrap model.ErrNavigation.
	Navigate(ctx context.Context, url string, timeout time.Duration) error

	Location(ctx context.Context) (string, error)
	Content(ctx context.Context) (string, error)

	// WaitReady blocks until sel matches an element.
	WaitReady(ctx context.Context, sel Selector, timeout time.Duration) error

	Click(ctx context.Context, sel Selector) error

	// InForm reports whether the element has an enclosing <form>.
	InForm(ctx context.Context, sel Selector) (bool, error)

	// SubmitForm submits the form enclosing the element.
	SubmitForm(ctx context.Context, sel Selector) error

	Type(ctx context.Context, sel Selector, text string) error

	// SelectOption selects value on a <select>, firing input and change.
	SelectOption(ctx context.Context, sel Selector, value string) error

	// SetValue assigns the element's value property without firing events.
	SetValue(ctx context.Context, sel Selector, value string) error

	// ExpectNavigation arms a watcher for a top-level navigation. Call it
	// before the action that may navigate, then call the returned func to
	// wait up to timeout for that navigation to settle.
	ExpectNavigation(ctx context.Context) func(timeout time.Duration) error

	// Evaluate runs a script, awaiting a returned promise, and decodes the
	// result into out.
	Evaluate(ctx context.Context, expr string, out any) error

	Close() error
}
