// Package bot drives an external list web page through headless Chrome.
// The page has no API: rows are scraped from the DOM and mutated by
// clicking, which is why the reconciler addresses them by position only.
package bot

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"

	"hemlist/engine/internal/reconcile"
)

// Selectors locate the list on the page. Defaults fit a plain
// ul/li/checkbox markup; deployments override them per target site.
type Selectors struct {
	Row          string
	Name         string
	Checkbox     string
	AddInput     string
	DeleteButton string
}

func DefaultSelectors() Selectors {
	return Selectors{
		Row:          "ul[data-list] li",
		Name:         "[data-name]",
		Checkbox:     "input[type=checkbox]",
		AddInput:     "input[data-add]",
		DeleteButton: "[data-delete]",
	}
}

type Options struct {
	Headless      bool
	ActionTimeout time.Duration
	Selectors     Selectors
}

// ChromeBot implements reconcile.Bot against a live page. A mutex
// serializes actions so at most one browser interaction is in flight,
// which is the rate limit the reconciler relies on.
type ChromeBot struct {
	url     string
	sel     Selectors
	timeout time.Duration

	mu        sync.Mutex
	navigated bool

	browserCtx  context.Context
	cancelChain []context.CancelFunc
}

var _ reconcile.Bot = (*ChromeBot)(nil)

func NewChromeBot(url string, opts Options) (*ChromeBot, error) {
	if url == "" {
		return nil, fmt.Errorf("bot url required")
	}
	sel := opts.Selectors
	if sel.Row == "" {
		sel = DefaultSelectors()
	}
	timeout := opts.ActionTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), execOpts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	return &ChromeBot{
		url:         url,
		sel:         sel,
		timeout:     timeout,
		browserCtx:  browserCtx,
		cancelChain: []context.CancelFunc{cancelCtx, cancelAlloc},
	}, nil
}

func (b *ChromeBot) Close() {
	for _, cancel := range b.cancelChain {
		cancel()
	}
}

// run executes one serialized browser action with a timeout.
func (b *ChromeBot) run(ctx context.Context, actions ...chromedp.Action) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	runCtx, cancel := context.WithTimeout(b.browserCtx, b.timeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		// The in-flight browser action is allowed to finish; its effect is
		// picked up by the next round's re-read.
		return ctx.Err()
	}
}

func (b *ChromeBot) Refresh(ctx context.Context) error {
	b.mu.Lock()
	first := !b.navigated
	b.navigated = true
	b.mu.Unlock()

	var action chromedp.Action = chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Reload().Do(ctx)
	})
	if first {
		action = chromedp.Navigate(b.url)
	}
	if err := b.run(ctx, action, chromedp.WaitReady("body")); err != nil {
		return fmt.Errorf("refresh page: %w", err)
	}
	return nil
}

func (b *ChromeBot) List(ctx context.Context) ([]reconcile.ForeignItem, error) {
	var rows []struct {
		Name    string `json:"name"`
		Checked bool   `json:"checked"`
	}
	if err := b.run(ctx, chromedp.Evaluate(scrapeScript(b.sel), &rows)); err != nil {
		return nil, fmt.Errorf("scrape list: %w", err)
	}
	items := make([]reconcile.ForeignItem, len(rows))
	for i, row := range rows {
		items[i] = reconcile.ForeignItem{Name: row.Name, Checked: row.Checked, Position: i}
	}
	return items, nil
}

func (b *ChromeBot) Add(ctx context.Context, name string, checked bool) error {
	err := b.run(ctx,
		chromedp.WaitVisible(b.sel.AddInput),
		chromedp.Clear(b.sel.AddInput),
		chromedp.SendKeys(b.sel.AddInput, name+kb.Enter),
	)
	if err != nil {
		return fmt.Errorf("add item %q: %w", name, err)
	}
	if !checked {
		return nil
	}
	// New rows land unchecked; find the appended row and check it.
	rows, err := b.List(ctx)
	if err != nil {
		return err
	}
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Name == name && !rows[i].Checked {
			return b.SetCheckedAt(ctx, i, true)
		}
	}
	return nil
}

func (b *ChromeBot) DeleteAt(ctx context.Context, position int) error {
	var ok bool
	if err := b.run(ctx, chromedp.Evaluate(clickScript(b.sel, position, b.sel.DeleteButton), &ok)); err != nil {
		return fmt.Errorf("delete at %d: %w", position, err)
	}
	if !ok {
		return fmt.Errorf("delete at %d: no such row", position)
	}
	return nil
}

func (b *ChromeBot) SetCheckedAt(ctx context.Context, position int, checked bool) error {
	var ok bool
	if err := b.run(ctx, chromedp.Evaluate(setCheckedScript(b.sel, position, checked), &ok)); err != nil {
		return fmt.Errorf("set checked at %d: %w", position, err)
	}
	if !ok {
		return fmt.Errorf("set checked at %d: no such row", position)
	}
	return nil
}
