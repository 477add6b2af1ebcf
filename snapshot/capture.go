package snapshot

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

const (
	viewportWidth  = 1920
	viewportHeight = 1080
)

// stealthScript masks the headless fingerprint so storefronts serve the
// same markup they serve a real browser.
const stealthScript = `
	Object.defineProperty(navigator, 'userAgent', {
		get: function () { return 'Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36'; }
	});
	Object.defineProperty(navigator, 'webdriver', {
		get: () => undefined,
	});
	Object.defineProperty(navigator, 'plugins', {
		get: () => [1, 2, 3, 4, 5],
	});
	Object.defineProperty(navigator, 'languages', {
		get: () => ['en-US', 'en'],
	});
	Object.defineProperty(navigator, 'platform', {
		get: () => 'Win32',
	});
	window.chrome = { runtime: {} };
`

// annotateScript stamps each element with its computed layout so the
// extraction engine can read geometry, font size and stacking order from
// attributes after the page has been serialized to static HTML.
const annotateScript = `
	() => {
		const doc = document.documentElement;
		doc.setAttribute('data-cl-vw', String(window.innerWidth));
		doc.setAttribute('data-cl-vh', String(window.innerHeight));
		const els = document.querySelectorAll('*');
		for (const el of els) {
			const style = window.getComputedStyle(el);
			if (style.display === 'none' || style.visibility === 'hidden') {
				el.setAttribute('data-cl-hidden', '1');
				continue;
			}
			const rect = el.getBoundingClientRect();
			el.setAttribute('data-cl-top', String(Math.round(rect.top + window.scrollY)));
			el.setAttribute('data-cl-left', String(Math.round(rect.left + window.scrollX)));
			el.setAttribute('data-cl-w', String(Math.round(rect.width)));
			el.setAttribute('data-cl-h', String(Math.round(rect.height)));
			el.setAttribute('data-cl-fs', String(Math.round(parseFloat(style.fontSize) || 0)));
			const z = parseInt(style.zIndex, 10);
			if (!isNaN(z)) {
				el.setAttribute('data-cl-z', String(z));
			}
		}
	}
`

// Capturer renders live pages in a headless browser and returns annotated
// HTML snapshots.
type Capturer struct {
	browser *rod.Browser
}

// NewCapturer launches the browser. Uses system Chromium when present
// (Docker), auto-detected Chromium otherwise.
func NewCapturer() (c *Capturer, err error) {
	defer func() {
		if r := recover(); r != nil {
			c = nil
			err = fmt.Errorf("failed to launch browser: %v", r)
		}
	}()

	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Leakless(false)

	if _, serr := os.Stat("/usr/bin/chromium-browser"); serr == nil {
		l = l.Bin("/usr/bin/chromium-browser")
		log.Printf("Using system Chromium")
	} else {
		log.Printf("Using auto-detected Chromium")
	}

	url := l.MustLaunch()
	browser := rod.New().ControlURL(url).MustConnect()
	return &Capturer{browser: browser}, nil
}

// Close shuts the browser down.
func (c *Capturer) Close() {
	if c.browser != nil {
		c.browser.MustClose()
	}
}

// Capture loads a page, waits for it to settle, annotates every element
// with its computed layout and returns the serialized HTML.
func (c *Capturer) Capture(ctx context.Context, pageURL string) (html string, err error) {
	defer func() {
		if r := recover(); r != nil {
			html = ""
			err = fmt.Errorf("snapshot of %s failed: %v", pageURL, r)
		}
	}()

	page := c.browser.MustPage()
	defer page.MustClose()

	page = page.Context(ctx)
	page.MustEvalOnNewDocument(stealthScript)
	page.MustSetViewport(viewportWidth, viewportHeight, 1.0, false)
	page.MustNavigate(pageURL)
	page.MustWaitLoad()
	page.MustWaitStable()

	page.MustEval(annotateScript)
	return page.HTML()
}
