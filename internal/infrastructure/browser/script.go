package browser

import (
	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/valyala/bytebufferpool"
)

// Structural selectors for the formation area, most specific first.
var DefaultTeamSelectors = []string{
	`div[class*="Pitch"]`,
	`div[class*="Formation"]`,
	`div[class*="Team"]`,
	`.Layout__Main`,
	`main`,
	`[data-testid="pitch"]`,
}

// Page chrome hidden before the clip is taken.
var DefaultHiddenSelectors = []string{
	`header`,
	`.Layout__Header`,
	`.Navigation`,
	`.SidebarLayout__sidebar`,
	`.Layout__Footer`,
	`nav`,
	`.Banner`,
	`.FixtureTable`,
	`.TransferInfo`,
	`.ads`,
	`[class*="ad-"]`,
	`.sticky-header`,
}

const DefaultConsentSelector = `#onetrust-accept-btn-handler, .onetrust-close-btn-handler, [data-testid="cookie-accept"]`

// hideScript sets display:none on every match of selectors and scrolls to
// the top. Selectors are embedded as a JSON array literal.
func hideScript(selectors []string) (string, error) {
	encoded, err := sonic.Marshal(selectors)
	if err != nil {
		return "", crerr.Wrap(err, "encode hidden selectors")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(`(function(selectors){var hidden=0;selectors.forEach(function(sel){`)
	_, _ = buf.WriteString(`document.querySelectorAll(sel).forEach(function(el){el.style.display='none';hidden++;});});`)
	_, _ = buf.WriteString(`window.scrollTo(0,0);return hidden;})(`)
	_, _ = buf.Write(encoded)
	_, _ = buf.WriteString(`)`)
	return buf.String(), nil
}

// consentScript clicks the first consent button matching selector and
// reports whether one was found.
func consentScript(selector string) (string, error) {
	encoded, err := sonic.Marshal(selector)
	if err != nil {
		return "", crerr.Wrap(err, "encode consent selector")
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString(`(function(sel){var btn=document.querySelector(sel);if(btn){btn.click();return true;}return false;})(`)
	_, _ = buf.Write(encoded)
	_, _ = buf.WriteString(`)`)
	return buf.String(), nil
}
