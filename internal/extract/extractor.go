package extract

import (
	"io"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"
	"github.com/nao1215/uiscout/internal/model"
)

// Mode selects which extraction passes run.
type Mode int

const (
	// ModeCrawl is used for every page of a multi-page crawl. Buttons also
	// match click-handler attributes, and checkbox, radio, dropdown, form
	// and ARIA widget passes run.
	ModeCrawl Mode = iota

	// ModeSnapshot is the single-page analyzer. It emits buttons, links,
	// inputs and headings.
	ModeSnapshot
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeCrawl:
		return "crawl"
	case ModeSnapshot:
		return "snapshot"
	default:
		return "unknown"
	}
}

// Selector groups for the extraction passes. Compiled once at init.
// HTML type values are ASCII case-insensitive, hence the "i" flags.
var (
	crawlButtonMatcher    = cascadia.MustCompile(`button, [role="button"], input[type="button" i], input[type="submit" i], [onclick], [data-click], [data-action]`)
	snapshotButtonMatcher = cascadia.MustCompile(`button, [role="button"], input[type="button" i], input[type="submit" i]`)
	linkMatcher           = cascadia.MustCompile(`a`)
	inputMatcher          = cascadia.MustCompile(`input:not([type="hidden" i]), textarea, select`)
	toggleMatcher         = cascadia.MustCompile(`input[type="checkbox" i], input[type="radio" i]`)
	dropdownMatcher       = cascadia.MustCompile(`select`)
	optionMatcher         = cascadia.MustCompile(`option`)
	formMatcher           = cascadia.MustCompile(`form`)
	interactiveMatcher    = cascadia.MustCompile(`[role="menu"], [role="menuitem"], [role="tab"], [role="combobox"], [role="slider"], [role="switch"]`)
	headingMatcher        = cascadia.MustCompile(`h1, h2, h3, h4, h5, h6`)
	titleMatcher          = cascadia.MustCompile(`title`)
)

// pass is one structural scan over the document. build fills in the
// kind-specific part of an element; selector and attributes are added by
// the extractor.
type pass struct {
	matcher cascadia.Selector
	build   func(s *goquery.Selection) model.Element
}

// Extractor turns a parsed HTML document into interactive elements.
//
// Design decision: We run one selector query per element kind instead of
// a single tree walk because:
//  1. Output order is grouped by kind, which downstream generators expect
//  2. A node may legitimately appear in several passes (a checkbox is also an input)
//  3. Each pass reads like the CSS pattern it implements
type Extractor struct {
	mode   Mode
	passes []pass
}

// New creates an extractor for the given mode.
func New(mode Mode) *Extractor {
	x := &Extractor{mode: mode}
	switch mode {
	case ModeSnapshot:
		x.passes = []pass{
			{matcher: snapshotButtonMatcher, build: buildButton},
			{matcher: linkMatcher, build: buildLink},
			{matcher: inputMatcher, build: buildInput},
			{matcher: headingMatcher, build: buildHeading},
		}
	default:
		x.passes = []pass{
			{matcher: crawlButtonMatcher, build: buildButton},
			{matcher: linkMatcher, build: buildLink},
			{matcher: inputMatcher, build: buildInput},
			{matcher: toggleMatcher, build: buildToggle},
			{matcher: dropdownMatcher, build: buildDropdown},
			{matcher: formMatcher, build: buildForm},
			{matcher: interactiveMatcher, build: buildInteractive},
		}
	}
	return x
}

// Mode returns the extraction mode.
func (x *Extractor) Mode() Mode {
	return x.mode
}

// Extract runs every pass over doc and returns the elements in pass order,
// document order within a pass. It never fails; malformed markup yields
// sparser records.
func (x *Extractor) Extract(doc *goquery.Document) []model.Element {
	elements := make([]model.Element, 0)
	for _, p := range x.passes {
		doc.FindMatcher(p.matcher).Each(func(_ int, s *goquery.Selection) {
			n := s.Get(0)
			e := p.build(s)
			e.Selector = Synthesize(n)
			e.Attributes = Attributes(n)
			elements = append(elements, e)
		})
	}
	return elements
}

// ExtractReader parses HTML from r and extracts its elements and title.
// The reader must yield UTF-8.
func (x *Extractor) ExtractReader(r io.Reader) (string, []model.Element, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", nil, err
	}
	return Title(doc), x.Extract(doc), nil
}

// Title returns the trimmed text of the document's first <title>.
func Title(doc *goquery.Document) string {
	return strings.TrimSpace(doc.FindMatcher(titleMatcher).First().Text())
}

func buildButton(s *goquery.Selection) model.Element {
	return model.Element{
		Kind: model.KindButton,
		Text: strings.TrimSpace(s.Text()),
	}
}

func buildLink(s *goquery.Selection) model.Element {
	href, _ := s.Attr("href")
	return model.Element{
		Kind:   model.KindLink,
		Text:   strings.TrimSpace(s.Text()),
		Detail: model.LinkDetail{Href: href},
	}
}

func buildInput(s *goquery.Selection) model.Element {
	inputType := strings.ToLower(s.AttrOr("type", ""))
	if inputType == "" {
		inputType = "text"
	}
	return model.Element{
		Kind: model.KindInput,
		Detail: model.InputDetail{
			InputType:   inputType,
			Name:        s.AttrOr("name", ""),
			ID:          s.AttrOr("id", ""),
			Placeholder: s.AttrOr("placeholder", ""),
		},
	}
}

func buildToggle(s *goquery.Selection) model.Element {
	kind := model.KindRadio
	if strings.EqualFold(s.AttrOr("type", ""), "checkbox") {
		kind = model.KindCheckbox
	}
	return model.Element{
		Kind: kind,
		Detail: model.ToggleDetail{
			Name:  s.AttrOr("name", ""),
			ID:    s.AttrOr("id", ""),
			Value: s.AttrOr("value", ""),
		},
	}
}

func buildDropdown(s *goquery.Selection) model.Element {
	options := make([]model.Option, 0)
	s.FindMatcher(optionMatcher).Each(func(_ int, opt *goquery.Selection) {
		options = append(options, model.Option{
			Value: opt.AttrOr("value", ""),
			Text:  strings.TrimSpace(opt.Text()),
		})
	})
	return model.Element{
		Kind: model.KindDropdown,
		Detail: model.DropdownDetail{
			Name:    s.AttrOr("name", ""),
			ID:      s.AttrOr("id", ""),
			Options: options,
		},
	}
}

func buildForm(s *goquery.Selection) model.Element {
	return model.Element{
		Kind: model.KindForm,
		Detail: model.FormDetail{
			ID:     s.AttrOr("id", ""),
			Action: s.AttrOr("action", ""),
			Method: s.AttrOr("method", ""),
		},
	}
}

func buildInteractive(s *goquery.Selection) model.Element {
	return model.Element{
		Kind:   model.KindInteractive,
		Text:   strings.TrimSpace(s.Text()),
		Detail: model.InteractiveDetail{Role: s.AttrOr("role", "")},
	}
}

func buildHeading(s *goquery.Selection) model.Element {
	// Tag names are h1..h6, so the level is the trailing digit.
	level, err := strconv.Atoi(strings.TrimPrefix(goquery.NodeName(s), "h"))
	if err != nil {
		level = 0
	}
	return model.Element{
		Kind:   model.KindHeading,
		Text:   strings.TrimSpace(s.Text()),
		Detail: model.HeadingDetail{Level: level},
	}
}
