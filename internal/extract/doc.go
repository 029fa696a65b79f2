// Package extract finds interactive UI elements in static HTML.
//
// An Extractor runs a fixed sequence of selector passes over a goquery
// document and emits one model.Element per matched node. Each element gets
// a locator from Synthesize and the node's non-empty attributes.
//
// Two modes exist. ModeCrawl is used for every page of a crawl and
// recognizes buttons, links, inputs, checkboxes, radios, dropdowns, forms
// and ARIA widgets. ModeSnapshot analyzes a single page and emits buttons,
// links, inputs and headings.
//
// Extraction never fails on malformed markup; the HTML parser repairs the
// tree and nodes lacking attributes produce sparser records.
package extract
