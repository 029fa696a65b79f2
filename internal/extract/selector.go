package extract

import (
	"strings"

	"golang.org/x/net/html"
)

// Synthesize returns a locator string for an element node.
// The first matching rule wins:
//
//  1. #id
//  2. [data-testid="v"] from data-testid or data-test-id
//  3. [name="v"]
//  4. [role="r"][aria-label="v"] when both are set
//  5. [placeholder="v"]
//  6. tag.class1.class2, or the bare tag when there are no classes
//
// Attribute values are inserted verbatim without escaping. The result is
// meant for generated test code and is not guaranteed to be valid CSS.
//
// Design decision: We rank author-controlled identifiers above classes because:
//  1. ids and test ids rarely change between deploys
//  2. Class lists churn with styling changes
//  3. A stable selector keeps page fingerprints stable across re-crawls
func Synthesize(n *html.Node) string {
	if id := getAttr(n, "id"); id != "" {
		return "#" + id
	}

	testID := getAttr(n, "data-testid")
	if testID == "" {
		testID = getAttr(n, "data-test-id")
	}
	if testID != "" {
		return `[data-testid="` + testID + `"]`
	}

	if name := getAttr(n, "name"); name != "" {
		return `[name="` + name + `"]`
	}

	role := getAttr(n, "role")
	label := getAttr(n, "aria-label")
	if role != "" && label != "" {
		return `[role="` + role + `"][aria-label="` + label + `"]`
	}

	if placeholder := getAttr(n, "placeholder"); placeholder != "" {
		return `[placeholder="` + placeholder + `"]`
	}

	tag := n.Data
	classes := strings.Fields(getAttr(n, "class"))
	if len(classes) == 0 {
		return tag
	}
	return tag + "." + strings.Join(classes, ".")
}

// Attributes returns every attribute of n with a non-empty value.
// When an attribute is repeated the first occurrence wins, matching what
// browsers expose through the DOM.
func Attributes(n *html.Node) map[string]string {
	attrs := make(map[string]string, len(n.Attr))
	seen := make(map[string]bool, len(n.Attr))
	for _, a := range n.Attr {
		if seen[a.Key] {
			continue
		}
		seen[a.Key] = true
		if a.Val != "" {
			attrs[a.Key] = a.Val
		}
	}
	return attrs
}

// getAttr retrieves the first value of an attribute from an HTML node.
func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}
