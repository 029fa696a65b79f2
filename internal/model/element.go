package model

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the category of an interactive element.
// The set is closed: every Element produced by the extractor carries one of
// the constants below, and code generators switch over them exhaustively.
type Kind string

const (
	// KindButton is a <button>, [role=button], input[type=button|submit],
	// or any node with a click handler attribute.
	KindButton Kind = "button"

	// KindLink is an <a> element.
	KindLink Kind = "link"

	// KindInput is a generic form control (<input>, <textarea>, <select>).
	KindInput Kind = "input"

	// KindCheckbox is an input[type=checkbox].
	KindCheckbox Kind = "checkbox"

	// KindRadio is an input[type=radio].
	KindRadio Kind = "radio"

	// KindDropdown is a <select> together with its options.
	KindDropdown Kind = "dropdown"

	// KindForm is a <form> element.
	KindForm Kind = "form"

	// KindInteractive is a node whose ARIA role marks it as a widget
	// (menu, menuitem, tab, combobox, slider, switch).
	KindInteractive Kind = "interactive"

	// KindHeading is an <h1>..<h6> element. Only snapshot extraction emits it.
	KindHeading Kind = "heading"
)

// Kinds returns every known kind in extraction pass order.
func Kinds() []Kind {
	return []Kind{
		KindButton,
		KindLink,
		KindInput,
		KindCheckbox,
		KindRadio,
		KindDropdown,
		KindForm,
		KindInteractive,
		KindHeading,
	}
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	for _, known := range Kinds() {
		if k == known {
			return true
		}
	}
	return false
}

// String returns the kind name.
func (k Kind) String() string {
	return string(k)
}

// Detail carries the kind-specific fields of an Element.
// Each Kind maps to exactly one Detail implementation (buttons carry none):
//
//	KindLink        -> LinkDetail
//	KindInput       -> InputDetail
//	KindCheckbox    -> ToggleDetail
//	KindRadio       -> ToggleDetail
//	KindDropdown    -> DropdownDetail
//	KindForm        -> FormDetail
//	KindInteractive -> InteractiveDetail
//	KindHeading     -> HeadingDetail
//
// The interface is sealed; only this package can add variants.
type Detail interface {
	detail()
}

// LinkDetail holds the anchor target, copied verbatim from the href attribute.
// Href may be empty, relative or malformed.
type LinkDetail struct {
	Href string `json:"href,omitempty"`
}

// InputDetail describes a generic form control.
type InputDetail struct {
	// InputType is the type attribute, "text" when absent.
	InputType   string `json:"inputType"`
	Name        string `json:"name,omitempty"`
	ID          string `json:"id,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
}

// ToggleDetail describes a checkbox or radio button.
type ToggleDetail struct {
	Name  string `json:"name,omitempty"`
	ID    string `json:"id,omitempty"`
	Value string `json:"value,omitempty"`
}

// Option is one <option> of a dropdown.
type Option struct {
	Value string `json:"value"`
	Text  string `json:"text"`
}

// DropdownDetail describes a <select> with its options in document order.
type DropdownDetail struct {
	Name    string   `json:"name,omitempty"`
	ID      string   `json:"id,omitempty"`
	Options []Option `json:"options"`
}

// FormDetail describes a <form>.
type FormDetail struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action,omitempty"`
	Method string `json:"method,omitempty"`
}

// InteractiveDetail describes an ARIA widget.
type InteractiveDetail struct {
	Role string `json:"role"`
}

// HeadingDetail describes a heading.
type HeadingDetail struct {
	// Level is 1 through 6.
	Level int `json:"level"`
}

func (LinkDetail) detail()        {}
func (InputDetail) detail()       {}
func (ToggleDetail) detail()      {}
func (DropdownDetail) detail()    {}
func (FormDetail) detail()        {}
func (InteractiveDetail) detail() {}
func (HeadingDetail) detail()     {}

// Element is one interactive node found on a page.
// Elements are created once during extraction and never modified afterwards.
type Element struct {
	// Kind is the element category.
	Kind Kind

	// Text is the trimmed text content. Only buttons, links, interactive
	// widgets and headings record it.
	Text string

	// Selector is the synthesized locator for the node.
	Selector string

	// Attributes holds every attribute of the node with a non-empty value.
	Attributes map[string]string

	// Detail holds the kind-specific fields. Nil for buttons.
	Detail Detail
}

// Href returns the link target for link elements and "" otherwise.
func (e Element) Href() string {
	if d, ok := e.Detail.(LinkDetail); ok {
		return d.Href
	}
	return ""
}

// Signature returns the "<kind>:<selector>" pair used for fingerprinting.
func (e Element) Signature() string {
	return string(e.Kind) + ":" + e.Selector
}

// elementJSON is the flat wire shape of an Element. Downstream generators
// read kind-specific fields at the top level next to "type".
type elementJSON struct {
	Type        Kind              `json:"type"`
	Text        string            `json:"text,omitempty"`
	Selector    string            `json:"selector"`
	Attributes  map[string]string `json:"attributes"`
	Href        string            `json:"href,omitempty"`
	InputType   string            `json:"inputType,omitempty"`
	Name        string            `json:"name,omitempty"`
	ID          string            `json:"id,omitempty"`
	Placeholder string            `json:"placeholder,omitempty"`
	Value       string            `json:"value,omitempty"`
	Options     *[]Option         `json:"options,omitempty"`
	Action      string            `json:"action,omitempty"`
	Method      string            `json:"method,omitempty"`
	Role        string            `json:"role,omitempty"`
	Level       string            `json:"level,omitempty"`
}

// MarshalJSON flattens the detail fields next to the common fields.
func (e Element) MarshalJSON() ([]byte, error) {
	out := elementJSON{
		Type:       e.Kind,
		Text:       e.Text,
		Selector:   e.Selector,
		Attributes: e.Attributes,
	}
	if out.Attributes == nil {
		out.Attributes = map[string]string{}
	}

	switch d := e.Detail.(type) {
	case nil:
	case LinkDetail:
		out.Href = d.Href
	case InputDetail:
		out.InputType = d.InputType
		out.Name = d.Name
		out.ID = d.ID
		out.Placeholder = d.Placeholder
	case ToggleDetail:
		out.Name = d.Name
		out.ID = d.ID
		out.Value = d.Value
	case DropdownDetail:
		out.Name = d.Name
		out.ID = d.ID
		// Generators expect an array even for a <select> without options.
		options := d.Options
		if options == nil {
			options = []Option{}
		}
		out.Options = &options
	case FormDetail:
		out.ID = d.ID
		out.Action = d.Action
		out.Method = d.Method
	case InteractiveDetail:
		out.Role = d.Role
	case HeadingDetail:
		out.Level = strconv.Itoa(d.Level)
	default:
		return nil, fmt.Errorf("unsupported element detail %T", d)
	}

	return json.Marshal(out)
}

// UnmarshalJSON rebuilds the detail variant from the flat wire shape.
// It is used when loading stored crawls from the history database.
func (e *Element) UnmarshalJSON(data []byte) error {
	var in elementJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	if !in.Type.Valid() {
		return fmt.Errorf("unknown element type %q", in.Type)
	}

	e.Kind = in.Type
	e.Text = in.Text
	e.Selector = in.Selector
	e.Attributes = in.Attributes
	e.Detail = nil

	switch in.Type {
	case KindButton:
	case KindLink:
		e.Detail = LinkDetail{Href: in.Href}
	case KindInput:
		e.Detail = InputDetail{
			InputType:   in.InputType,
			Name:        in.Name,
			ID:          in.ID,
			Placeholder: in.Placeholder,
		}
	case KindCheckbox, KindRadio:
		e.Detail = ToggleDetail{Name: in.Name, ID: in.ID, Value: in.Value}
	case KindDropdown:
		var options []Option
		if in.Options != nil {
			options = *in.Options
		}
		e.Detail = DropdownDetail{Name: in.Name, ID: in.ID, Options: options}
	case KindForm:
		e.Detail = FormDetail{ID: in.ID, Action: in.Action, Method: in.Method}
	case KindInteractive:
		e.Detail = InteractiveDetail{Role: in.Role}
	case KindHeading:
		level, err := strconv.Atoi(in.Level)
		if err != nil {
			return fmt.Errorf("invalid heading level %q: %w", in.Level, err)
		}
		e.Detail = HeadingDetail{Level: level}
	}

	return nil
}
