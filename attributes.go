package arbor

import "fmt"

// Attribute names understood by GetAttribute and SetAttribute.
const (
	AttrZIndex        = "zIndex"
	AttrVisibility    = "visibility"
	AttrPointerEvents = "pointerEvents"
	AttrFill          = "fill"
	AttrStroke        = "stroke"
	AttrLineWidth     = "lineWidth"
	AttrShadowBlur    = "shadowBlur"
	AttrWidth         = "width"
	AttrHeight        = "height"
	AttrRadius        = "r"
	AttrRX            = "rx"
	AttrRY            = "ry"
)

// GetAttribute returns the named attribute. Built-in names read the node's
// state; anything else is looked up in the node's free-form attributes.
func (n *Node) GetAttribute(name string) (any, bool) {
	switch name {
	case AttrZIndex:
		return n.zIndex, true
	case AttrVisibility:
		return n.visibility, true
	case AttrPointerEvents:
		return n.pointerEvents, true
	case AttrFill:
		return n.Style.Fill, true
	case AttrStroke:
		return n.Style.Stroke, true
	case AttrLineWidth:
		return n.Style.LineWidth, true
	case AttrShadowBlur:
		return n.Style.ShadowBlur, true
	case AttrWidth:
		return n.Shape.Width, true
	case AttrHeight:
		return n.Shape.Height, true
	case AttrRadius:
		return n.Shape.Radius, true
	case AttrRX:
		return n.Shape.RX, true
	case AttrRY:
		return n.Shape.RY, true
	}
	v, ok := n.attributes[name]
	return v, ok
}

// SetAttribute sets a built-in attribute through the matching setter so
// that bounds and sort order are invalidated. Values must have the
// attribute's type (int, float64, Color, Visibility or PointerEvents).
// Unknown names return ErrUnknownAttribute; use SetData for free-form values.
func (n *Node) SetAttribute(name string, value any) error {
	switch name {
	case AttrZIndex:
		z, ok := value.(int)
		if !ok {
			return attrTypeError(name, value)
		}
		n.SetZIndex(z)
	case AttrVisibility:
		v, ok := value.(Visibility)
		if !ok {
			return attrTypeError(name, value)
		}
		n.SetVisibility(v)
	case AttrPointerEvents:
		pe, ok := value.(PointerEvents)
		if !ok {
			return attrTypeError(name, value)
		}
		n.SetPointerEvents(pe)
	case AttrFill, AttrStroke:
		c, ok := value.(Color)
		if !ok {
			return attrTypeError(name, value)
		}
		st := n.Style
		if name == AttrFill {
			st.Fill = c
		} else {
			st.Stroke = c
		}
		n.SetStyle(st)
	case AttrLineWidth, AttrShadowBlur:
		f, ok := value.(float64)
		if !ok {
			return attrTypeError(name, value)
		}
		st := n.Style
		if name == AttrLineWidth {
			st.LineWidth = f
		} else {
			st.ShadowBlur = f
		}
		n.SetStyle(st)
	case AttrWidth, AttrHeight, AttrRadius, AttrRX, AttrRY:
		f, ok := value.(float64)
		if !ok {
			return attrTypeError(name, value)
		}
		switch name {
		case AttrWidth:
			n.Shape.Width = f
		case AttrHeight:
			n.Shape.Height = f
		case AttrRadius:
			n.Shape.Radius = f
		case AttrRX:
			n.Shape.RX = f
		case AttrRY:
			n.Shape.RY = f
		}
		UpdateGeometry(n)
	default:
		return fmt.Errorf("%w %q", ErrUnknownAttribute, name)
	}
	return nil
}

func attrTypeError(name string, value any) error {
	return fmt.Errorf("%w: %s got %T", ErrAttributeType, name, value)
}

// SetData stores a free-form attribute readable with GetAttribute. Built-in
// names are not accepted here.
func (n *Node) SetData(name string, value any) {
	if n.attributes == nil {
		n.attributes = make(map[string]any)
	}
	n.attributes[name] = value
}

// WorldPosition is the node's origin in canvas coordinates.
func (n *Node) WorldPosition() (x, y float64) {
	p := n.Position()
	return p[0], p[1]
}
