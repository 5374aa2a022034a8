package domain

import (
	"bytes"
	"encoding/json"
)

// ElementStyle is a bag of optional presentational attributes.
// A nil or empty field means the renderer default applies.
type ElementStyle struct {
	FontSize       *float64 `json:"fontSize,omitempty"`
	FontWeight     string   `json:"fontWeight,omitempty"`
	FontFamily     string   `json:"fontFamily,omitempty"`
	FontStyle      string   `json:"fontStyle,omitempty"`
	Color          string   `json:"color,omitempty"`
	TextAlign      string   `json:"textAlign,omitempty"`
	VerticalAlign  string   `json:"verticalAlign,omitempty"`
	LineHeight     *float64 `json:"lineHeight,omitempty"`
	LetterSpacing  *float64 `json:"letterSpacing,omitempty"`
	TextDecoration string   `json:"textDecoration,omitempty"`
	TextTransform  string   `json:"textTransform,omitempty"`

	BackgroundColor string    `json:"backgroundColor,omitempty"`
	Gradient        *Gradient `json:"gradient,omitempty"`

	Border       *Border  `json:"border,omitempty"`
	BorderColor  string   `json:"borderColor,omitempty"`
	BorderWidth  *float64 `json:"borderWidth,omitempty"`
	BorderRadius *Corners `json:"borderRadius,omitempty"`

	BoxShadow  *BoxShadow  `json:"boxShadow,omitempty"`
	TextShadow *TextShadow `json:"textShadow,omitempty"`

	Padding *Insets  `json:"padding,omitempty"`
	Opacity *float64 `json:"opacity,omitempty"`

	StrokeColor string   `json:"strokeColor,omitempty"`
	StrokeWidth *float64 `json:"strokeWidth,omitempty"`
	StrokeStyle string   `json:"strokeStyle,omitempty"`
	Fill        string   `json:"fill,omitempty"`
}

// GradientStop is a color stop; Offset is a percentage in [0,100].
type GradientStop struct {
	Offset  float64  `json:"offset"`
	Color   string   `json:"color"`
	Opacity *float64 `json:"opacity,omitempty"`
}

// Gradient is a linear or radial background fill.
type Gradient struct {
	Type  string         `json:"type"`
	Angle *float64       `json:"angle,omitempty"`
	Stops []GradientStop `json:"stops"`
}

// MinGradientStops is the fewest stops a gradient may carry.
const MinGradientStops = 2

// BorderSide describes one edge of a border.
type BorderSide struct {
	Width float64 `json:"width"`
	Style string  `json:"style"`
	Color string  `json:"color"`
}

// Border holds per-side borders plus an all-sides shorthand.
type Border struct {
	Top    *BorderSide `json:"top,omitempty"`
	Right  *BorderSide `json:"right,omitempty"`
	Bottom *BorderSide `json:"bottom,omitempty"`
	Left   *BorderSide `json:"left,omitempty"`
	Width  *float64    `json:"width,omitempty"`
	Style  string      `json:"style,omitempty"`
	Color  string      `json:"color,omitempty"`
}

type BoxShadow struct {
	Enabled bool    `json:"enabled"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Spread  float64 `json:"spread"`
	Color   string  `json:"color"`
}

type TextShadow struct {
	Enabled bool    `json:"enabled"`
	OffsetX float64 `json:"offsetX"`
	OffsetY float64 `json:"offsetY"`
	Blur    float64 `json:"blur"`
	Color   string  `json:"color"`
}

// Insets is either a single value for every side or a per-side block.
// It encodes as a bare number when only All is set.
type Insets struct {
	All    *float64 `json:"-"`
	Top    *float64 `json:"top,omitempty"`
	Right  *float64 `json:"right,omitempty"`
	Bottom *float64 `json:"bottom,omitempty"`
	Left   *float64 `json:"left,omitempty"`
}

// Uniform returns insets with the same value on every side.
func Uniform(v float64) *Insets {
	return &Insets{All: Float64(v)}
}

func (i Insets) MarshalJSON() ([]byte, error) {
	if i.All != nil {
		return json.Marshal(*i.All)
	}
	type sides Insets
	return json.Marshal(sides(i))
}

func (i *Insets) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*i = Insets{All: &v}
		return nil
	}
	type sides Insets
	var s sides
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*i = Insets(s)
	return nil
}

// Corners is a border radius: one value or a per-corner block.
type Corners struct {
	All         *float64 `json:"all,omitempty"`
	TopLeft     *float64 `json:"topLeft,omitempty"`
	TopRight    *float64 `json:"topRight,omitempty"`
	BottomRight *float64 `json:"bottomRight,omitempty"`
	BottomLeft  *float64 `json:"bottomLeft,omitempty"`
}

func (c Corners) MarshalJSON() ([]byte, error) {
	if c.All != nil && c.TopLeft == nil && c.TopRight == nil && c.BottomRight == nil && c.BottomLeft == nil {
		return json.Marshal(*c.All)
	}
	type corners Corners
	return json.Marshal(corners(c))
}

func (c *Corners) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] != '{' {
		var v float64
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*c = Corners{All: &v}
		return nil
	}
	type corners Corners
	var decoded corners
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = Corners(decoded)
	return nil
}

// Normalize clamps opacity into [0,1] and gradient offsets into [0,100].
func (s *ElementStyle) Normalize() {
	if s.Opacity != nil {
		v := clamp(*s.Opacity, 0, 1)
		s.Opacity = &v
	}
	if s.Gradient != nil {
		for i := range s.Gradient.Stops {
			s.Gradient.Stops[i].Normalize()
		}
	}
}

// Normalize clamps the stop offset and opacity into range.
func (g *GradientStop) Normalize() {
	g.Offset = clamp(g.Offset, 0, 100)
	if g.Opacity != nil {
		v := clamp(*g.Opacity, 0, 1)
		g.Opacity = &v
	}
}

// Clone returns a deep copy of the style.
func (s ElementStyle) Clone() ElementStyle {
	out := s
	out.FontSize = cloneFloat(s.FontSize)
	out.LineHeight = cloneFloat(s.LineHeight)
	out.LetterSpacing = cloneFloat(s.LetterSpacing)
	out.BorderWidth = cloneFloat(s.BorderWidth)
	out.Opacity = cloneFloat(s.Opacity)
	out.StrokeWidth = cloneFloat(s.StrokeWidth)
	if s.Gradient != nil {
		g := s.Gradient.Clone()
		out.Gradient = &g
	}
	if s.Border != nil {
		b := *s.Border
		b.Top = cloneSide(s.Border.Top)
		b.Right = cloneSide(s.Border.Right)
		b.Bottom = cloneSide(s.Border.Bottom)
		b.Left = cloneSide(s.Border.Left)
		b.Width = cloneFloat(s.Border.Width)
		out.Border = &b
	}
	if s.BorderRadius != nil {
		out.BorderRadius = &Corners{
			All:         cloneFloat(s.BorderRadius.All),
			TopLeft:     cloneFloat(s.BorderRadius.TopLeft),
			TopRight:    cloneFloat(s.BorderRadius.TopRight),
			BottomRight: cloneFloat(s.BorderRadius.BottomRight),
			BottomLeft:  cloneFloat(s.BorderRadius.BottomLeft),
		}
	}
	if s.BoxShadow != nil {
		bs := *s.BoxShadow
		out.BoxShadow = &bs
	}
	if s.TextShadow != nil {
		ts := *s.TextShadow
		out.TextShadow = &ts
	}
	if s.Padding != nil {
		out.Padding = &Insets{
			All:    cloneFloat(s.Padding.All),
			Top:    cloneFloat(s.Padding.Top),
			Right:  cloneFloat(s.Padding.Right),
			Bottom: cloneFloat(s.Padding.Bottom),
			Left:   cloneFloat(s.Padding.Left),
		}
	}
	return out
}

// Clone returns a deep copy of the gradient.
func (g Gradient) Clone() Gradient {
	out := g
	out.Angle = cloneFloat(g.Angle)
	if g.Stops != nil {
		out.Stops = make([]GradientStop, len(g.Stops))
		for i, st := range g.Stops {
			st.Opacity = cloneFloat(st.Opacity)
			out.Stops[i] = st
		}
	}
	return out
}

func cloneSide(s *BorderSide) *BorderSide {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
