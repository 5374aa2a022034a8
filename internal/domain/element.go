package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// ElementType is the closed set of placeable element kinds.
type ElementType string

const (
	ElementText         ElementType = "text"
	ElementHeader       ElementType = "header"
	ElementFooter       ElementType = "footer"
	ElementImage        ElementType = "image"
	ElementTable        ElementType = "table"
	ElementShape        ElementType = "shape"
	ElementDivider      ElementType = "divider"
	ElementSignature    ElementType = "signature"
	ElementDynamicField ElementType = "dynamic-field"
	ElementList         ElementType = "list"
	ElementIcon         ElementType = "icon"
	ElementBarcode      ElementType = "barcode"
	ElementPageNumber   ElementType = "page-number"
	ElementWatermark    ElementType = "watermark"
	ElementDate         ElementType = "date"

	ElementFormText      ElementType = "form-text"
	ElementFormCheckbox  ElementType = "form-checkbox"
	ElementFormRadio     ElementType = "form-radio"
	ElementFormDropdown  ElementType = "form-dropdown"
	ElementFormSignature ElementType = "form-signature"

	ElementAnnotationComment   ElementType = "annotation-comment"
	ElementAnnotationNote      ElementType = "annotation-note"
	ElementAnnotationStamp     ElementType = "annotation-stamp"
	ElementAnnotationHighlight ElementType = "annotation-highlight"

	ElementDrawing ElementType = "drawing"
)

// ElementTypes lists every known element type in palette order.
var ElementTypes = []ElementType{
	ElementText, ElementHeader, ElementFooter, ElementImage, ElementTable,
	ElementShape, ElementDivider, ElementSignature, ElementDynamicField,
	ElementList, ElementIcon, ElementBarcode, ElementPageNumber,
	ElementWatermark, ElementDate,
	ElementFormText, ElementFormCheckbox, ElementFormRadio, ElementFormDropdown,
	ElementFormSignature,
	ElementAnnotationComment, ElementAnnotationNote, ElementAnnotationStamp,
	ElementAnnotationHighlight,
	ElementDrawing,
}

// IsValid reports whether t is one of the known element types.
func (t ElementType) IsValid() bool {
	for _, known := range ElementTypes {
		if t == known {
			return true
		}
	}
	return false
}

// IsForm reports whether t is one of the form-* variants.
func (t ElementType) IsForm() bool {
	return strings.HasPrefix(string(t), "form-")
}

// IsAnnotation reports whether t is one of the annotation-* variants.
func (t ElementType) IsAnnotation() bool {
	return strings.HasPrefix(string(t), "annotation-")
}

// Position is a point in document space (points at 72 DPI).
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size is a width/height pair in document space.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ImageFilters holds CSS-like filter values for image elements.
type ImageFilters struct {
	Brightness float64 `json:"brightness"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Blur       float64 `json:"blur"`
	Grayscale  float64 `json:"grayscale"`
	Sepia      float64 `json:"sepia"`
	HueRotate  float64 `json:"hueRotate"`
}

// DefaultImageFilters returns the neutral filter set.
func DefaultImageFilters() ImageFilters {
	return ImageFilters{Brightness: 100, Contrast: 100, Saturation: 100}
}

// FormField describes the interactive field carried by form-* elements.
type FormField struct {
	FieldType    string   `json:"fieldType"`
	Name         string   `json:"name,omitempty"`
	Placeholder  string   `json:"placeholder,omitempty"`
	Required     bool     `json:"required"`
	Options      []string `json:"options,omitempty"`
	DefaultValue string   `json:"defaultValue,omitempty"`
}

// Annotation is the review metadata carried by annotation-* elements.
type Annotation struct {
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	Status    string    `json:"status"`
	StampType string    `json:"stampType,omitempty"`
	Color     string    `json:"color,omitempty"`
}

// Point is a single sample of a freehand stroke.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// DrawingPath is one captured freehand stroke.
type DrawingPath struct {
	ID     string  `json:"id"`
	Tool   string  `json:"tool"`
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Points []Point `json:"points"`
}

// DocumentElement is the atomic placeable unit of a template.
// Position and Size are pointers so that a missing value can be told
// apart from the origin during validation.
type DocumentElement struct {
	ID       string       `json:"id"`
	Type     ElementType  `json:"type"`
	Position *Position    `json:"position,omitempty"`
	Size     *Size        `json:"size,omitempty"`
	Style    ElementStyle `json:"style"`

	Content string `json:"content,omitempty"`

	ImageURL       string        `json:"imageUrl,omitempty"`
	ObjectFit      string        `json:"objectFit,omitempty"`
	ImageFilters   *ImageFilters `json:"imageFilters,omitempty"`
	FlipHorizontal bool          `json:"flipHorizontal,omitempty"`
	FlipVertical   bool          `json:"flipVertical,omitempty"`

	TableData *TableData `json:"tableData,omitempty"`

	ShapeType   string `json:"shapeType,omitempty"`
	ShapeFilled *bool  `json:"shapeFilled,omitempty"`

	ListType  string   `json:"listType,omitempty"`
	ListItems []string `json:"listItems,omitempty"`

	IconName string `json:"iconName,omitempty"`

	BarcodeType  string `json:"barcodeType,omitempty"`
	BarcodeValue string `json:"barcodeValue,omitempty"`

	DynamicField string `json:"dynamicField,omitempty"`

	WatermarkOpacity *float64 `json:"watermarkOpacity,omitempty"`
	WatermarkPattern string   `json:"watermarkPattern,omitempty"`

	FormField    *FormField    `json:"formField,omitempty"`
	Annotation   *Annotation   `json:"annotation,omitempty"`
	DrawingPaths []DrawingPath `json:"drawingPaths,omitempty"`

	Rotation float64 `json:"rotation,omitempty"`
	ZIndex   *int    `json:"zIndex,omitempty"`
	Locked   bool    `json:"locked"`
	Visible  bool    `json:"visible"`
	GroupID  string  `json:"groupId,omitempty"`
}

// UnmarshalJSON decodes an element, treating an absent "visible" as true.
func (e *DocumentElement) UnmarshalJSON(data []byte) error {
	type rawElement DocumentElement
	decoded := rawElement{Visible: true}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*e = DocumentElement(decoded)
	return nil
}

// Clone returns a deep copy of the element.
func (e DocumentElement) Clone() DocumentElement {
	out := e
	if e.Position != nil {
		p := *e.Position
		out.Position = &p
	}
	if e.Size != nil {
		s := *e.Size
		out.Size = &s
	}
	out.Style = e.Style.Clone()
	if e.ImageFilters != nil {
		f := *e.ImageFilters
		out.ImageFilters = &f
	}
	if e.TableData != nil {
		td := e.TableData.Clone()
		out.TableData = &td
	}
	out.ShapeFilled = cloneBool(e.ShapeFilled)
	out.ListItems = cloneStrings(e.ListItems)
	out.WatermarkOpacity = cloneFloat(e.WatermarkOpacity)
	if e.FormField != nil {
		ff := *e.FormField
		ff.Options = cloneStrings(e.FormField.Options)
		out.FormField = &ff
	}
	if e.Annotation != nil {
		a := *e.Annotation
		out.Annotation = &a
	}
	if e.DrawingPaths != nil {
		out.DrawingPaths = make([]DrawingPath, len(e.DrawingPaths))
		for i, p := range e.DrawingPaths {
			if p.Points != nil {
				p.Points = append([]Point{}, p.Points...)
			}
			out.DrawingPaths[i] = p
		}
	}
	if e.ZIndex != nil {
		z := *e.ZIndex
		out.ZIndex = &z
	}
	return out
}

// CloneElements deep-copies a slice of elements, keeping nil as nil.
func CloneElements(elements []DocumentElement) []DocumentElement {
	if elements == nil {
		return nil
	}
	out := make([]DocumentElement, len(elements))
	for i, el := range elements {
		out[i] = el.Clone()
	}
	return out
}

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// Float64 returns a pointer to v.
func Float64(v float64) *float64 { return &v }

func cloneBool(v *bool) *bool {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneStrings(v []string) []string {
	if v == nil {
		return nil
	}
	return append([]string{}, v...)
}
