package domain

// TableCell is one cell of a table grid.
type TableCell struct {
	Content string        `json:"content"`
	Style   *ElementStyle `json:"style,omitempty"`
	ColSpan int           `json:"colSpan,omitempty"`
	RowSpan int           `json:"rowSpan,omitempty"`
}

// TableData is a row-major grid. Cells always has Rows rows of Cols cells.
type TableData struct {
	Rows                 int           `json:"rows"`
	Cols                 int           `json:"cols"`
	Cells                [][]TableCell `json:"cells"`
	HeaderRow            bool          `json:"headerRow,omitempty"`
	AlternatingRowColors bool          `json:"alternatingRowColors,omitempty"`
	AlternatingColor     string        `json:"alternatingColor,omitempty"`
	ColumnWidths         []float64     `json:"columnWidths,omitempty"`
	RowHeights           []float64     `json:"rowHeights,omitempty"`
}

// NewTableData returns an empty rows x cols grid.
func NewTableData(rows, cols int) TableData {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	cells := make([][]TableCell, rows)
	for r := range cells {
		cells[r] = newRow(cols)
	}
	return TableData{Rows: rows, Cols: cols, Cells: cells}
}

func newRow(cols int) []TableCell {
	row := make([]TableCell, cols)
	for c := range row {
		row[c] = TableCell{Style: &ElementStyle{}}
	}
	return row
}

// Consistent reports whether the cell grid matches Rows x Cols.
func (t TableData) Consistent() bool {
	if len(t.Cells) != t.Rows {
		return false
	}
	for _, row := range t.Cells {
		if len(row) != t.Cols {
			return false
		}
	}
	return true
}

// Resize returns a copy of the table with the new dimensions.
// Cells inside the overlap keep their content; new cells are empty and
// cells outside the new bounds are truncated. Dimensions below one are
// raised to one.
func (t TableData) Resize(rows, cols int) TableData {
	out := NewTableData(rows, cols)
	out.HeaderRow = t.HeaderRow
	out.AlternatingRowColors = t.AlternatingRowColors
	out.AlternatingColor = t.AlternatingColor
	for r := 0; r < out.Rows && r < len(t.Cells); r++ {
		for c := 0; c < out.Cols && c < len(t.Cells[r]); c++ {
			out.Cells[r][c] = t.Cells[r][c].clone()
		}
	}
	out.ColumnWidths = resizeFloats(t.ColumnWidths, out.Cols)
	out.RowHeights = resizeFloats(t.RowHeights, out.Rows)
	return out
}

// Clone returns a deep copy of the table.
func (t TableData) Clone() TableData {
	out := t
	if t.Cells != nil {
		out.Cells = make([][]TableCell, len(t.Cells))
		for r, row := range t.Cells {
			if row == nil {
				continue
			}
			out.Cells[r] = make([]TableCell, len(row))
			for c, cell := range row {
				out.Cells[r][c] = cell.clone()
			}
		}
	}
	if t.ColumnWidths != nil {
		out.ColumnWidths = append([]float64{}, t.ColumnWidths...)
	}
	if t.RowHeights != nil {
		out.RowHeights = append([]float64{}, t.RowHeights...)
	}
	return out
}

func (c TableCell) clone() TableCell {
	out := c
	if c.Style != nil {
		s := c.Style.Clone()
		out.Style = &s
	}
	return out
}

// resizeFloats keeps sizing hints aligned with the grid. A nil slice
// stays nil; new slots inherit the last known value.
func resizeFloats(v []float64, n int) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, n)
	copy(out, v)
	for i := len(v); i < n && len(v) > 0; i++ {
		out[i] = v[len(v)-1]
	}
	return out
}
