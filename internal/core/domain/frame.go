package domain

// Instance is a single row of prediction input, keyed by field name.
type Instance map[string]any

// Frame is a column-oriented prediction payload. Column order is significant:
// it mirrors the prototype field order when a prototype exists, so predictors
// can rely on positional access.
type Frame struct {
	Columns []string
	values  [][]any
}

func NewFrame(columns []string) *Frame {
	cols := make([]string, len(columns))
	copy(cols, columns)
	return &Frame{
		Columns: cols,
		values:  make([][]any, len(cols)),
	}
}

// AppendRow adds one instance to the frame. Fields absent from the instance
// append nil; fields outside Columns are ignored.
func (f *Frame) AppendRow(row Instance) {
	for i, col := range f.Columns {
		f.values[i] = append(f.values[i], row[col])
	}
}

// Column returns the values of a named column, or nil if the column is
// unknown.
func (f *Frame) Column(name string) []any {
	for i, col := range f.Columns {
		if col == name {
			return f.values[i]
		}
	}
	return nil
}

// ColumnAt returns the values at a column position.
func (f *Frame) ColumnAt(i int) []any {
	return f.values[i]
}

// Len reports the number of rows.
func (f *Frame) Len() int {
	if len(f.values) == 0 {
		return 0
	}
	return len(f.values[0])
}

// Row reconstructs a single row as an instance.
func (f *Frame) Row(i int) Instance {
	row := make(Instance, len(f.Columns))
	for c, col := range f.Columns {
		row[col] = f.values[c][i]
	}
	return row
}
