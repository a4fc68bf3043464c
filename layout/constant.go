package layout

// Constant occupies no bytes and always decodes to a fixed value. Unions use
// it for default or padding slots whose value is implied rather than stored.
type Constant struct {
	base
	value any
}

// NewConstant creates a zero-span layout that decodes to value.
func NewConstant(value any, property string) *Constant {
	return &Constant{base: base{property: property}, value: value}
}

func (c *Constant) Value() any {
	return c.value
}

func (c *Constant) WithProperty(property string) Layout {
	cp := *c
	cp.property = property
	return &cp
}

func (c *Constant) GetSpan([]byte, int) (int, error) {
	return 0, nil
}

func (c *Constant) Decode([]byte, int) (any, error) {
	return c.value, nil
}

func (c *Constant) Encode(any, []byte, int) (int, error) {
	return 0, nil
}
