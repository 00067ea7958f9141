package markup

// optional holds a value that may be unset.
type optional[T any] struct {
	v  T
	ok bool
}

func (o *optional[T]) set(v T) {
	o.v, o.ok = v, true
}

// prevValues records, per cursor field, the value it had right before its
// last change. Only one level is kept.
type prevValues struct {
	color          optional[uint16]
	size           optional[int]
	x, y           optional[int]
	hspace, vspace optional[float64]
}

// cursor is the interpreter's drawing position and style.
type cursor struct {
	startX, startY int
	x, y           int
	size           int
	color          uint16
	hspace, vspace float64

	prev prevValues
}

// field gives uniform access to one settable cursor field.
type field struct {
	parse   func(r *render, val string) bool // Sets the field; false on a bad value
	restore func(c *cursor) bool             // Restores the previous value; false if none
}

func setField[T any](cur *T, prev *optional[T], v T) {
	prev.set(*cur)
	*cur = v
}

func restoreField[T any](cur *T, prev *optional[T]) bool {
	if !prev.ok {
		return false
	}
	*cur = prev.v
	return true
}

var fields = map[string]field{
	"color": {
		parse: func(r *render, val string) bool {
			c, ok := r.color(val)
			if ok {
				setField(&r.cur.color, &r.cur.prev.color, c)
			}
			return ok
		},
		restore: func(c *cursor) bool { return restoreField(&c.color, &c.prev.color) },
	},
	"size": {
		parse: func(r *render, val string) bool {
			v, ok := parseInt(val)
			if ok && v > 0 {
				setField(&r.cur.size, &r.cur.prev.size, v)
			}
			return ok && v > 0
		},
		restore: func(c *cursor) bool { return restoreField(&c.size, &c.prev.size) },
	},
	"x": {
		parse: func(r *render, val string) bool {
			v, ok := parseInt(val)
			if ok {
				setField(&r.cur.x, &r.cur.prev.x, v)
			}
			return ok
		},
		restore: func(c *cursor) bool { return restoreField(&c.x, &c.prev.x) },
	},
	"y": {
		parse: func(r *render, val string) bool {
			v, ok := parseInt(val)
			if ok {
				setField(&r.cur.y, &r.cur.prev.y, v)
			}
			return ok
		},
		restore: func(c *cursor) bool { return restoreField(&c.y, &c.prev.y) },
	},
	"hspace": {
		parse: func(r *render, val string) bool {
			v, ok := parseSpacing(val)
			if ok {
				setField(&r.cur.hspace, &r.cur.prev.hspace, v)
			}
			return ok
		},
		restore: func(c *cursor) bool { return restoreField(&c.hspace, &c.prev.hspace) },
	},
	"vspace": {
		parse: func(r *render, val string) bool {
			v, ok := parseSpacing(val)
			if ok {
				setField(&r.cur.vspace, &r.cur.prev.vspace, v)
			}
			return ok
		},
		restore: func(c *cursor) bool { return restoreField(&c.vspace, &c.prev.vspace) },
	},
}
