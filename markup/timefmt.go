package markup

import (
	"strconv"
	"strings"
	"time"
)

var weekdays = [...]string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

// FormatTime expands the conversions %s %Y %m %d %H %I %p %M %S %a %b and %%
// in format for epoch, in UTC. Unknown conversions and a trailing '%' are
// copied unchanged.
func FormatTime(format string, epoch int64) string {
	t := time.Unix(epoch, 0).UTC()
	var sb strings.Builder
	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' || i+1 >= len(format) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch format[i] {
		case '%':
			sb.WriteByte('%')
		case 's':
			sb.WriteString(strconv.FormatInt(epoch, 10))
		case 'Y':
			sb.WriteString(pad(t.Year(), 4))
		case 'm':
			sb.WriteString(pad(int(t.Month()), 2))
		case 'd':
			sb.WriteString(pad(t.Day(), 2))
		case 'H':
			sb.WriteString(pad(t.Hour(), 2))
		case 'I':
			h := t.Hour() % 12
			if h == 0 {
				h = 12
			}
			sb.WriteString(pad(h, 2))
		case 'p':
			if t.Hour() < 12 {
				sb.WriteString("AM")
			} else {
				sb.WriteString("PM")
			}
		case 'M':
			sb.WriteString(pad(t.Minute(), 2))
		case 'S':
			sb.WriteString(pad(t.Second(), 2))
		case 'a':
			sb.WriteString(weekdays[(int(t.Weekday())+6)%7])
		case 'b':
			sb.WriteString(t.Month().String()[:3])
		default:
			sb.WriteByte('%')
			sb.WriteByte(format[i])
		}
	}
	return sb.String()
}

// pad zero-pads v to width digits, after the sign.
func pad(v, width int) string {
	if v < 0 {
		return "-" + pad(-v, width)
	}
	s := strconv.Itoa(v)
	for len(s) < width {
		s = "0" + s
	}
	return s
}
