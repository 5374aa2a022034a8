package pdf

import (
	"strconv"
	"strings"
)

type rgb struct {
	R, G, B int
	A       float64
}

var namedColors = map[string]rgb{
	"black":  {0, 0, 0, 1},
	"white":  {255, 255, 255, 1},
	"red":    {255, 0, 0, 1},
	"green":  {0, 128, 0, 1},
	"blue":   {0, 0, 255, 1},
	"gray":   {128, 128, 128, 1},
	"grey":   {128, 128, 128, 1},
	"yellow": {255, 255, 0, 1},
	"orange": {255, 165, 0, 1},
}

// parseColor understands #rgb, #rrggbb, #rrggbbaa, rgb(), rgba() and a few
// names. ok is false for empty, "transparent" and unparseable values.
func parseColor(s string) (rgb, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" || s == "transparent" || s == "none" {
		return rgb{}, false
	}
	if c, ok := namedColors[s]; ok {
		return c, true
	}
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if strings.HasPrefix(s, "rgb") {
		open := strings.IndexByte(s, '(')
		end := strings.IndexByte(s, ')')
		if open < 0 || end < open {
			return rgb{}, false
		}
		parts := strings.Split(s[open+1:end], ",")
		if len(parts) < 3 {
			return rgb{}, false
		}
		c := rgb{A: 1}
		ch := []*int{&c.R, &c.G, &c.B}
		for i := 0; i < 3; i++ {
			v, err := strconv.Atoi(strings.TrimSpace(parts[i]))
			if err != nil {
				return rgb{}, false
			}
			*ch[i] = clampByte(v)
		}
		if len(parts) > 3 {
			a, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
			if err != nil {
				return rgb{}, false
			}
			c.A = clampUnit(a)
		}
		return c, c.A > 0
	}
	return rgb{}, false
}

func parseHex(h string) (rgb, bool) {
	if len(h) == 3 {
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	}
	if len(h) != 6 && len(h) != 8 {
		return rgb{}, false
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return rgb{}, false
	}
	c := rgb{A: 1}
	if len(h) == 8 {
		c.A = float64(v&0xff) / 255
		v >>= 8
	}
	c.R = int(v >> 16 & 0xff)
	c.G = int(v >> 8 & 0xff)
	c.B = int(v & 0xff)
	return c, c.A > 0
}

func clampByte(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
