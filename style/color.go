package style

import (
	"fmt"
	"strconv"
	"strings"
)

// namedColors covers the handful of keywords that show up in scraped markup
// often enough to matter. Everything else falls through as unrecognized.
var namedColors = map[string]string{
	"black":   "#000000",
	"white":   "#ffffff",
	"red":     "#ff0000",
	"green":   "#008000",
	"blue":    "#0000ff",
	"yellow":  "#ffff00",
	"orange":  "#ffa500",
	"purple":  "#800080",
	"gray":    "#808080",
	"grey":    "#808080",
	"silver":  "#c0c0c0",
	"maroon":  "#800000",
	"navy":    "#000080",
	"teal":    "#008080",
	"olive":   "#808000",
	"lime":    "#00ff00",
	"aqua":    "#00ffff",
	"cyan":    "#00ffff",
	"fuchsia": "#ff00ff",
	"magenta": "#ff00ff",
}

// NormalizeColor converts any rgb()/rgba()/hex/named color to a 6-digit hex
// string. Values that are transparent (keyword or zero alpha) report ok=false
// and are treated as unset by callers.
func NormalizeColor(raw string) (string, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == "transparent" || v == "inherit" || v == "initial" || v == "currentcolor" {
		return "", false
	}

	if hex, ok := namedColors[v]; ok {
		return hex, true
	}

	if strings.HasPrefix(v, "#") {
		return normalizeHex(v)
	}

	if strings.HasPrefix(v, "rgb") {
		return normalizeRGB(v)
	}

	return "", false
}

// normalizeHex expands #rgb/#rgba and validates #rrggbb/#rrggbbaa.
func normalizeHex(v string) (string, bool) {
	h := v[1:]
	switch len(h) {
	case 3, 4:
		if len(h) == 4 && h[3] == '0' {
			// fully transparent
			return "", false
		}
		var sb strings.Builder
		sb.WriteByte('#')
		for i := 0; i < 3; i++ {
			sb.WriteByte(h[i])
			sb.WriteByte(h[i])
		}
		v = sb.String()
	case 6:
		v = "#" + h
	case 8:
		if h[6] == '0' && h[7] == '0' {
			return "", false
		}
		v = "#" + h[:6]
	default:
		return "", false
	}
	for _, r := range v[1:] {
		if !strings.ContainsRune("0123456789abcdef", r) {
			return "", false
		}
	}
	return v, true
}

// normalizeRGB converts rgb(r, g, b) and rgba(r, g, b, a) notations.
func normalizeRGB(v string) (string, bool) {
	open := strings.Index(v, "(")
	close := strings.LastIndex(v, ")")
	if open < 0 || close <= open {
		return "", false
	}
	inner := v[open+1 : close]
	// tolerate both comma and space separated syntax, including "r g b / a"
	inner = strings.ReplaceAll(inner, "/", " ")
	inner = strings.ReplaceAll(inner, ",", " ")
	parts := strings.Fields(inner)
	if len(parts) < 3 {
		return "", false
	}

	var ch [3]int
	for i := 0; i < 3; i++ {
		n, err := parseColorChannel(parts[i])
		if err != nil {
			return "", false
		}
		ch[i] = n
	}

	if len(parts) >= 4 {
		alpha, err := strconv.ParseFloat(strings.TrimSuffix(parts[3], "%"), 64)
		if err == nil {
			if strings.HasSuffix(parts[3], "%") {
				alpha /= 100
			}
			if alpha <= 0.01 {
				return "", false
			}
		}
	}

	return fmt.Sprintf("#%02x%02x%02x", ch[0], ch[1], ch[2]), true
}

func parseColorChannel(s string) (int, error) {
	if strings.HasSuffix(s, "%") {
		p, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
		if err != nil {
			return 0, err
		}
		return clampChannel(int(p * 255 / 100)), nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return clampChannel(int(f)), nil
}

func clampChannel(n int) int {
	if n < 0 {
		return 0
	}
	if n > 255 {
		return 255
	}
	return n
}
