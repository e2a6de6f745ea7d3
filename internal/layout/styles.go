package layout

import "strconv"

// Styles returns the CSS properties that place a region container.
// The anchored edges are pinned to 0px; a centered region is offset by
// half its width.
func Styles(p Position, width Size) map[string]string {
	styles := map[string]string{
		"width": width.String(),
	}
	if p.Y != "" {
		styles[string(p.Y)] = "0px"
	}
	switch p.X {
	case "":
	case Center:
		half := strconv.FormatFloat(width.Value/2, 'f', -1, 64)
		styles["left"] = "calc(50% - " + half + string(width.Unit) + ")"
	default:
		styles[string(p.X)] = "0px"
	}
	return styles
}
