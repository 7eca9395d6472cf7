package battery

// DisplayMode selects when the battery icon is drawn.
type DisplayMode int

const (
	Hide DisplayMode = iota
	Always
	LowOnly
)

// LowPercent is the level below which LowOnly shows the icon.
const LowPercent = 20

// Indicator returns the CSS class of the battery icon for a level in
// percent. Hidden icons use "batteryHide".
func Indicator(mode DisplayMode, percent float64) string {
	switch mode {
	case Always:
		switch {
		case percent >= 80:
			return "battery80"
		case percent >= 60:
			return "battery60"
		case percent >= 40:
			return "battery40"
		case percent >= LowPercent:
			return "battery20"
		default:
			return "battery0"
		}
	case LowOnly:
		if percent < LowPercent {
			return "battery0"
		}
	}
	return "batteryHide"
}
