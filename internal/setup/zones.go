package setup

// Zone is a named position the location branch of the wizard can select,
// standing in for the host platform's zone registry.
type Zone struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Reserved zone selectors for the location branch.
const (
	ZoneHome   = "home"
	ZoneManual = "manual"
)

// DefaultManualName is used when a manual location has no name.
const DefaultManualName = "自定义位置"
