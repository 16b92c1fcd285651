package entity

// TransportMode selects how the router client moves file contents.
type TransportMode int

const (
	TransportUnknown TransportMode = iota
	TransportEncoded
	TransportShell
)

func (m TransportMode) String() string {
	switch m {
	case TransportEncoded:
		return "encoded"
	case TransportShell:
		return "shell"
	default:
		return "unknown"
	}
}
