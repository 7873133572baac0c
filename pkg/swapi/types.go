package swapi

// Planet is the canonical form of one planet record. Scalar fields hold the
// upstream value verbatim, or "" when the upstream reported a sentinel
// ("unknown" or "0") meaning the value is not actually known.
type Planet struct {
	SourceID       int
	Name           string
	Diameter       string
	RotationPeriod string
	OrbitalPeriod  string
	Population     string
}

// Character is the canonical form of one character record.
type Character struct {
	SourceID  int
	Name      string
	Homeworld int // source-side planet id; 0 means the record had none

	// Planet is the target-store planet id once RemapHomeworlds has run.
	// Unresolved references degrade to "" rather than failing the run.
	Planet interface{}

	// Image1920 is the base64 portrait payload, empty when none is available.
	Image1920 string
}

// Logger is the minimal logging surface the fetch and normalize code needs.
// logrus satisfies it; tests substitute a recording implementation.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}
