package domain

// Version boundaries for the template choices. Java 8 is the oldest level
// with a published build image; anything older cannot be built at all.
const (
	minSupportedVersion = 8
	midVersionFloor     = 13
	modernVersionFloor  = 17
)

// SelectTemplate maps a normalized Java version to the template choice for
// its build image. Deterministic, no I/O.
//
//	>= 17  -> modern
//	13..16 -> mid
//	8..12  -> legacy
//	< 8    -> ErrUnsupportedVersion
func SelectTemplate(javaVersion int) (TemplateChoice, error) {
	switch {
	case javaVersion >= modernVersionFloor:
		return ChoiceModern, nil
	case javaVersion >= midVersionFloor:
		return ChoiceMid, nil
	case javaVersion >= minSupportedVersion:
		return ChoiceLegacy, nil
	default:
		return "", ErrUnsupportedVersion
	}
}
