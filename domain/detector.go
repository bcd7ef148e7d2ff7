package domain

import (
	"regexp"
	"strconv"
	"strings"
)

// Gradle accepts several equivalent spellings for the same declaration:
//
//	sourceCompatibility = 17
//	sourceCompatibility = '17'
//	sourceCompatibility = "1.8"
//	sourceCompatibility = JavaVersion.VERSION_17
//	sourceCompatibility = JavaVersion.VERSION_1_8
//
// All of them normalize to one plain integer.
var (
	namedConstantPattern = regexp.MustCompile(`\bsourceCompatibility\s*=\s*JavaVersion\.VERSION_(\d+(?:_\d+)?)`)
	numericPattern       = regexp.MustCompile(`\bsourceCompatibility\s*=\s*['"]?(\d+(?:\.\d+)?)['"]?`)
)

// DetectJavaVersion extracts the declared Java source-compatibility level
// from build descriptor text. The first declaration found top-to-bottom
// wins; a declaration in an unrecognized form yields ErrVersionNotDetected
// rather than a guess. The input is not assumed to be well-formed Gradle.
func DetectJavaVersion(descriptor string) (int, error) {
	named := namedConstantPattern.FindStringSubmatchIndex(descriptor)
	numeric := numericPattern.FindStringSubmatchIndex(descriptor)

	// Pick whichever declaration appears first. The numeric pattern cannot
	// match a named constant (the value would start with "JavaVersion"), so
	// overlapping matches always share the same start offset and the named
	// form takes precedence there.
	switch {
	case named != nil && (numeric == nil || named[0] <= numeric[0]):
		raw := descriptor[named[2]:named[3]]
		return normalizeConstant(raw)
	case numeric != nil:
		raw := descriptor[numeric[2]:numeric[3]]
		return normalizeNumeric(raw)
	default:
		return 0, ErrVersionNotDetected
	}
}

// normalizeConstant maps a JavaVersion enum suffix to its integer level:
// "17" -> 17, "1_8" -> 8.
func normalizeConstant(suffix string) (int, error) {
	if rest, ok := strings.CutPrefix(suffix, "1_"); ok {
		return parseLevel(rest)
	}
	return parseLevel(suffix)
}

// normalizeNumeric maps a literal or quoted version to its integer level:
// "17" -> 17, "1.8" -> 8. Other dotted forms are not a recognized level.
func normalizeNumeric(value string) (int, error) {
	if rest, ok := strings.CutPrefix(value, "1."); ok {
		return parseLevel(rest)
	}
	if strings.Contains(value, ".") {
		return 0, ErrVersionNotDetected
	}
	return parseLevel(value)
}

func parseLevel(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil || v <= 0 {
		return 0, ErrVersionNotDetected
	}
	return v, nil
}
