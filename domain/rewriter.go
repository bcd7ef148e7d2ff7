package domain

import (
	"regexp"
	"strings"
)

// ImagePlaceholder is the designated substitution point in a master
// template. A CI config that still carries it (a template committed
// verbatim) is rewritten at the placeholder instead of at an image line.
const ImagePlaceholder = "{{JAVA_DOCKER_IMAGE}}"

// imageLinePattern locates the first image reference of a CircleCI config,
// e.g. "      - image: circleci/openjdk:17-buster-node-browsers-legacy".
// Group 2 is the span that gets replaced; indentation, the key itself, and
// any trailing comment are preserved byte-for-byte.
var imageLinePattern = regexp.MustCompile(`(?m)^([ \t]*-?[ \t]*image:[ \t]*)(\S+)`)

// RewriteImage returns content with only the designated image reference
// replaced by image. Every byte outside that span is preserved, which makes
// the operation idempotent: rewriting already-correct content returns input
// unchanged, and the caller detects the "unchanged" outcome by comparing
// output to input rather than consulting the version-control diff.
func RewriteImage(content, image string) (string, error) {
	if strings.Contains(content, ImagePlaceholder) {
		return strings.ReplaceAll(content, ImagePlaceholder, image), nil
	}

	loc := imageLinePattern.FindStringSubmatchIndex(content)
	if loc == nil {
		return "", ErrRewriteTargetMissing
	}

	start, end := loc[4], loc[5]
	if content[start:end] == image {
		return content, nil
	}
	return content[:start] + image + content[end:], nil
}
