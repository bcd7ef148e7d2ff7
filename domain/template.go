package domain

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// TemplateSet binds the master CI-config template to the container image of
// each template choice. Loading fails fast: a broken template would
// otherwise fail every repository in the run.
type TemplateSet struct {
	master string
	images map[TemplateChoice]string
}

// LoadTemplateSet reads the master template from path and validates it:
// it must parse as YAML and contain the image placeholder exactly once.
func LoadTemplateSet(path string, images map[TemplateChoice]string) (*TemplateSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read template %q: %w", path, err)
	}
	return NewTemplateSet(string(data), images)
}

// NewTemplateSet validates the master template content and image bindings.
func NewTemplateSet(master string, images map[TemplateChoice]string) (*TemplateSet, error) {
	switch n := strings.Count(master, ImagePlaceholder); {
	case n == 0:
		return nil, fmt.Errorf("template does not contain the %s placeholder", ImagePlaceholder)
	case n > 1:
		return nil, fmt.Errorf("template contains the %s placeholder %d times, want exactly one", ImagePlaceholder, n)
	}

	// The raw placeholder is not a YAML scalar, so parse a rendered copy.
	probe := strings.ReplaceAll(master, ImagePlaceholder, "probe/image:0")
	var doc map[string]any
	if err := yaml.Unmarshal([]byte(probe), &doc); err != nil {
		return nil, fmt.Errorf("template is not valid YAML: %w", err)
	}

	for _, choice := range []TemplateChoice{ChoiceLegacy, ChoiceMid, ChoiceModern} {
		if images[choice] == "" {
			return nil, fmt.Errorf("no image configured for the %s template", choice)
		}
	}

	return &TemplateSet{master: master, images: images}, nil
}

// ImageFor returns the container image bound to the given choice.
func (t *TemplateSet) ImageFor(choice TemplateChoice) (string, error) {
	image, ok := t.images[choice]
	if !ok {
		return "", errors.New("unknown template choice: " + string(choice))
	}
	return image, nil
}

// Render produces a complete CI config for the given choice. Used when a
// repository has no CI config yet and the file is created from scratch.
func (t *TemplateSet) Render(choice TemplateChoice) (string, error) {
	image, err := t.ImageFor(choice)
	if err != nil {
		return "", err
	}
	return strings.ReplaceAll(t.master, ImagePlaceholder, image), nil
}
