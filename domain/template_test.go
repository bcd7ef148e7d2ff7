package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devarsh10/javasync/domain"
)

const masterTemplate = `version: 2.1

jobs:
  build:
    docker:
      - image: {{JAVA_DOCKER_IMAGE}}
    steps:
      - checkout
      - run: ./gradlew build
`

func validImages() map[domain.TemplateChoice]string {
	return map[domain.TemplateChoice]string{
		domain.ChoiceLegacy: "circleci/openjdk:11-buster-node-browsers-legacy",
		domain.ChoiceMid:    "circleci/openjdk:13.0-buster-node-browsers-legacy",
		domain.ChoiceModern: "circleci/openjdk:17-buster-node-browsers-legacy",
	}
}

func TestNewTemplateSet(t *testing.T) {
	t.Parallel()

	t.Run("should accept a valid master template", func(t *testing.T) {
		t.Parallel()

		// given
		master := masterTemplate

		// when
		set, err := domain.NewTemplateSet(master, validImages())

		// then
		require.NoError(t, err)
		assert.NotNil(t, set)
	})

	t.Run("should reject a template without the placeholder", func(t *testing.T) {
		t.Parallel()

		// given
		master := "version: 2.1\njobs: {}\n"

		// when
		_, err := domain.NewTemplateSet(master, validImages())

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "placeholder")
	})

	t.Run("should reject a template with two placeholders", func(t *testing.T) {
		t.Parallel()

		// given
		master := masterTemplate + "      - image: {{JAVA_DOCKER_IMAGE}}\n"

		// when
		_, err := domain.NewTemplateSet(master, validImages())

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "exactly one")
	})

	t.Run("should reject a template that is not YAML", func(t *testing.T) {
		t.Parallel()

		// given
		master := "jobs:\n\t- image: {{JAVA_DOCKER_IMAGE}}\n: :\n"

		// when
		_, err := domain.NewTemplateSet(master, validImages())

		// then
		require.Error(t, err)
	})

	t.Run("should reject a missing image binding", func(t *testing.T) {
		t.Parallel()

		// given
		images := validImages()
		delete(images, domain.ChoiceLegacy)

		// when
		_, err := domain.NewTemplateSet(masterTemplate, images)

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "legacy")
	})
}

func TestTemplateSet_Render(t *testing.T) {
	t.Parallel()

	t.Run("should substitute the placeholder with the bound image", func(t *testing.T) {
		t.Parallel()

		// given
		set, err := domain.NewTemplateSet(masterTemplate, validImages())
		require.NoError(t, err)

		// when
		rendered, renderErr := set.Render(domain.ChoiceModern)

		// then
		require.NoError(t, renderErr)
		assert.Contains(t, rendered, "- image: circleci/openjdk:17-buster-node-browsers-legacy")
		assert.NotContains(t, rendered, domain.ImagePlaceholder)
	})
}
