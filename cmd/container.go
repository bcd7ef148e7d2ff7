package cmd

import (
	"fmt"

	"go.uber.org/dig"

	"github.com/devarsh10/javasync/application"
	"github.com/devarsh10/javasync/config"
	"github.com/devarsh10/javasync/domain"
	"github.com/devarsh10/javasync/infrastructure/github"
	"github.com/devarsh10/javasync/infrastructure/gitrepo"
)

// buildService wires the update service and its collaborators through DIG.
func buildService(cfg *config.Config) (*application.UpdateService, error) {
	container := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		newTemplateSet,
		newSyncer,
		newPublisher,
		newBranchResolver,
		application.NewUpdateService,
	}
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return nil, fmt.Errorf("failed to register provider: %w", err)
		}
	}

	var service *application.UpdateService
	if err := container.Invoke(func(s *application.UpdateService) {
		service = s
	}); err != nil {
		return nil, fmt.Errorf("failed to build update service: %w", err)
	}
	return service, nil
}

func newTemplateSet(cfg *config.Config) (*domain.TemplateSet, error) {
	return domain.LoadTemplateSet(cfg.Template, cfg.ImageBindings())
}

func newSyncer(cfg *config.Config) domain.Syncer {
	return gitrepo.NewSyncer(gitOptions(cfg))
}

func newPublisher(cfg *config.Config) domain.Publisher {
	return gitrepo.NewPublisher(gitOptions(cfg))
}

func newBranchResolver(cfg *config.Config) domain.BranchResolver {
	return github.NewClient(cfg.Token)
}

func gitOptions(cfg *config.Config) gitrepo.Options {
	return gitrepo.Options{
		Workspace:   cfg.Workspace,
		Token:       cfg.Token,
		MaxRetries:  cfg.MaxRetries,
		Backoff:     cfg.RetryBackoff(),
		Timeout:     cfg.NetworkTimeout(),
		AuthorName:  cfg.CommitAuthorName,
		AuthorEmail: cfg.CommitAuthorEmail,
	}
}
