package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/ini.v1"

	"github.com/devarsh10/javasync/domain"
)

// LoadRepositoryList parses the repository list file into an ordered
// sequence of entries. The format is picked by extension: .csv files carry
// a repository_url,branch header row; .ini files carry one section per
// repository. Duplicate URLs within one list are rejected because each
// repository owns a single workspace directory per run.
func LoadRepositoryList(path string) ([]domain.RepositoryEntry, error) {
	var (
		entries []domain.RepositoryEntry
		err     error
	)

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		entries, err = loadCSV(path)
	case ".ini", ".cfg":
		entries, err = loadINI(path)
	default:
		return nil, fmt.Errorf("unsupported repository list format %q (want .csv or .ini)", ext)
	}
	if err != nil {
		return nil, err
	}

	if len(entries) == 0 {
		return nil, errors.New("repository list is empty")
	}

	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		if seen[e.URL] {
			return nil, fmt.Errorf("repository %q listed more than once", e.URL)
		}
		seen[e.URL] = true
	}

	return entries, nil
}

// loadCSV reads rows of the form:
//
//	repository_url,branch
//	https://github.com/org/service-a.git,main
func loadCSV(path string) ([]domain.RepositoryEntry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open repository list %q: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1 // branch column may be omitted

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	urlCol, branchCol := 0, 1
	for i, name := range header {
		switch strings.TrimSpace(strings.ToLower(name)) {
		case "repository_url", "url":
			urlCol = i
		case "branch":
			branchCol = i
		}
	}

	var entries []domain.RepositoryEntry
	for line, rec := range records[1:] {
		if urlCol >= len(rec) {
			return nil, fmt.Errorf("row %d of %q has no repository URL", line+2, path)
		}
		url := strings.TrimSpace(rec[urlCol])
		if url == "" {
			continue
		}
		branch := ""
		if branchCol < len(rec) {
			branch = strings.TrimSpace(rec[branchCol])
		}
		entries = append(entries, domain.RepositoryEntry{URL: url, Branch: branch})
	}

	return entries, nil
}

// loadINI reads sectioned key/value lists of the form:
//
//	[service-a]
//	url = https://github.com/org/service-a.git
//	branch = main
//
// Section order is preserved.
func loadINI(path string) ([]domain.RepositoryEntry, error) {
	file, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %q: %w", path, err)
	}

	var entries []domain.RepositoryEntry
	for _, section := range file.Sections() {
		if section.Name() == ini.DefaultSection {
			continue
		}
		url := strings.TrimSpace(section.Key("url").String())
		if url == "" {
			return nil, fmt.Errorf("section [%s] of %q has no url key", section.Name(), path)
		}
		entries = append(entries, domain.RepositoryEntry{
			URL:    url,
			Branch: strings.TrimSpace(section.Key("branch").String()),
		})
	}

	return entries, nil
}
