package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/yuanying/manuscript/internal/book"
	"github.com/yuanying/manuscript/internal/store"
)

// loadProject reads a project from a JSON file, or from the store when
// path is empty.
func (a *app) loadProject(ctx context.Context, path string) (book.Project, error) {
	if path != "" {
		return readProjectFile(path)
	}

	s, err := a.openStore()
	if err != nil {
		return book.Project{}, err
	}
	defer s.Close()

	p, err := s.GetProject(ctx)
	if errors.Is(err, store.ErrNotFound) {
		return book.Project{}, fmt.Errorf("no saved project: pass --input or run 'manuscript project save'")
	}
	return p, err
}

func readProjectFile(path string) (book.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return book.Project{}, fmt.Errorf("read project: %w", err)
	}
	var p book.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return book.Project{}, fmt.Errorf("parse project %s: %w", path, err)
	}
	return p, nil
}

func writeProjectFile(path string, p book.Project) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("encode project: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write project: %w", err)
	}
	return nil
}

// applyBookDefaults fills publisher and language from the configuration.
func (a *app) applyBookDefaults(meta *book.Metadata) {
	if meta.Publisher == "" {
		meta.Publisher = a.cfg.Book.Publisher
	}
	if meta.Language == "" {
		meta.Language = a.cfg.Book.Language
	}
}
