package cmd

import (
	"errors"
	"fmt"
	"io/fs"

	"callflow/internal/graph"
	"callflow/internal/storage"
)

// flowPath turns a command argument into a flow file. Arguments with a
// document extension are paths; anything else is a flow name looked up in
// the configured flow directory. When mustExist is false an unknown name
// resolves to a new file in the default format.
func flowPath(arg string, mustExist bool) (string, error) {
	if _, err := storage.FormatFor(arg); err == nil {
		return arg, nil
	}
	path, err := storage.Find(appConfig.Storage.Dir, arg)
	if err == nil {
		return path, nil
	}
	if mustExist || !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}
	return storage.PathFor(appConfig.Storage.Dir, arg, appConfig.DefaultFormat())
}

// openFlow loads a flow and rebuilds its graph. Import repairs are returned
// so that callers can report them.
func openFlow(arg string) (string, storage.Document, *graph.Store, []graph.Issue, error) {
	path, err := flowPath(arg, true)
	if err != nil {
		return "", storage.Document{}, nil, nil, err
	}
	doc, err := storage.Load(path)
	if err != nil {
		return "", storage.Document{}, nil, nil, err
	}
	store, issues := doc.Store(appConfig.GraphOptions()...)
	return path, doc, store, issues, nil
}

// editFlow applies fn to a flow and saves it when fn succeeds.
func editFlow(arg string, fn func(*graph.Store) error) (storage.Document, *graph.Store, error) {
	path, doc, store, _, err := openFlow(arg)
	if err != nil {
		return storage.Document{}, nil, err
	}
	if err := fn(store); err != nil {
		return storage.Document{}, nil, err
	}
	saved, err := storage.Save(path, doc.WithStore(store))
	if err != nil {
		return storage.Document{}, nil, fmt.Errorf("failed to save %s: %w", path, err)
	}
	return saved, store, nil
}
