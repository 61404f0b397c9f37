package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/viant/afs/storage"
	"github.com/viant/mcpws/tool"
)

// ReadFileInput represents read_file arguments.
type ReadFileInput struct {
	Path  string `json:"path" description:"file path, relative paths resolve against the workspace"`
	Limit int    `json:"limit,omitempty" description:"maximum number of lines to return"`
}

// ListDirectoryInput represents list_directory arguments.
type ListDirectoryInput struct {
	Path       string `json:"path,omitempty" description:"directory path, defaults to the workspace"`
	ShowHidden bool   `json:"show_hidden,omitempty" description:"include entries starting with a dot"`
}

func (s *Service) registerFiles(registry *tool.Registry) error {
	if err := tool.Register[ReadFileInput](registry, "read_file", "Read a text file and return its first lines", s.readFile); err != nil {
		return err
	}
	return tool.Register[ListDirectoryInput](registry, "list_directory", "List directory entries, directories first", s.listDirectory)
}

func (s *Service) readFile(ctx context.Context, input *ReadFileInput) (string, error) {
	URL, err := s.resolve(input.Path)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("read failed: %w", err)
	}
	if isBinary(data) {
		return fmt.Sprintf("%v: binary file (%d bytes)", input.Path, len(data)), nil
	}
	limit := input.Limit
	if limit <= 0 {
		limit = s.config.ReadLimit
	}
	return tool.TruncateLines(strings.TrimRight(string(data), "\n"), limit), nil
}

func (s *Service) listDirectory(ctx context.Context, input *ListDirectoryInput) (string, error) {
	URL, err := s.resolve(input.Path)
	if err != nil {
		return "", err
	}
	objects, err := s.fs.List(ctx, URL)
	if err != nil {
		return "", fmt.Errorf("list failed: %w", err)
	}
	if len(objects) > 0 && objects[0].IsDir() {
		objects = objects[1:] // the listed directory itself
	}
	var entries []storage.Object
	for _, object := range objects {
		if !input.ShowHidden && strings.HasPrefix(object.Name(), ".") {
			continue
		}
		entries = append(entries, object)
	}
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir() != entries[j].IsDir() {
			return entries[i].IsDir()
		}
		return entries[i].Name() < entries[j].Name()
	})
	if len(entries) == 0 {
		return fmt.Sprintf("%v: empty directory", URL), nil
	}
	var builder strings.Builder
	limit := s.config.ListLimit
	for i, entry := range entries {
		if i == limit {
			builder.WriteString(fmt.Sprintf("... (%d more entries)\n", len(entries)-limit))
			break
		}
		if entry.IsDir() {
			builder.WriteString(fmt.Sprintf("[dir]  %v/\n", entry.Name()))
			continue
		}
		builder.WriteString(fmt.Sprintf("[file] %v (%v)\n", entry.Name(), humanSize(entry.Size())))
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}

// isBinary returns true if data has non-printable ratio > 30%.
func isBinary(data []byte) bool {
	const maxBytes = 8000
	n := maxBytes
	if len(data) < n {
		n = len(data)
	}
	if n == 0 {
		return false
	}
	non := 0
	for i := 0; i < n; i++ {
		b := data[i]
		if b < 32 && b != '\n' && b != '\r' && b != '\t' {
			non++
		}
	}
	return float64(non)/float64(n) > 0.3
}

func humanSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%dB", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(size)/float64(div), "KMGTPE"[exp])
}
