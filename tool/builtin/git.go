package builtin

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/viant/mcpws/tool"
)

// GitStatusInput represents check_git_status arguments.
type GitStatusInput struct {
	Path string `json:"path,omitempty" description:"repository path, defaults to the workspace"`
}

func (s *Service) registerGit(registry *tool.Registry) error {
	return tool.Register[GitStatusInput](registry, "check_git_status", "Show branch, last commit and changed files of a git repository", s.checkGitStatus)
}

func (s *Service) checkGitStatus(_ context.Context, input *GitStatusInput) (string, error) {
	location, err := s.resolve(input.Path)
	if err != nil {
		return "", err
	}
	repository, err := git.PlainOpenWithOptions(location, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return fmt.Sprintf("%v: not a git repository", location), nil
		}
		return "", fmt.Errorf("failed to open repository: %w", err)
	}
	var builder strings.Builder
	head, err := repository.Head()
	switch {
	case errors.Is(err, plumbing.ErrReferenceNotFound):
		builder.WriteString("Branch: (no commits yet)\n")
	case err != nil:
		return "", fmt.Errorf("failed to resolve HEAD: %w", err)
	default:
		builder.WriteString(fmt.Sprintf("Branch: %v\n", head.Name().Short()))
		if commit, err := repository.CommitObject(head.Hash()); err == nil {
			subject, _, _ := strings.Cut(strings.TrimSpace(commit.Message), "\n")
			builder.WriteString(fmt.Sprintf("Last commit: %v %v (%v)\n", head.Hash().String()[:7], subject, commit.Author.Name))
		}
	}
	worktree, err := repository.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return "", fmt.Errorf("failed to read status: %w", err)
	}
	if status.IsClean() {
		builder.WriteString("Working tree clean")
		return builder.String(), nil
	}
	files := make([]string, 0, len(status))
	for file := range status {
		files = append(files, file)
	}
	sort.Strings(files)
	builder.WriteString(fmt.Sprintf("Changes (%d):\n", len(files)))
	for _, file := range files {
		fileStatus := status[file]
		builder.WriteString(fmt.Sprintf("%c%c %v\n", fileStatus.Staging, fileStatus.Worktree, file))
	}
	return strings.TrimRight(builder.String(), "\n"), nil
}
