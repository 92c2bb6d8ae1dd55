package github

import (
	"context"
	"net/http"

	"github.com/bradleyfalzon/ghinstallation/v2"
	"github.com/google/go-github/v75/github"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/interfaces"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"github.com/m-mizutani/mooring/pkg/domain/types"
)

type client struct {
	githubClient *github.Client
}

// NewClient creates a new GitHub client with App authentication
func NewClient(appID, installationID int64, privateKey []byte) (interfaces.GitHubClient, error) {
	itr, err := ghinstallation.New(http.DefaultTransport, appID, installationID, privateKey)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create GitHub App transport")
	}

	return &client{
		githubClient: github.NewClient(&http.Client{Transport: itr}),
	}, nil
}

// GetFileContent fetches the content of a single file at a commit ref
func (c *client) GetFileContent(ctx context.Context, owner, repo, ref, path string) ([]byte, error) {
	fileContent, _, _, err := c.githubClient.Repositories.GetContents(ctx, owner, repo, path, &github.RepositoryContentGetOptions{
		Ref: ref,
	})
	if err != nil {
		return nil, goerr.Wrap(err, "failed to get file content",
			goerr.V("repo", owner+"/"+repo),
			goerr.V("ref", ref),
			goerr.V("path", path),
		)
	}
	if fileContent == nil {
		return nil, goerr.New("path is not a file", goerr.V("path", path))
	}

	content, err := fileContent.GetContent()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to decode file content", goerr.V("path", path))
	}
	return []byte(content), nil
}

// ListPullRequestFiles returns the changed files of a pull request
func (c *client) ListPullRequestFiles(ctx context.Context, owner, repo string, number int) ([]model.FileChange, error) {
	var changes []model.FileChange
	opts := &github.ListOptions{PerPage: 100}
	for {
		files, resp, err := c.githubClient.PullRequests.ListFiles(ctx, owner, repo, number, opts)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to list pull request files",
				goerr.V("repo", owner+"/"+repo),
				goerr.V("number", number),
			)
		}
		for _, f := range files {
			var status model.FileChangeStatus
			switch f.GetStatus() {
			case "added", "copied":
				status = model.FileAdded
			case "modified", "changed", "renamed":
				status = model.FileModified
			case "removed":
				status = model.FileRemoved
			default:
				continue
			}
			changes = append(changes, model.FileChange{
				Path:   f.GetFilename(),
				Status: status,
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return changes, nil
}

// CreateCheckRun submits a completed check run against a commit
func (c *client) CreateCheckRun(ctx context.Context, owner, repo, headSHA string, check *model.CheckSummary) error {
	_, _, err := c.githubClient.Checks.CreateCheckRun(ctx, owner, repo, github.CreateCheckRunOptions{
		Name:       types.ServiceName,
		HeadSHA:    headSHA,
		ExternalID: github.Ptr(check.ExternalID),
		Status:     github.Ptr("completed"),
		Conclusion: github.Ptr(check.Conclusion),
		Output: &github.CheckRunOutput{
			Title:   github.Ptr(check.Title),
			Summary: github.Ptr(check.Summary),
		},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to create check run",
			goerr.V("repo", owner+"/"+repo),
			goerr.V("head_sha", headSHA),
		)
	}
	return nil
}
