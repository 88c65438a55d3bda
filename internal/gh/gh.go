// Package gh implements the hosting-service gateway on the GitHub
// API.
package gh

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/go-github/v75/github"
	"golang.org/x/oauth2"

	"github.com/bgee/sympy-bot/internal/config"
	"github.com/bgee/sympy-bot/internal/review"
)

// Client wraps the GitHub API for a single owner/name repository.
type Client struct {
	gh    *github.Client
	owner string
	repo  string
}

// NewClient creates a client for repo ("owner/name"). An empty token
// yields an unauthenticated client, which is enough for read-only
// operations at a reduced rate limit.
func NewClient(ctx context.Context, repo, token string) *Client {
	var hc *http.Client
	if token != "" {
		hc = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token}))
	}
	return NewFromGitHub(github.NewClient(hc), repo)
}

// NewFromGitHub wraps an existing API client. Tests use this to point
// at an httptest server.
func NewFromGitHub(ghc *github.Client, repo string) *Client {
	return &Client{
		gh:    ghc,
		owner: config.RepoOwner(repo),
		repo:  config.RepoName(repo),
	}
}

// ListOpenChangeSets returns the open pull request numbers split into
// non-mergeable and mergeable sets. The list endpoint does not carry
// mergeability, so each PR is fetched individually; a PR whose
// mergeability GitHub has not computed yet counts as mergeable.
func (c *Client) ListOpenChangeSets(ctx context.Context) (nonMergeable, mergeable []int, err error) {
	opts := &github.PullRequestListOptions{
		State:       "open",
		Sort:        "created",
		Direction:   "asc",
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		prs, resp, err := c.gh.PullRequests.List(ctx, c.owner, c.repo, opts)
		if err != nil {
			return nil, nil, fmt.Errorf("list pull requests: %w", err)
		}
		for _, pr := range prs {
			full, _, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, pr.GetNumber())
			if err != nil {
				return nil, nil, fmt.Errorf("get pull request #%d: %w", pr.GetNumber(), err)
			}
			if full.Mergeable != nil && !*full.Mergeable {
				nonMergeable = append(nonMergeable, full.GetNumber())
			} else {
				mergeable = append(mergeable, full.GetNumber())
			}
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return nonMergeable, mergeable, nil
}

// GetChangeSet fetches one pull request's metadata. Numbers that
// exist only as issues come back from the API as 404 and map to
// review.ErrNotChangeSet.
func (c *Client) GetChangeSet(ctx context.Context, number int) (*review.ChangeSet, error) {
	pr, resp, err := c.gh.PullRequests.Get(ctx, c.owner, c.repo, number)
	if err != nil {
		if resp != nil && resp.StatusCode == http.StatusNotFound {
			return nil, review.ErrNotChangeSet
		}
		return nil, err
	}

	cs := &review.ChangeSet{
		Number:  pr.GetNumber(),
		Branch:  pr.GetHead().GetRef(),
		User:    pr.GetUser().GetLogin(),
		BaseRef: pr.GetBase().GetRef(),
	}
	if repo := pr.GetHead().GetRepo(); repo != nil {
		cs.HeadRepoURL = repo.GetCloneURL()
	}
	return cs, nil
}

// UserRepos lists the repositories owned by user.
func (c *Client) UserRepos(ctx context.Context, user string) ([]review.RepoRef, error) {
	var refs []review.RepoRef
	opts := &github.RepositoryListByUserOptions{
		ListOptions: github.ListOptions{PerPage: 100},
	}
	for {
		repos, resp, err := c.gh.Repositories.ListByUser(ctx, user, opts)
		if err != nil {
			return nil, fmt.Errorf("list repos for %s: %w", user, err)
		}
		for _, r := range repos {
			refs = append(refs, review.RepoRef{
				Name:     r.GetName(),
				CloneURL: r.GetCloneURL(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}
	return refs, nil
}

// UserInfo returns the display name and email for a user.
func (c *Client) UserInfo(ctx context.Context, user string) (name, email string, err error) {
	u, _, err := c.gh.Users.Get(ctx, user)
	if err != nil {
		return "", "", fmt.Errorf("get user %s: %w", user, err)
	}
	return u.GetName(), u.GetEmail(), nil
}

// PostComment posts body as a comment on pull request number.
func (c *Client) PostComment(ctx context.Context, number int, body string) error {
	_, _, err := c.gh.Issues.CreateComment(ctx, c.owner, c.repo, number,
		&github.IssueComment{Body: github.Ptr(body)})
	if err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// Authenticate verifies the client's token and returns the
// authenticated login.
func (c *Client) Authenticate(ctx context.Context) (string, error) {
	u, _, err := c.gh.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("verify token: %w", err)
	}
	return u.GetLogin(), nil
}
