// Package github looks for the public source repository behind a site,
// first from links found on the page and then by guessing common
// owner/repo names derived from the domain.
package github

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"trustscan/internal/core/domain"
	"trustscan/internal/core/ports"
	"trustscan/internal/platform/errors"
	"trustscan/internal/platform/httpclient"
	"trustscan/internal/platform/logx"
	"trustscan/internal/platform/registry"
)

func init() {
	registry.Global().MustRegister(collectorName, factory, ports.CollectorMetadata{
		Name:        collectorName,
		Description: "Public GitHub repository activity",
		Stage:       1,
		Requires:    []string{"scraper"},
		Priority:    5,
	})
}

const (
	collectorName      = "github"
	defaultAPIURL      = "https://api.github.com"
	contributorTimeout = 5 * time.Second
)

var (
	repoLink     = regexp.MustCompile(`(?i)github\.com/([\w-]+)/([\w.-]+)`)
	lastPageLink = regexp.MustCompile(`page=(\d+)>; rel="last"`)
)

type repoResponse struct {
	Name  string `json:"name"`
	Owner struct {
		Login string `json:"login"`
	} `json:"owner"`
	HTMLURL         string `json:"html_url"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	OpenIssuesCount int    `json:"open_issues_count"`
	PushedAt        string `json:"pushed_at"`
	Archived        bool   `json:"archived"`
}

// Collector implements ports.Collector against the GitHub REST API.
type Collector struct {
	client *httpclient.Client
	apiURL string
	token  string
	logger logx.Logger
}

func factory(cfg ports.CollectorConfig, logger logx.Logger) (ports.Collector, error) {
	c := New(httpclient.Config{
		Service:    collectorName,
		Timeout:    cfg.Timeout,
		MaxRetries: cfg.Retries,
		RateLimit:  float64(cfg.RateLimit),
	}, registry.GetStringConfig(cfg.Custom, "token", ""), logger)
	c.apiURL = strings.TrimSuffix(registry.GetStringConfig(cfg.Custom, "base_url", defaultAPIURL), "/")
	return c, nil
}

// New creates the collector. token may be empty (unauthenticated rate limit).
func New(httpConfig httpclient.Config, token string, logger logx.Logger) *Collector {
	if httpConfig.Timeout <= 0 {
		httpConfig.Timeout = 15 * time.Second
	}
	return &Collector{
		client: httpclient.New(httpConfig, logger),
		apiURL: defaultAPIURL,
		token:  token,
		logger: logger.With("source", collectorName),
	}
}

// Name implements ports.Collector.
func (c *Collector) Name() string { return collectorName }

// Stage implements ports.Collector.
func (c *Collector) Stage() int { return 1 }

// Collect implements ports.Collector. A repository that does not exist is
// a result with RepoFound=false, not an error.
func (c *Collector) Collect(ctx context.Context, target domain.Target, prior *domain.CheckResults) (domain.Evidence, error) {
	if owner, repo, ok := repoFromLinks(pageLinks(prior)); ok {
		data, err := c.fetchRepo(ctx, owner, repo)
		switch {
		case errors.IsNotFound(err):
			return &domain.GithubData{RepoFound: false}, nil
		case err != nil:
			return nil, errors.Wrapf(err, "fetch %s/%s", owner, repo)
		}
		return data, nil
	}

	for _, guess := range guesses(target.Domain) {
		data, err := c.fetchRepo(ctx, guess[0], guess[1])
		if err == nil {
			return data, nil
		}
		if ctx.Err() != nil {
			return nil, err
		}
		if !errors.IsNotFound(err) {
			c.logger.Debug("repository guess failed", "repo", guess[0]+"/"+guess[1], "error", err.Error())
		}
	}

	return &domain.GithubData{RepoFound: false}, nil
}

func (c *Collector) headers() map[string]string {
	h := map[string]string{
		"Accept":               "application/vnd.github+json",
		"X-GitHub-Api-Version": "2022-11-28",
	}
	if c.token != "" {
		h["Authorization"] = "Bearer " + c.token
	}
	return h
}

func (c *Collector) fetchRepo(ctx context.Context, owner, repo string) (*domain.GithubData, error) {
	var r repoResponse
	url := fmt.Sprintf("%s/repos/%s/%s", c.apiURL, owner, repo)
	if err := c.client.GetJSON(ctx, url, c.headers(), &r); err != nil {
		return nil, err
	}

	data := &domain.GithubData{
		RepoFound:  true,
		Owner:      r.Owner.Login,
		Repo:       r.Name,
		URL:        r.HTMLURL,
		Stars:      domain.IntPtr(r.StargazersCount),
		Forks:      r.ForksCount,
		OpenIssues: r.OpenIssuesCount,
		LastCommit: r.PushedAt,
		IsArchived: r.Archived,
	}
	if data.Owner == "" {
		data.Owner, data.Repo = owner, repo
	}
	data.Contributors = c.contributors(ctx, data.Owner, data.Repo)

	c.logger.Debug("repository found", "repo", data.Owner+"/"+data.Repo, "stars", r.StargazersCount)
	return data, nil
}

// contributors counts contributors from the Link header of a one-item
// page. Failures leave the count unknown.
func (c *Collector) contributors(ctx context.Context, owner, repo string) *int {
	ctx, cancel := context.WithTimeout(ctx, contributorTimeout)
	defer cancel()

	url := fmt.Sprintf("%s/repos/%s/%s/contributors?per_page=1&anon=true", c.apiURL, owner, repo)
	resp, err := c.client.Get(ctx, url, c.headers())
	if err != nil {
		return nil
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil
	}

	if m := lastPageLink.FindStringSubmatch(resp.Header.Get("Link")); m != nil {
		resp.Body.Close()
		if n, err := strconv.Atoi(m[1]); err == nil {
			return domain.IntPtr(n)
		}
		return nil
	}

	var page []map[string]interface{}
	if err := c.client.DecodeJSON(resp, &page); err != nil {
		return nil
	}
	return domain.IntPtr(len(page))
}

// Close implements ports.Collector.
func (c *Collector) Close() error { return nil }

func pageLinks(prior *domain.CheckResults) []string {
	if prior == nil || prior.Scraper == nil {
		return nil
	}
	links := append([]string{}, prior.Scraper.SocialLinks...)
	return append(links, prior.Scraper.ExternalLinks...)
}

func repoFromLinks(links []string) (owner, repo string, ok bool) {
	for _, link := range links {
		m := repoLink.FindStringSubmatch(link)
		if m == nil {
			continue
		}
		return m[1], strings.TrimSuffix(m[2], ".git"), true
	}
	return "", "", false
}

// guesses derives owner/repo candidates from the first domain label.
func guesses(domainName string) [][2]string {
	label := strings.SplitN(domainName, ".", 2)[0]
	if label == "" {
		return nil
	}
	return [][2]string{{label, label}, {label, "app"}, {label, "website"}}
}
