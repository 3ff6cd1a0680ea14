// Package updater reports whether a newer release of the server has been
// published on GitHub. It never installs anything: the binary is upgraded
// through whatever installed it.
package updater

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	latestReleaseURL = "https://api.github.com/repos/HendryAvila/mcp-dataplex/releases/latest"
	defaultTimeout   = 10 * time.Second
)

// Release is the part of a GitHub release document the check reads.
type Release struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
}

// Result is the outcome of one check. Versions carry no "v" prefix.
// Err is set, and Latest empty, when the latest release is unknown.
type Result struct {
	Current string
	Latest  string
	Newer   bool
	URL     string
	Err     error
}

// Checker fetches the latest release from Endpoint.
type Checker struct {
	Endpoint string
	Client   *http.Client
}

// NewChecker returns a Checker for the project's GitHub releases.
func NewChecker() *Checker {
	return &Checker{
		Endpoint: latestReleaseURL,
		Client:   &http.Client{Timeout: defaultTimeout},
	}
}

// Check compares current against the latest release. It never fails the
// caller; problems end up in Result.Err.
func (c *Checker) Check(ctx context.Context, current string) *Result {
	res := &Result{Current: strings.TrimPrefix(current, "v")}

	rel, err := c.latest(ctx, current)
	if err != nil {
		res.Err = err
		return res
	}

	res.Latest = strings.TrimPrefix(rel.TagName, "v")
	res.URL = rel.HTMLURL
	res.Newer = isNewer(res.Current, res.Latest)
	return res
}

func (c *Checker) latest(ctx context.Context, current string) (*Release, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("building release request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("User-Agent", "mcp-dataplex/"+current)

	resp, err := c.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching latest release: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching latest release: unexpected status %s", resp.Status)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("decoding latest release: %w", err)
	}
	if rel.TagName == "" {
		return nil, errors.New("latest release has no tag")
	}
	return &rel, nil
}

// isNewer reports whether latest is a higher semantic version than current.
// Unparseable versions, "dev" included, are never newer.
func isNewer(current, latest string) bool {
	c, l := "v"+current, "v"+latest
	if !semver.IsValid(c) || !semver.IsValid(l) {
		return false
	}
	return semver.Compare(l, c) > 0
}
