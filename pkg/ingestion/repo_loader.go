// Copyright 2026 KrakLabs
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published
// by the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.
//
// For commercial licensing, contact: licensing@kraklabs.com
//
// SPDX-License-Identifier: AGPL-3.0-or-later

package ingestion

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
)

var (
	// validSSHURLPattern matches git@host:owner/repo and ssh:// URLs.
	validSSHURLPattern = regexp.MustCompile(`^(git@|ssh://)[\w.\-@:/%]+$`)

	// dangerousCharsPattern matches characters that could be used for command injection
	dangerousCharsPattern = regexp.MustCompile(`[;&|$` + "`" + `\n\r\\]`)

	// owner and repository path segments of a repository URL
	ownerPattern = `[a-zA-Z0-9_-]+`
	repoPattern  = `[a-zA-Z0-9_.-]+`
)

// DefaultRepoHost is the host accepted by ValidateRepoURL when none is given.
const DefaultRepoHost = "github.com"

// Cloner copies a remote repository into dest, which already exists and is
// empty.
type Cloner interface {
	Clone(ctx context.Context, repoURL, dest string) error
}

// ClonerFunc adapts a function to the Cloner interface.
type ClonerFunc func(ctx context.Context, repoURL, dest string) error

// Clone calls f.
func (f ClonerFunc) Clone(ctx context.Context, repoURL, dest string) error {
	return f(ctx, repoURL, dest)
}

// GitCloner clones with the git binary.
type GitCloner struct {
	// Binary is the git executable. Defaults to "git" on PATH.
	Binary string

	// Depth limits history. Zero clones the full history.
	Depth int
}

// Clone runs git clone into dest. Failures are returned as *CloneError
// carrying git's exit status.
func (g GitCloner) Clone(ctx context.Context, repoURL, dest string) error {
	logURL := SanitizeURL(repoURL)
	if err := ValidateGitURL(repoURL); err != nil {
		return &CloneError{URL: logURL, Status: StatusUnknown, Err: fmt.Errorf("invalid git URL: %w", err)}
	}

	bin := g.Binary
	if bin == "" {
		bin = "git"
	}
	args := []string{"clone", "--quiet"}
	if g.Depth > 0 {
		args = append(args, "--depth", strconv.Itoa(g.Depth))
	}
	args = append(args, repoURL, dest)

	// #nosec G204 - repoURL is validated above to prevent command injection
	cmd := exec.CommandContext(ctx, bin, args...)
	// Never block on a credential prompt for private or missing repositories.
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		status := StatusUnknown
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			status = exitErr.ExitCode()
		}
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			err = fmt.Errorf("%w: %s", err, msg)
		}
		return &CloneError{URL: logURL, Status: status, Err: err}
	}
	return nil
}

// ValidateGitURL validates a git URL to prevent command injection.
// Returns an error if the URL is invalid or contains dangerous characters.
func ValidateGitURL(gitURL string) error {
	if gitURL == "" {
		return fmt.Errorf("git URL is empty")
	}

	if dangerousCharsPattern.MatchString(gitURL) {
		return fmt.Errorf("git URL contains dangerous characters")
	}

	// Anything starting with "-" would be parsed by git as an option.
	if strings.HasPrefix(gitURL, "-") {
		return fmt.Errorf("git URL must not start with '-'")
	}

	if strings.HasPrefix(gitURL, "http://") || strings.HasPrefix(gitURL, "https://") {
		parsed, err := url.Parse(gitURL)
		if err != nil {
			return fmt.Errorf("invalid URL format: %w", err)
		}
		if parsed.Host == "" {
			return fmt.Errorf("git URL missing host")
		}
		if parsed.User != nil {
			if _, hasPassword := parsed.User.Password(); hasPassword {
				return fmt.Errorf("git URL should not contain embedded password")
			}
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "git@") || strings.HasPrefix(gitURL, "ssh://") {
		if !validSSHURLPattern.MatchString(gitURL) {
			return fmt.Errorf("invalid SSH git URL format")
		}
		return nil
	}

	if strings.HasPrefix(gitURL, "file://") {
		return nil
	}

	return fmt.Errorf("unsupported git URL protocol: must be https://, git@, ssh://, or file://")
}

// ValidateRepoURL checks that repoURL has the form
// http(s)://<host>/<owner>/<repo>. An empty host means DefaultRepoHost;
// "*" accepts any host.
func ValidateRepoURL(repoURL, host string) error {
	if host == "" {
		host = DefaultRepoHost
	}
	hostPattern := regexp.QuoteMeta(host)
	if host == "*" {
		hostPattern = `[a-zA-Z0-9.-]+(:[0-9]+)?`
	}
	re, err := regexp.Compile(`^https?://` + hostPattern + `/` + ownerPattern + `/` + repoPattern + `$`)
	if err != nil {
		return fmt.Errorf("compile repository URL pattern: %w", err)
	}
	if !re.MatchString(repoURL) {
		return fmt.Errorf("%q is not a repository URL of the form https://%s/<owner>/<repo>", repoURL, host)
	}
	return nil
}

// SanitizeURL hides credentials and query parameters for logging.
func SanitizeURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return raw
	}
	parsed.RawQuery = ""
	if parsed.User != nil {
		parsed.User = url.User("***")
	}
	return parsed.String()
}
