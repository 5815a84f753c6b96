// Copyright 2025 The reposync Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package gitutil

import (
	"bufio"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// This file contains the parsers for the textual output of the git plumbing
// commands reposync relies on. The format assumptions are:
//
//   ls-remote:  "<sha>\trefs/(heads|tags)/<name>" per line
//   ls-tree:    one repo-relative forward-slash path per line
//               (--name-only, -z not used)
//   log:        "%cI<TAB>%s", i.e. an ISO-8601 committer date with offset,
//               a tab, and the subject line
//
// Output that doesn't match is skipped (ls-remote) or rejected (log) rather
// than guessed at, since format drift in git's output otherwise breaks
// parsing silently.

var lsRemoteRe = regexp.MustCompile(`^([a-f0-9]+)\s+refs/(heads|tags)/(.+)$`)

// ParseLsRemote parses `git ls-remote --heads [--tags]` output and returns
// ref name -> commit sha mappings for heads and tags.
func ParseLsRemote(out string) (map[string]string, error) {
	refs := make(map[string]string)

	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		res := lsRemoteRe.FindStringSubmatch(scanner.Text())
		if len(res) == 0 {
			continue
		}
		refs[res[3]] = res[1]
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error parsing ls-remote output: %w", err)
	}
	return refs, nil
}

// ParseLsTree parses `git ls-tree -r --name-only` output into the list of
// tracked paths. Paths are repo-relative with forward slashes.
func ParseLsTree(out string) []string {
	var paths []string
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		p := strings.TrimSpace(scanner.Text())
		if p == "" {
			continue
		}
		paths = append(paths, p)
	}
	return paths
}

// ParseLogLine parses a single `git log -1 --format=%cI%x09%s` line into the
// commit timestamp (normalized to UTC) and the subject. The timestamp is
// timezone-aware; naive string comparison across timezones would be wrong,
// so the offset is honored during parsing.
func ParseLogLine(line string) (time.Time, string, error) {
	line = strings.TrimRight(line, "\r\n")
	if line == "" {
		return time.Time{}, "", fmt.Errorf("empty log line")
	}
	stamp, subject, _ := strings.Cut(line, "\t")
	t, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, subject, fmt.Errorf("error parsing commit timestamp %q: %w", stamp, err)
	}
	return t.UTC(), subject, nil
}
