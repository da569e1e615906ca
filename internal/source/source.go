package source

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pfrederiksen/eventmerge/internal/calendar"
	"github.com/pfrederiksen/eventmerge/internal/event"
	"github.com/pfrederiksen/eventmerge/internal/logger"
)

// Input is a file or directory of scraper output, optionally attributed to a community
type Input struct {
	CommunityID string
	Path        string
}

// ParseInput reads "community=path" or a bare path. The text before the first
// "=" is taken as a community only when it looks like an ID, so paths such as
// "scrapes/run=3" stay whole.
func ParseInput(arg string) (Input, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return Input{}, fmt.Errorf("empty input")
	}

	community, path, found := strings.Cut(arg, "=")
	if !found || !looksLikeID(community) {
		return Input{Path: arg}, nil
	}
	community = strings.TrimSpace(community)
	path = strings.TrimSpace(path)
	if community == "" || path == "" {
		return Input{}, fmt.Errorf("invalid input %q (want community=path)", arg)
	}
	return Input{CommunityID: community, Path: path}, nil
}

// looksLikeID reports whether s can be a community ID rather than part of a
// path. Blank text counts as an ID so "=dir" is rejected instead of read as a path.
func looksLikeID(s string) bool {
	s = strings.TrimSpace(s)
	if strings.ContainsAny(s, `/\`) || strings.ContainsRune(s, filepath.Separator) {
		return false
	}
	return !strings.HasPrefix(s, ".") && !strings.HasPrefix(s, "~")
}

func (in Input) String() string {
	if in.CommunityID == "" {
		return in.Path
	}
	return in.CommunityID + "=" + in.Path
}

// Report summarizes a load
type Report struct {
	Files   int `json:"files"`   // files parsed successfully
	Failed  int `json:"failed"`  // files that could not be read or parsed
	Skipped int `json:"skipped"` // files with an unknown extension
	Records int `json:"records"`
}

// Load reads every input in order. Directories are walked in lexical order.
// Per-file failures are logged and counted; only a missing input path or a
// cancelled context is an error.
func Load(ctx context.Context, inputs []Input) ([]event.Raw, *Report, error) {
	report := &Report{}
	var records []event.Raw

	for _, in := range inputs {
		files, err := listFiles(in.Path)
		if err != nil {
			return nil, report, fmt.Errorf("input %s: %w", in, err)
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, report, err
			}

			loaded, ok, err := LoadFile(path)
			if !ok {
				report.Skipped++
				continue
			}
			if err != nil {
				report.Failed++
				logger.Warn("Skipping unreadable source file", logger.Fields{
					"path":  path,
					"error": err.Error(),
				})
				continue
			}

			report.Files++
			for _, rec := range loaded {
				assignCommunity(rec, in.CommunityID)
			}
			records = append(records, loaded...)
		}
	}

	report.Records = len(records)
	return records, report, nil
}

// LoadFile parses a single file by extension. ok is false for extensions no
// loader understands.
func LoadFile(path string) (records []event.Raw, ok bool, err error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json", ".html", ".htm", ".ics":
	default:
		return nil, false, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, true, err
	}
	defer f.Close()

	switch ext {
	case ".json":
		records, err = LoadJSON(f)
	case ".ics":
		records, err = calendar.ParseICS(f)
	default:
		records, err = LoadHTML(f, "")
	}
	return records, true, err
}

func listFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{root}, nil
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasPrefix(d.Name(), ".") {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// assignCommunity sets communityId on records that carry none
func assignCommunity(rec event.Raw, communityID string) {
	if communityID == "" || rec == nil {
		return
	}
	if existing, ok := rec["communityId"].(string); ok && strings.TrimSpace(existing) != "" {
		return
	}
	rec["communityId"] = communityID
}
