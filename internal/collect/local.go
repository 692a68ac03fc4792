package collect

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/atinylittleshell/relmat/internal/materials"
	"go.uber.org/zap"
)

const (
	workspaceSuffix = ".xcworkspace"
	xcodeprojSuffix = ".xcodeproj"
)

// Commander runs an external command in dir and returns its trimmed stdout.
// *bash.Runner satisfies it.
type Commander interface {
	Output(ctx context.Context, dir string, args ...string) (string, error)
}

// LocalDetector inspects a project directory for release materials: the
// fastlane Appfile, Xcode workspace and project bundles, the workspace's
// schemes and the git identity.
type LocalDetector struct {
	commander Commander
	logger    *zap.Logger
}

// NewLocalDetector creates a LocalDetector. The logger is optional.
func NewLocalDetector(commander Commander, logger *zap.Logger) *LocalDetector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocalDetector{commander: commander, logger: logger}
}

// Detect returns the non-empty values found under projectRoot. Every lookup is
// best-effort; failures simply leave fields out.
func (d *LocalDetector) Detect(ctx context.Context, projectRoot string) materials.Values {
	workspace := probe(d.logger, "workspace", func() (string, error) {
		return firstEntryWithSuffix(projectRoot, workspaceSuffix)
	})
	xcodeproj := probe(d.logger, "xcodeproj", func() (string, error) {
		return firstEntryWithSuffix(projectRoot, xcodeprojSuffix)
	})

	preferred := ""
	if workspace != "" {
		preferred = strings.TrimSuffix(workspace, workspaceSuffix)
	} else if xcodeproj != "" {
		preferred = strings.TrimSuffix(xcodeproj, xcodeprojSuffix)
	}

	scheme := ""
	if workspace != "" {
		scheme = probe(d.logger, "xcodebuild", func() (string, error) {
			return d.detectScheme(ctx, filepath.Join(projectRoot, workspace), preferred)
		})
	}

	gitEmail := probe(d.logger, "git", func() (string, error) {
		return d.commander.Output(ctx, projectRoot, "git", "config", "user.email")
	})

	values := materials.Values{
		materials.IOSWorkspace:  workspace,
		materials.XcodeprojPath: xcodeproj,
		materials.IOSScheme:     scheme,
		materials.TesterEmails:  gitEmail,
	}

	appfile := probe(d.logger, "appfile", func() (materials.Values, error) {
		return ReadAppfile(filepath.Join(projectRoot, "fastlane", "Appfile"))
	})
	for f, v := range appfile {
		values[f] = v
	}

	return values.NonEmpty()
}

type xcodebuildList struct {
	Workspace struct {
		Schemes []string `json:"schemes"`
	} `json:"workspace"`
}

// detectScheme lists the workspace schemes and picks the one matching
// preferred case-insensitively, falling back to the first scheme.
func (d *LocalDetector) detectScheme(ctx context.Context, workspacePath, preferred string) (string, error) {
	raw, err := d.commander.Output(ctx, filepath.Dir(workspacePath), "xcodebuild", "-list", "-json", "-workspace", workspacePath)
	if err != nil {
		return "", err
	}
	if raw == "" {
		return "", nil
	}

	var list xcodebuildList
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		return "", err
	}
	return pickScheme(list.Workspace.Schemes, preferred), nil
}

func pickScheme(schemes []string, preferred string) string {
	if len(schemes) == 0 {
		return ""
	}
	if p := strings.TrimSpace(preferred); p != "" {
		for _, s := range schemes {
			if strings.EqualFold(s, p) {
				return s
			}
		}
	}
	return schemes[0]
}

// firstEntryWithSuffix returns the lexically first directory entry of dir
// whose name ends in suffix.
func firstEntryWithSuffix(dir, suffix string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		// hidden entries are never candidates
		if strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if strings.HasSuffix(e.Name(), suffix) {
			return e.Name(), nil
		}
	}
	return "", nil
}

var (
	appIdentifierPattern = regexp.MustCompile(`(?m)^\s*app_identifier\s+"([^"]+)"`)
	teamIDPattern        = regexp.MustCompile(`(?m)^\s*team_id\s+"([^"]+)"`)
	appleIDPattern       = regexp.MustCompile(`(?m)^\s*apple_id\s+"([^"]+)"`)
	appleIDEnvPattern    = regexp.MustCompile(`(?m)^\s*apple_id\s+ENV\.fetch\("APPLE_ID",\s*"([^"]+)"\)`)
)

// ReadAppfile scrapes path, a fastlane Appfile. A missing file yields no
// values and no error.
func ReadAppfile(path string) (materials.Values, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return materials.Values{}, nil
		}
		return nil, err
	}
	return ParseAppfile(string(data)), nil
}

// ParseAppfile extracts the app identifier, team id and Apple ID from the
// text of a fastlane Appfile. apple_id may be a literal or an
// ENV.fetch("APPLE_ID", "...") fallback.
func ParseAppfile(text string) materials.Values {
	values := materials.Values{}
	if m := appIdentifierPattern.FindStringSubmatch(text); m != nil {
		values[materials.IOSAppIdentifier] = strings.TrimSpace(m[1])
	}
	if m := teamIDPattern.FindStringSubmatch(text); m != nil {
		values[materials.TeamID] = strings.TrimSpace(m[1])
	}
	if m := appleIDPattern.FindStringSubmatch(text); m != nil {
		values[materials.AppleID] = strings.TrimSpace(m[1])
	} else if m := appleIDEnvPattern.FindStringSubmatch(text); m != nil {
		values[materials.AppleID] = strings.TrimSpace(m[1])
	}
	return values
}
