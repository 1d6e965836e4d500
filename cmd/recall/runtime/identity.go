package runtime

import (
	"fmt"

	"github.com/recallhq/recall/pkg/dotdir"
)

// Identity resolves the acting owner and project: explicit flags win, then the
// persisted .recall/profile.json. A missing owner is an error since every item
// is owner-scoped.
func Identity(configDir, ownerFlag, projectFlag string) (owner, project string, err error) {
	owner, project = ownerFlag, projectFlag
	if owner != "" && project != "" {
		return owner, project, nil
	}

	profile, err := dotdir.NewManager().LoadProfile(configDir)
	if err != nil {
		return "", "", fmt.Errorf("loading profile: %w", err)
	}

	if profile != nil {
		if owner == "" {
			owner = profile.OwnerID
		}
		if project == "" {
			project = profile.ProjectID
		}
	}

	if owner == "" {
		return "", "", fmt.Errorf("no owner configured: pass --owner or run 'recall init --owner <id>'")
	}

	return owner, project, nil
}
