package usecase

import (
	"regexp"
	"sort"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/mooring/pkg/domain/model"
	"gopkg.in/yaml.v3"
)

// commitHashPattern matches a full-length git commit hash. Short hashes,
// tags and branch names all classify as unpinned.
var commitHashPattern = regexp.MustCompile(`^[0-9a-fA-F]{40}$`)

// workflowDoc is the subset of a workflow definition the extractor cares
// about. Unknown fields are ignored so arbitrary workflow features do not
// break extraction.
type workflowDoc struct {
	Jobs map[string]workflowJob `yaml:"jobs"`
}

type workflowJob struct {
	Uses  string         `yaml:"uses"` // reusable workflow reference
	Steps []workflowStep `yaml:"steps"`
}

type workflowStep struct {
	Uses string `yaml:"uses"`
}

// ExtractRefs parses one workflow definition and returns every external
// action reference with its pin-safety and internal classification. Inline
// shell steps and local/docker references are skipped. Job iteration is
// sorted by job name so output order is reproducible.
func ExtractRefs(content []byte, internalOrgs []string) ([]model.ActionRef, error) {
	var doc workflowDoc
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, goerr.Wrap(err, "failed to parse workflow definition")
	}

	names := make([]string, 0, len(doc.Jobs))
	for name := range doc.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)

	var refs []model.ActionRef
	for _, name := range names {
		job := doc.Jobs[name]
		if r, ok := parseUses(job.Uses, internalOrgs); ok {
			refs = append(refs, r)
		}
		for _, step := range job.Steps {
			if r, ok := parseUses(step.Uses, internalOrgs); ok {
				refs = append(refs, r)
			}
		}
	}
	return refs, nil
}

// parseUses classifies one "uses" value. The classification is total:
// every accepted reference gets exactly one pinned and one internal value.
func parseUses(uses string, internalOrgs []string) (model.ActionRef, bool) {
	uses = strings.TrimSpace(uses)
	if uses == "" || strings.HasPrefix(uses, "./") || strings.HasPrefix(uses, "docker://") {
		return model.ActionRef{}, false
	}

	spec, ref, ok := strings.Cut(uses, "@")
	if !ok || ref == "" {
		return model.ActionRef{}, false
	}

	segments := strings.Split(spec, "/")
	if len(segments) < 2 || segments[0] == "" || segments[1] == "" {
		return model.ActionRef{}, false
	}
	owner := segments[0]
	action := owner + "/" + segments[1] // subpaths trimmed from the identifier

	return model.ActionRef{
		Action:   action,
		Ref:      ref,
		Raw:      uses,
		Pinned:   commitHashPattern.MatchString(ref),
		Internal: isInternalOwner(owner, internalOrgs),
	}, true
}

// isInternalOwner compares case-insensitively: GitHub owner names are not
// case sensitive.
func isInternalOwner(owner string, internalOrgs []string) bool {
	for _, org := range internalOrgs {
		if strings.EqualFold(owner, org) {
			return true
		}
	}
	return false
}
