package mathtex

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var (
	mathClassPattern = regexp.MustCompile(`^math math-(inline|display|error)$`)
	mathModePattern  = regexp.MustCompile(`^(inline|display)$`)
	mathRolePattern  = regexp.MustCompile(`^math$`)
)

// AllowMath extends policy so the markup produced by Render survives
// sanitizing. A nil policy starts from bluemonday's UGC policy.
func AllowMath(policy *bluemonday.Policy) *bluemonday.Policy {
	if policy == nil {
		policy = bluemonday.UGCPolicy()
	}
	policy.AllowAttrs("class").Matching(mathClassPattern).OnElements("span", "div")
	policy.AllowAttrs("data-tex").Matching(mathModePattern).OnElements("span", "div")
	policy.AllowAttrs("role").Matching(mathRolePattern).OnElements("span", "div")
	policy.AllowAttrs("aria-label", "title").OnElements("span", "div")
	return policy
}
