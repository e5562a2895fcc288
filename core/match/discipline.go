// Package match - Discipline compatibility
package match

import (
	"strings"

	"estimate-engine/core/rules"
	"estimate-engine/core/textnorm"
	"estimate-engine/core/types"
)

// DisciplineChecker decides whether a KB entry's trade may serve an item's
// trade. Incompatible entries are skipped entirely, not scored.
type DisciplineChecker struct {
	rules *rules.Set
}

// NewDisciplineChecker creates a checker over the given rule set
func NewDisciplineChecker(rs *rules.Set) *DisciplineChecker {
	return &DisciplineChecker{rules: rs}
}

// Compatible reports whether a KB entry tagged kbDiscipline may price an
// item in itemDiscipline. An empty side, the generic wildcard, containment
// after normalization and the short-form alias table all pass.
func (c *DisciplineChecker) Compatible(kbDiscipline, itemDiscipline types.Discipline) bool {
	if kbDiscipline == "" || itemDiscipline == "" {
		return true
	}
	if kbDiscipline == itemDiscipline {
		return true
	}
	if kbDiscipline == types.DisciplineGeneral {
		return true
	}

	kb := textnorm.Normalize(kbDiscipline.String())
	item := textnorm.Normalize(itemDiscipline.String())
	if kb != "" && item != "" && (strings.Contains(kb, item) || strings.Contains(item, kb)) {
		return true
	}

	for short, full := range c.rules.DisciplineAliases {
		alias := types.Discipline(short)
		if (kbDiscipline == alias && itemDiscipline == full) ||
			(kbDiscipline == full && itemDiscipline == alias) {
			return true
		}
	}

	return false
}
