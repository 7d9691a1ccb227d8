package bunadapter

import (
	"strings"

	"github.com/uptrace/bun"
)

// CasbinRule represents a policy line. The composite primary key spans every
// column so identical lines cannot be stored twice.
type CasbinRule struct {
	bun.BaseModel `bun:"table:casbin_rules,alias:cr"`

	Ptype string `bun:",pk,type:varchar(100),notnull"` // 'p' (policy) or 'g' (grouping)
	V0    string `bun:",pk,type:varchar(255)"`         // Subject, e.g. role:staff
	V1    string `bun:",pk,type:varchar(255)"`         // Object, e.g. rooms
	V2    string `bun:",pk,type:varchar(255)"`         // Action
	V3    string `bun:",pk,type:varchar(255)"`
	V4    string `bun:",pk,type:varchar(255)"`
	V5    string `bun:",pk,type:varchar(255)"`
}

func newCasbinRule(ptype string, rule []string) *CasbinRule {
	line := &CasbinRule{Ptype: ptype}
	fields := []*string{&line.V0, &line.V1, &line.V2, &line.V3, &line.V4, &line.V5}
	for i, v := range rule {
		if i >= len(fields) {
			break
		}
		*fields[i] = v
	}
	return line
}

// String renders the rule in Casbin CSV form, e.g. "p, role:staff, rooms, read".
func (r *CasbinRule) String() string {
	values, lastNonEmpty := r.toValueSlice()
	parts := append([]string{r.Ptype}, values[:lastNonEmpty+1]...)
	return strings.Join(parts, ", ")
}

// whereGroup ORs a group matching every non-empty field of the rule.
func (r *CasbinRule) whereGroup(q *bun.DeleteQuery) *bun.DeleteQuery {
	return q.WhereGroup(" OR ", func(q *bun.DeleteQuery) *bun.DeleteQuery {
		q = q.Where("ptype = ?", r.Ptype)
		columns := []string{"v0", "v1", "v2", "v3", "v4", "v5"}
		values, _ := r.toValueSlice()
		for i, v := range values {
			if v != "" {
				q = q.Where("? = ?", bun.Ident(columns[i]), v)
			}
		}
		return q
	})
}

// toValueSlice returns V0..V5 and the index of the last non-empty value (-1 if none).
func (r *CasbinRule) toValueSlice() ([]string, int) {
	values := []string{r.V0, r.V1, r.V2, r.V3, r.V4, r.V5}
	lastNonEmpty := -1
	for i := len(values) - 1; i >= 0; i-- {
		if values[i] != "" {
			lastNonEmpty = i
			break
		}
	}
	return values, lastNonEmpty
}
