package fields

import (
	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Criteria returns select criteria restricting a bun query to the profile's
// columns and joining its relations with their own column subsets.
func (p Profile) Criteria() repository.SelectCriteria {
	names := p.Names()
	rels := p.Relations()

	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if len(names) > 0 {
			q = q.Column(names...)
		}
		for _, rel := range rels {
			q = q.Relation(rel.Relation.Model, relationColumns(rel.Relation))
		}
		return q
	}
}

func relationColumns(rel *Relation) func(*bun.SelectQuery) *bun.SelectQuery {
	var cols []string
	for _, f := range rel.Fields {
		if !f.IsRelation() {
			cols = append(cols, string(f.Name))
		}
	}
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		if len(cols) == 0 {
			return q
		}
		return q.Column(cols...)
	}
}
