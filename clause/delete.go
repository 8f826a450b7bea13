package clause

// Delete renders DELETE itself, a From clause follows it
type Delete struct{}

func (Delete) Name() string {
	return "DELETE"
}

func (Delete) Build(builder Builder) {
	builder.WriteString("DELETE")
}

// MergeClause clears the clause name so DELETE is not written twice
func (d Delete) MergeClause(clause *Clause) {
	clause.Name = ""
	clause.Expression = d
}
