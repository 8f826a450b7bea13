package clause

// Update renders the current table after UPDATE
type Update struct{}

func (Update) Name() string {
	return "UPDATE"
}

func (Update) Build(builder Builder) {
	builder.WriteQuoted(currentTable)
}

func (update Update) MergeClause(clause *Clause) {
	clause.Expression = update
}
