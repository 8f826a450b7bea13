package clause

// Insert renders `INTO <current table>`, the clause name supplies INSERT
type Insert struct{}

func (Insert) Name() string {
	return "INSERT"
}

func (Insert) Build(builder Builder) {
	builder.WriteString("INTO ")
	builder.WriteQuoted(currentTable)
}

func (insert Insert) MergeClause(clause *Clause) {
	clause.Expression = insert
}
