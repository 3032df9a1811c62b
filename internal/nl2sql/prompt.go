package nl2sql

import (
	"fmt"
	"strings"
)

const systemPrompt = "You are a SQL expert that converts natural language to SQL queries."

// BuildPrompt renders the instruction sent to the model. table must be the
// fully qualified name and schemaText the rendered column list.
func BuildPrompt(question, table, schemaText string) string {
	var b strings.Builder
	b.WriteString("You are a SQL expert. Convert the following natural language query into a SQL query for a Databricks Unity Catalog table.\n\n")
	fmt.Fprintf(&b, "Table: %s\n\n", table)
	fmt.Fprintf(&b, "Table Schema:\n%s\n\n", schemaText)
	fmt.Fprintf(&b, "Natural Language Query: %s\n\n", question)
	b.WriteString("Important Guidelines:\n")
	b.WriteString("1. Generate ONLY the SQL query without any explanation or markdown formatting\n")
	fmt.Fprintf(&b, "2. Use the exact table name: %s\n", table)
	b.WriteString("3. Use proper SQL syntax compatible with Databricks SQL\n")
	b.WriteString("4. Include appropriate WHERE, GROUP BY, ORDER BY, and LIMIT clauses as needed\n")
	b.WriteString("5. Make sure column names match exactly as shown in the schema\n")
	b.WriteString("6. Return only the SQL query, nothing else\n\n")
	b.WriteString("SQL Query:")
	return b.String()
}
