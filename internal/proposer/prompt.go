package proposer

import (
	"fmt"
	"strings"
)

const tableSelectionSystemPrompt = "Output ONLY the most relevant table name from the list provided. No explanations."

const intentSystemPrompt = `You are a query structure analyzer. Output ONLY valid JSON, no markdown, no explanations.

Convert the user's question into this structure:
{
  "operation": "SELECT" or "COUNT",
  "table": "table_name",
  "columns": ["exact_column_name"] or [] for COUNT,
  "where": [{"column": "exact_column_name", "operator": "=", "value": "value"}] or null,
  "order_by": "exact_column_name" or null,
  "order_direction": "ASC" or "DESC" or null,
  "limit": 5 or null
}

Column names:
- Use ONLY the exact column names from the provided list, character for character.
- If the list has "First Name", use "First Name" (not First_Name or first_name).
- If the list has Sex, use Sex (not Gender).
- Never invent or modify column names.

Filters:
- Operators are =, !=, >, <, >=, <= and LIKE.
- "has Smith in last name" uses LIKE with %Smith%.
- "last name is Smith" uses = with Smith.

Ordering:
- "oldest" means the earliest date, ORDER BY the date column ASC.
- "youngest" means the latest date, ORDER BY the date column DESC.

Example. Question: "First names of 3 oldest people"
Available columns: Index, "First Name", "Last Name", "Date of birth"
{"operation": "SELECT", "table": "people", "columns": ["First Name"], "where": null, "order_by": "Date of birth", "order_direction": "ASC", "limit": 3}

Example. Question: "Count males"
Available columns: Index, "First Name", Sex
{"operation": "COUNT", "table": "people", "columns": [], "where": [{"column": "Sex", "operator": "=", "value": "Male"}], "order_by": null, "order_direction": null, "limit": null}`

const plotSystemPrompt = `You are a data visualization expert.

Generate Python matplotlib code ONLY. The code receives a variable called data
that is already aggregated and ready to plot.

- Categorical data: data = {'categories': [...], 'counts': [...], 'total': N}
- Numeric data: data = {'values': [...], 'total': N}
- Table data: data = {'rows': [...], 'columns': [...], 'total_rows': N}

Rules:
- Use matplotlib only, available as plt. Do NOT import anything.
- Do NOT explain anything and do NOT wrap the code in markdown.
- Do NOT transform or aggregate the data; just plot it.
- Pie chart: plt.pie(data['counts'], labels=data['categories'], autopct='%1.1f%%')
- Bar chart: plt.bar(data['categories'], data['counts'])
- Histogram: plt.hist(data['values'], bins=10)`

func tableSelectionPrompt(question string, tables []string) string {
	return fmt.Sprintf("Question: %s\nTables: %s\nTable:", strings.TrimSpace(question), strings.Join(tables, ", "))
}

func intentPrompt(question, table string, columns []string) string {
	quoted := make([]string, len(columns))
	for i, column := range columns {
		if strings.ContainsAny(column, " \t") {
			quoted[i] = `"` + column + `"`
			continue
		}
		quoted[i] = column
	}
	return fmt.Sprintf("Question: %s\nTable: %s\nAvailable columns: %s\n\nJSON:",
		strings.TrimSpace(question), table, strings.Join(quoted, ", "))
}

func plotPrompt(question, description string) string {
	return fmt.Sprintf("User request:\n%s\n\nData structure:\n%s\n\nGenerate ONLY the matplotlib code to plot this data.",
		strings.TrimSpace(question), description)
}
