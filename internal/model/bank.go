package model

// ProblemBank groups problems that slots may draw from.
type ProblemBank struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	ProblemCount int    `json:"problem_count"`
}

// Problem is a single bank entry. Statement is markdown.
type Problem struct {
	ID        int64  `json:"id"`
	BankID    int64  `json:"bank"`
	Order     int    `json:"order"`
	Title     string `json:"title"`
	Statement string `json:"statement"`
}
