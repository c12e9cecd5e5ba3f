package jira

// SearchResponse is the response from POST /rest/api/2/search.
type SearchResponse struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Issue is a single Jira issue.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"`
	Fields IssueFields `json:"fields"`
}

// IssueFields holds the fields requested during search.
type IssueFields struct {
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
	IssueType   IssueType `json:"issuetype"`
	Priority    Priority  `json:"priority"`
	DueDate     string    `json:"duedate,omitempty"`
}

type IssueType struct {
	Name string `json:"name"`
}

type Priority struct {
	Name string `json:"name"`
}

// Myself is the response from GET /rest/api/2/myself.
type Myself struct {
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

// ErrorResponse is the standard Jira error body.
type ErrorResponse struct {
	ErrorMessages []string          `json:"errorMessages"`
	Errors        map[string]string `json:"errors"`
}
