// Package jira imports Jira issues selected by a JQL query as stories.
package jira

import (
	"context"
	"fmt"
	"strings"

	"github.com/nhle/sprint-board/internal/intake"
	"github.com/nhle/sprint-board/internal/model"
)

const defaultJQL = "assignee=currentUser() AND resolution=Unresolved ORDER BY updated DESC"

var searchFields = []string{"summary", "description", "labels", "issuetype", "priority", "duedate"}

// Source implements intake.Source for Jira Server/DC.
type Source struct {
	client   *Client
	baseURL  string
	id       string
	jql      string
	pageSize int
}

// New creates a Jira source. An empty jql selects the current user's
// unresolved issues.
func New(id, baseURL, token, jql string) *Source {
	if jql == "" {
		jql = defaultJQL
	}
	return &Source{
		client:   NewClient(baseURL, token),
		baseURL:  strings.TrimRight(baseURL, "/"),
		id:       id,
		jql:      jql,
		pageSize: 50,
	}
}

func (s *Source) ID() string        { return s.id }
func (s *Source) Type() intake.Type { return intake.TypeJira }

// ValidateConnection returns the display name of the token's owner.
func (s *Source) ValidateConnection(ctx context.Context) (string, error) {
	var me Myself
	if err := s.client.Get(ctx, "/rest/api/2/myself", &me); err != nil {
		return "", fmt.Errorf("validating Jira connection: %w", err)
	}
	return "connected as " + me.DisplayName, nil
}

// Fetch runs the configured JQL and returns one item per issue.
func (s *Source) Fetch(ctx context.Context) ([]model.IntakeItem, error) {
	body := map[string]any{
		"jql":        s.jql,
		"fields":     searchFields,
		"startAt":    0,
		"maxResults": s.pageSize,
	}

	var resp SearchResponse
	if err := s.client.Post(ctx, "/rest/api/2/search", body, &resp); err != nil {
		return nil, fmt.Errorf("searching Jira issues: %w", err)
	}

	items := make([]model.IntakeItem, 0, len(resp.Issues))
	for _, issue := range resp.Issues {
		items = append(items, s.toItem(issue))
	}
	return items, nil
}

// Ref is the external reference of a Jira issue key.
func Ref(key string) string {
	return "jira:" + key
}

func (s *Source) toItem(issue Issue) model.IntakeItem {
	desc := strings.TrimSpace(issue.Fields.Description)
	link := s.baseURL + "/browse/" + issue.Key
	if desc == "" {
		desc = link
	} else {
		desc += "\n\n" + link
	}

	tags := []string{issue.Key}
	if t := issue.Fields.IssueType.Name; t != "" {
		tags = append(tags, strings.ToLower(t))
	}
	tags = append(tags, issue.Fields.Labels...)

	return model.IntakeItem{
		ExternalRef: Ref(issue.Key),
		Title:       issue.Fields.Summary,
		Description: desc,
		Tags:        model.NormalizeTags(tags),
	}
}
