package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractJiraKeys(t *testing.T) {
	keys := ExtractJiraKeys("Re: PROJ-12 and ABC-1", "see PROJ-12, also X2-300 not-a-key ab-1")
	assert.Equal(t, []string{"PROJ-12", "ABC-1", "X2-300"}, keys)

	assert.Nil(t, ExtractJiraKeys("nothing here"))
}
