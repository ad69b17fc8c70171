package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"video_automation/pipeline"
)

func TestExtractJSON_StrictPayload(t *testing.T) {
	var out map[string]string
	err := ExtractJSON(`{"title": "Beach Wifi", "cta": "Visit us"}`, &out)

	require.NoError(t, err)
	assert.Equal(t, "Beach Wifi", out["title"])
}

func TestExtractJSON_FencedBlockWithProse(t *testing.T) {
	raw := "Here is the brief you asked for:\n```json\n{\"title\": \"Ocean AI\"}\n```\nLet me know if you need changes."

	var out map[string]string
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "Ocean AI", out["title"])
}

func TestExtractJSON_ObjectEmbeddedInProse(t *testing.T) {
	raw := `Sure! {"selected_topic": "Smart Menus", "cta": "Book a demo"} Hope that helps.`

	var out map[string]string
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "Smart Menus", out["selected_topic"])
}

func TestExtractJSON_LenientRepairsTrailingCommasAndNewlines(t *testing.T) {
	raw := "{\"script\": \"Line one\nLine two\", \"beats\": [\"hope\", \"relief\",], }"

	var out struct {
		Script string   `json:"script"`
		Beats  []string `json:"beats"`
	}
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "Line one\nLine two", out.Script)
	assert.Equal(t, []string{"hope", "relief"}, out.Beats)
}

func TestExtractJSON_LiteralSyntax(t *testing.T) {
	raw := `{'title': 'Aloha Bot', 'published': True, 'notes': None, 'draft': False}`

	var out struct {
		Title     string  `json:"title"`
		Published bool    `json:"published"`
		Notes     *string `json:"notes"`
		Draft     bool    `json:"draft"`
	}
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "Aloha Bot", out.Title)
	assert.True(t, out.Published)
	assert.Nil(t, out.Notes)
	assert.False(t, out.Draft)
}

func TestExtractJSON_SingleQuotedWithApostrophe(t *testing.T) {
	raw := `{'cta': 'Let\'s talk'}`

	var out map[string]string
	require.NoError(t, ExtractJSON(raw, &out))
	assert.Equal(t, "Let's talk", out["cta"])
}

func TestExtractJSON_AllLayersFailIsMalformed(t *testing.T) {
	var out map[string]string
	err := ExtractJSON("I could not produce the brief today, sorry.", &out)

	require.Error(t, err)
	assert.Equal(t, pipeline.KindMalformed, pipeline.KindOf(err))
}

func TestExtractJSON_Deterministic(t *testing.T) {
	raw := "```\n{'beats': ['a', 'b',],}\n```"

	var first, second struct {
		Beats []string `json:"beats"`
	}
	require.NoError(t, ExtractJSON(raw, &first))
	require.NoError(t, ExtractJSON(raw, &second))
	assert.Equal(t, first, second)
}
