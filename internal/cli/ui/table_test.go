package ui

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	table := NewTable(&buf, true, "ID", "SLUG", "STATUS")
	table.AddRow("1", "rss-scraper-abc", "stable")
	table.AddRow("12", "feed")

	table.Render()

	want := "ID  SLUG             STATUS\n" +
		"──  ───────────────  ──────\n" +
		"1   rss-scraper-abc  stable\n" +
		"12  feed\n"
	assert.Equal(t, want, buf.String())
	assert.Equal(t, 2, table.Len())
}

func TestTable_NoHeaders(t *testing.T) {
	var buf bytes.Buffer
	NewTable(&buf, true).Render()
	assert.Empty(t, buf.String())
}

func TestKeyValueTable_Render(t *testing.T) {
	var buf bytes.Buffer
	kv := NewKeyValueTable(&buf, true)
	kv.AddRow("slug", "rss-scraper")
	kv.AddRow("scheduled", "true")
	kv.Render()

	assert.Equal(t, "slug:      rss-scraper\nscheduled: true\n", buf.String())
}

func TestHeader(t *testing.T) {
	var buf bytes.Buffer
	Header(&buf, "Recipes", true)
	assert.Equal(t, "Recipes\n───────\n", buf.String())
}
