package export

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/huangweiliang/dlt-viewer-simplified/internal/dlt"
)

var sample = []dlt.Message{
	{Index: 0, Timestamp: "2023-11-14 22:13:20.000000", ECUID: "ECU1", AppID: "APP1", ContextID: "CTX1", Type: dlt.TypeLog, Payload: "hello 42", SourceFile: "a.dlt"},
	{Index: 1, Timestamp: "2023-11-14 22:13:21.000500", ECUID: "ECU1", AppID: "DIAG", ContextID: "UDS", Type: dlt.TypeControl, Payload: "", SourceFile: "a.dlt"},
}

func render(t *testing.T, format string, useColor bool, msgs []dlt.Message) string {
	t.Helper()
	var buf bytes.Buffer
	w, err := New(format, &buf, useColor)
	require.NoError(t, err)
	require.NoError(t, WriteAll(w, msgs))
	return buf.String()
}

func TestTextFormat(t *testing.T) {
	want := "0  2023-11-14 22:13:20.000000  ECU1  APP1  CTX1  LOG  hello 42\n" +
		"1  2023-11-14 22:13:21.000500  ECU1  DIAG  UDS  CONTROL  \n"
	assert.Equal(t, want, render(t, "text", false, sample))
}

func TestNDJSONFormat(t *testing.T) {
	out := render(t, "ndjson", false, sample)
	lines := strings.Split(strings.TrimSuffix(out, "\n"), "\n")
	require.Len(t, lines, 2)
	var first map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	assert.Equal(t, "APP1", first["app_id"])
	assert.Equal(t, "a.dlt", first["source"])
	assert.Equal(t, float64(0), first["index"])
}

func TestJSONFormat(t *testing.T) {
	var got []dlt.Message
	require.NoError(t, json.Unmarshal([]byte(render(t, "json", false, sample)), &got))
	assert.Equal(t, sample, got)

	assert.Equal(t, "[]\n", render(t, "json", false, nil))
}

func TestTableFormat(t *testing.T) {
	plain := render(t, "table", false, sample)
	lines := strings.Split(strings.TrimSuffix(plain, "\n"), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "Index     Timestamp"))
	assert.Contains(t, lines[1], "hello 42")
	assert.NotContains(t, plain, "\x1b[")

	colored := render(t, "table", true, sample)
	assert.Contains(t, colored, "\x1b[")
	assert.Contains(t, colored, "CONTROL")
}

func TestTableWithoutMessagesIsEmpty(t *testing.T) {
	assert.Equal(t, "", render(t, "table", false, nil))
}

func TestUnknownFormat(t *testing.T) {
	_, err := New("xml", &bytes.Buffer{}, false)
	assert.Error(t, err)
}

func TestColorEnabled(t *testing.T) {
	var buf bytes.Buffer
	assert.True(t, ColorEnabled("always", &buf))
	assert.False(t, ColorEnabled("never", &buf))
	assert.False(t, ColorEnabled("auto", &buf), "buffers are never terminals")
}
