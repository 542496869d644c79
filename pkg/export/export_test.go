package export

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func timetableDataset() Dataset {
	return Dataset{
		Headers: []string{"week", "date", "class", "subject", "teacher", "room", "period"},
		Rows: []map[string]string{
			{"week": "Week 1", "date": "2025-09-01", "class": "10A1", "subject": "Toán", "teacher": "Nguyễn Văn A", "room": "P101", "period": "1"},
			{"week": "Week 1", "date": "2025-09-01", "class": "10A2", "subject": "Vật lý", "teacher": "Trần Thị B", "room": "P102"},
		},
	}
}

func TestCSVExporterRender(t *testing.T) {
	out, err := NewCSVExporter().Render(timetableDataset())
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(out)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "week,date,class,subject,teacher,room,period", lines[0])
	assert.Equal(t, "Week 1,2025-09-01,10A1,Toán,Nguyễn Văn A,P101,1", lines[1])
	assert.True(t, strings.HasSuffix(lines[2], ",P102,"))
}

func TestCSVExporterOptions(t *testing.T) {
	out, err := NewCSVExporter(WithBOM(), WithComma(';')).Render(timetableDataset())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, utf8BOM))

	lines := strings.Split(strings.TrimSpace(string(out[len(utf8BOM):])), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "week;date;class;subject;teacher;room;period", lines[0])
}

func TestCSVExporterRequiresHeaders(t *testing.T) {
	_, err := NewCSVExporter().Render(Dataset{})
	assert.Error(t, err)
}

func TestPDFExporterRender(t *testing.T) {
	out, err := NewPDFExporter().Render(timetableDataset(), "Thời khóa biểu HK1")
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))

	_, err = NewPDFExporter().Render(Dataset{}, "")
	assert.Error(t, err)
}

func TestPDFTextTransliterates(t *testing.T) {
	assert.Equal(t, "Nguyen Van A", pdfText("Nguyễn Văn A"))
	assert.Equal(t, "Thoi khoa bieu", pdfText("Thời khóa biểu"))
}
