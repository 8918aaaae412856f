package status

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func fixedReporter(buf *bytes.Buffer) *Reporter {
	r := NewReporter(buf)
	r.now = func() time.Time {
		return time.Date(2025, 1, 2, 13, 14, 15, 0, time.UTC)
	}
	return r
}

func TestReporter_LineFormat(t *testing.T) {
	var buf bytes.Buffer
	r := fixedReporter(&buf)

	r.Startf("列表解析", "开始处理第 %d 页", 1)

	assert.Equal(t, "13:14:15 🔄 列表解析: 开始处理第 1 页\n", buf.String())
}

func TestReporter_Severities(t *testing.T) {
	var buf bytes.Buffer
	r := fixedReporter(&buf)

	r.Successf("stage", "ok")
	r.Warnf("stage", "warn")
	r.Errorf("stage", "bad")
	r.Infof("stage", "note")

	out := buf.String()
	assert.Contains(t, out, "✅ stage: ok")
	assert.Contains(t, out, "⚠️ stage: warn")
	assert.Contains(t, out, "❌ stage: bad")
	assert.Contains(t, out, "➡️ stage: note")
}

func TestReporter_Summary(t *testing.T) {
	var buf bytes.Buffer
	r := fixedReporter(&buf)

	r.Summary(3, 120, 2)

	out := buf.String()
	assert.Contains(t, out, "RUN SUMMARY")
	assert.Contains(t, out, "Works processed:   3")
	assert.Contains(t, out, "Chapters added:    120")
	assert.Contains(t, out, "Failures recorded: 2")
}
