package segment

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTitleAuthorFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		title    string
		author   string
	}{
		{"骸骨之城-无名.txt", "骸骨之城", "无名"},
		{"骸骨之城.txt", "骸骨之城", "未知"},
		{"a-b-c.txt", "a-b-c", "未知"},
		{"/some/dir/迷宫-佚名.txt", "迷宫", "佚名"},
		{"空白 - 某人.txt", "空白", "某人"},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			title, author := TitleAuthorFromFilename(tt.filename)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.author, author)
		})
	}
}

func TestSplit_BasicChapters(t *testing.T) {
	doc := "前言部分\n第一章 开端\n正文一\n第二章 发展\n正文二\n第3章 结局\n正文三\n"

	chapters, err := Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 3)

	assert.Equal(t, "第一章 开端", chapters[0].Title)
	assert.Equal(t, "第一章 开端\n正文一\n", chapters[0].Body)
	assert.Equal(t, "第二章 发展", chapters[1].Title)
	assert.Equal(t, "第3章 结局", chapters[2].Title)
	assert.Equal(t, "第3章 结局\n正文三\n", chapters[2].Body)
}

func TestSplit_HeadingVariants(t *testing.T) {
	doc := "第一回 相遇\nx\n第２章 全角\ny\n第三卷 起航\nz\n第四節 番話\nw\n"

	chapters, err := Split(doc)
	require.NoError(t, err)
	assert.Len(t, chapters, 4)
}

func TestSplit_ConcatenationEqualsSpan(t *testing.T) {
	doc := "序言，不属于任何章节\n第一章 甲\n甲的内容\n\n第二章 乙\n乙的内容\n结尾残句"

	chapters, err := Split(doc)
	require.NoError(t, err)

	var joined strings.Builder
	for _, c := range chapters {
		joined.WriteString(c.Body)
	}
	first := strings.Index(doc, "第一章")
	assert.Equal(t, doc[first:], joined.String())
}

func TestSplit_DuplicateTitlesGetSuffixes(t *testing.T) {
	doc := "第一章 重复\naaa\n第一章 重复\nbbb\n第一章 重复\nccc\n"

	chapters, err := Split(doc)
	require.NoError(t, err)
	require.Len(t, chapters, 3)

	assert.Equal(t, "第一章 重复", chapters[0].Title)
	assert.Equal(t, "第一章 重复(1)", chapters[1].Title)
	assert.Equal(t, "第一章 重复(2)", chapters[2].Title)
}

func TestSplit_NoHeadings(t *testing.T) {
	_, err := Split("没有任何章节标记的文本\n只是散文\n")

	var noChapters *NoChaptersError
	require.ErrorAs(t, err, &noChapters)
}

func TestSplit_EmptyDocument(t *testing.T) {
	_, err := Split("")
	assert.Error(t, err)
}
