package index

import (
	"clipcat/pkg/types"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractText(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		data    string
		want    string
		wantErr bool
	}{
		{name: "plain", ref: "a.txt", data: "Hello there", want: "Hello there"},
		{name: "markdown kept raw", ref: "a.md", data: "# Title", want: "# Title"},
		{name: "html", ref: "a.html", data: "<p>Fish &amp; <b>chips</b></p>", want: "Fish & chips"},
		{name: "rtf", ref: "a.rtf", data: `{\rtf1\ansi\deff0{\fonttbl{\f0 Times;}}\f0 Hello\tab World\par}`, want: "Hello\tWorld"},
		{name: "rtf escapes", ref: "a.rtf", data: `{\rtf1 caf\'e9 \{x\} \u8364?}`, want: "café {x} €"},
		{name: "rtf ignorable destination", ref: "a.rtf", data: `{\rtf1{\*\generator Writer;}visible}`, want: "visible"},
		{name: "unknown extension utf8", ref: "a.data", data: "still text", want: "still text"},
		{name: "binary", ref: "a.bin", data: string([]byte{0xff, 0xfe, 0x00}), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractText(tt.ref, []byte(tt.data))
			if tt.wantErr {
				assert.ErrorIs(t, err, errBinaryPayload)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsDuplicate(t *testing.T) {
	link := func(url, ref, text string) types.ClipItem {
		item := types.NewClipItem(types.TypeLink)
		if url != "" {
			item.Metadata[types.MetaURL] = url
		}
		item.ContentRef = ref
		item.Text = text
		return item
	}
	image := func(ref string) types.ClipItem {
		item := types.NewClipItem(types.TypeImage)
		item.ContentRef = ref
		return item
	}

	tests := []struct {
		name string
		a, b types.ClipItem
		want bool
	}{
		{"same text", textItem("hello"), textItem("  hello\n"), true},
		{"different text", textItem("hello"), textItem("world"), false},
		{"empty text", textItem(" "), textItem(""), false},
		{"types differ", textItem("x"), link("", "", "x"), false},
		{"link by url", link("https://a", "", "one"), link("https://a", "", "two"), true},
		{"url wins over text", link("https://a", "", "same"), link("https://b", "", "same"), false},
		{"link by ref", link("", "/tmp/x", "one"), link("", "/tmp/x", "two"), true},
		{"link by text", link("", "", "https://c"), link("", "", "https://c"), true},
		{"image by ref", image("/store/a.png"), image("/store/a.png"), true},
		{"image without ref", image(""), image(""), false},
		{"colors never match", types.NewClipItem(types.TypeColor), types.NewClipItem(types.TypeColor), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isDuplicate(tt.a, tt.b))
		})
	}
}

func TestSave_DeduplicatesHistory(t *testing.T) {
	s, _ := newTestStore(t)
	board := s.CreatePinboard("b", "")

	first, other := textItem("repeat me"), textItem("other")
	mustSave(t, s, first, other)
	s.Pin(first.ID, board)

	again := textItem("repeat me")
	mustSave(t, s, again)

	assert.Equal(t, []string{again.ID.String(), other.ID.String()}, ids(s.ListItems(s.DefaultBoardID())))
	assert.Empty(t, s.ListItems(board), "membership of the replaced entry is dropped")
}
