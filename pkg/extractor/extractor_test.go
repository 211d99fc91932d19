package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mainHost = "http://mosigra.ru"

func TestExtractEmails(t *testing.T) {
	e := New()

	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{name: "plain address", input: "write to user@example.com today", want: []string{"user@example.com"}},
		{name: "mixed case with tag", input: "USER.NAME+tag@Sub.Example.co", want: []string{"USER.NAME+tag@Sub.Example.co"}},
		{name: "mailto link", input: `<a href="mailto:shop@mosigra.ru">mail</a>`, want: []string{"shop@mosigra.ru"}},
		{name: "not an email", input: "not-an-email", want: []string{}},
		{name: "missing local part", input: "@missing-local.com", want: []string{}},
		{name: "empty domain label", input: "user@.com", want: []string{}},
		{name: "duplicates collapse", input: "a@b.io a@b.io c@d.org", want: []string{"a@b.io", "c@d.org"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.ExtractEmails(tt.input))
		})
	}
}

func TestExtractLinks(t *testing.T) {
	page := `<html><body>
		<a href="/about.html">About</a>
		<a href='/shop'>Shop</a>
		<a href=/unquoted>Unquoted</a>
		<a href="http://www.mosigra.ru/x">Abs</a>
		<a href="/about.html">Again</a>
		<a href="javascript:void(0)">JS</a>
	</body></html>`

	links := New().ExtractLinks(page)
	assert.Equal(t, []string{"/about.html", "/shop", "/unquoted", "http://www.mosigra.ru/x", "javascript:void(0)"}, links)
}

func TestFilterSameSite(t *testing.T) {
	links := []string{
		"/about.html",
		"http://www.mosigra.ru/x",
		"http://other-site.com/x",
		"javascript:void(0)",
		"page.html",
		"//cdn.mosigra.ru/lib",
		"https://secure.mosigra.ru/cart",
		"mailto:shop@mosigra.ru",
	}

	stage1 := FilterLinks(links)
	assert.Equal(t, []string{
		"/about.html",
		"http://www.mosigra.ru/x",
		"http://other-site.com/x",
		"page.html",
		"//cdn.mosigra.ru/lib",
	}, stage1)

	kept := FilterSameSite(links, mainHost)
	assert.Contains(t, kept, "/about.html")
	assert.Contains(t, kept, "http://www.mosigra.ru/x")
	assert.Contains(t, kept, "//cdn.mosigra.ru/lib")
	assert.NotContains(t, kept, "http://other-site.com/x")
	assert.NotContains(t, kept, "javascript:void(0)")
	assert.NotContains(t, kept, "page.html")
	// https links do not survive the first stage
	assert.NotContains(t, kept, "https://secure.mosigra.ru/cart")

	// the source slice is left untouched
	assert.Len(t, links, 8)
	assert.Equal(t, "javascript:void(0)", links[3])
}

func TestSameSiteLinksRejectsPageRelative(t *testing.T) {
	links := []string{"page.html", "shop/item.html", "../up.html", "./here.html", "?q=1.html", "/root.html"}
	assert.Equal(t, []string{"/root.html"}, SameSiteLinks(links, mainHost))
	assert.Equal(t, []string{"/root.html"}, FilterSameSite(links, mainHost))
}

func TestSameSiteLinksWithIPHost(t *testing.T) {
	kept := SameSiteLinks([]string{"http://127.0.0.1/a", "http://127.0.0.2/b", "/c"}, "http://127.0.0.1:8080")
	assert.Equal(t, []string{"http://127.0.0.1/a", "/c"}, kept)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, "http://mosigra.ru/about.html", Resolve(mainHost, "/about.html"))
	assert.Equal(t, "http://mosigra.ru/about.html", Resolve(mainHost+"/", "/about.html#team"))
	assert.Equal(t, "http://mosigra.ru/", Resolve(mainHost, "#top"))
}

func TestIsRootRelative(t *testing.T) {
	assert.True(t, IsRootRelative("/shop"))
	assert.False(t, IsRootRelative("//cdn.example.com/x"))
	assert.False(t, IsRootRelative("http://mosigra.ru/"))
}

func TestExtractMetadata(t *testing.T) {
	title, desc, err := New().ExtractMetadata(`<html><head>
		<title> Board games </title>
		<meta name="Description" content="Shop for board games">
	</head><body></body></html>`)
	require.NoError(t, err)
	assert.Equal(t, "Board games", title)
	assert.Equal(t, "Shop for board games", desc)
}

func TestExtractTextFallsBack(t *testing.T) {
	text := New().ExtractText(`<html><body><script>var x = 1;</script><p>Hi</p></body></html>`)
	assert.Contains(t, text, "Hi")
	assert.NotContains(t, text, "var x")
}
