package discussion

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	t.Parallel()

	t.Run("strips www prefix", func(t *testing.T) {
		require.Equal(t,
			"https://example.com/article",
			Normalize("https://www.example.com/article"),
		)
	})

	t.Run("strips fragment", func(t *testing.T) {
		require.Equal(t,
			"https://example.com/article",
			Normalize("https://example.com/article#section-2"),
		)
	})

	t.Run("strips tracking parameters but keeps the rest", func(t *testing.T) {
		require.Equal(t,
			"https://example.com/article?page=2",
			Normalize("https://example.com/article?utm_source=feed&utm_campaign=spring&page=2"),
		)
	})

	t.Run("strips trailing path slashes", func(t *testing.T) {
		require.Equal(t,
			"https://example.com/article",
			Normalize("https://example.com/article/"),
		)
	})

	t.Run("root pages collapse to the bare host", func(t *testing.T) {
		require.Equal(t,
			"https://example.com",
			Normalize("https://example.com"),
		)
		require.Equal(t,
			"https://example.com",
			Normalize("https://example.com/"),
		)
	})

	t.Run("lower-cases the result", func(t *testing.T) {
		require.Equal(t,
			"https://example.com/article",
			Normalize("HTTPS://Example.COM/Article"),
		)
	})

	t.Run("equivalent forms collapse to one key", func(t *testing.T) {
		variants := []string{
			"https://www.example.com/blog/post/",
			"https://example.com/blog/post",
			"https://example.com/blog/post#comments",
			"https://example.com/blog/post?utm_medium=social",
			"HTTPS://WWW.EXAMPLE.COM/blog/post/",
		}

		want := Normalize(variants[0])
		for _, v := range variants {
			require.Equal(t, want, Normalize(v), "variant %q", v)
		}
	})

	t.Run("unparseable input falls back to lower-cased raw", func(t *testing.T) {
		require.Equal(t, "not a url at all", Normalize("Not A URL At All"))
		require.Equal(t, "://missing-scheme", Normalize("://missing-scheme"))
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			"https://www.example.com/Article/?utm_source=x#frag",
			"https://example.com",
			"plain text",
			"https://example.com/search?q=go&page=3",
		}
		for _, in := range inputs {
			once := Normalize(in)
			require.Equal(t, once, Normalize(once), "input %q", in)
		}
	})
}

func TestTag(t *testing.T) {
	t.Parallel()

	t.Run("deterministic across calls", func(t *testing.T) {
		url := Normalize("https://example.com/article")
		require.Equal(t, Tag(url), Tag(url))
	})

	t.Run("prefix and length", func(t *testing.T) {
		tag := Tag("https://example.com/article")
		require.Len(t, tag, len("bluniversal-")+43)
		require.Regexp(t, `^bluniversal-[0-9a-f]{43}$`, tag)
	})

	t.Run("distinct pages yield distinct tags", func(t *testing.T) {
		seen := make(map[string]string, 1000)
		for i := 0; i < 1000; i++ {
			url := fmt.Sprintf("https://example.com/article/%d", i)
			tag := Tag(url)
			prev, dup := seen[tag]
			require.False(t, dup, "tag collision between %q and %q", prev, url)
			seen[tag] = url
		}
	})
}
