package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/bluniversal/comments/pkg/bsky"
)

// nestedVisible is the fixed number of replies shown per nested level.
// Only the top level paginates.
const nestedVisible = 3

const indentWidth = 2

type renderItem struct {
	node  *bsky.ThreadNode
	note  string
	depth int
}

// renderThread renders the discussion post and its replies. Top-level
// replies are limited to visible; deeper levels show a fixed slice with a
// count of what is hidden. Traversal uses an explicit stack so reply depth
// never grows the call stack.
func renderThread(root *bsky.ThreadNode, visible, width int, styles Styles) string {
	if root == nil {
		return styles.Muted.Render("No discussion yet.")
	}

	var b strings.Builder
	writePost(&b, &root.Post, 0, width, styles)

	if len(root.Replies) == 0 {
		b.WriteString("\n")
		b.WriteString(styles.Muted.Render("No comments yet. Be the first to reply."))
		b.WriteString("\n")
		return b.String()
	}

	stack := sliceLevel(root.Replies, visible, 1)
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if item.note != "" {
			b.WriteString("\n")
			b.WriteString(indent(item.depth))
			b.WriteString(styles.Muted.Render(item.note))
			b.WriteString("\n")
			continue
		}

		b.WriteString("\n")
		writePost(&b, &item.node.Post, item.depth, width, styles)

		if len(item.node.Replies) > 0 {
			stack = append(stack, sliceLevel(item.node.Replies, nestedVisible, item.depth+1)...)
		}
	}

	return b.String()
}

// sliceLevel returns the visible slice of one reply level as stack items in
// reverse order, so popping yields document order. A trailing note reports
// hidden replies.
func sliceLevel(replies []*bsky.ThreadNode, limit, depth int) []renderItem {
	shown := replies
	if limit < len(replies) {
		shown = replies[:limit]
	}

	items := make([]renderItem, 0, len(shown)+1)
	if hidden := len(replies) - len(shown); hidden > 0 {
		items = append(items, renderItem{
			note:  fmt.Sprintf("… %d more %s", hidden, plural(hidden, "reply", "replies")),
			depth: depth,
		})
	}
	for i := len(shown) - 1; i >= 0; i-- {
		items = append(items, renderItem{node: shown[i], depth: depth})
	}
	return items
}

func writePost(b *strings.Builder, post *bsky.PostView, depth, width int, styles Styles) {
	pad := indent(depth)
	bodyWidth := width - depth*indentWidth
	if bodyWidth < 20 {
		bodyWidth = 20
	}

	author := post.Author.DisplayName
	if author == "" {
		author = post.Author.Handle
	}

	header := lipgloss.JoinHorizontal(lipgloss.Left,
		styles.Author.Render(author),
		" ",
		styles.Handle.Render("@"+post.Author.Handle),
	)
	b.WriteString(pad)
	b.WriteString(header)
	b.WriteString("\n")

	body := styles.Body.Width(bodyWidth).Render(post.Record.Text)
	for _, line := range strings.Split(body, "\n") {
		b.WriteString(pad)
		b.WriteString(line)
		b.WriteString("\n")
	}

	meta := fmt.Sprintf("%d %s · %d %s",
		post.LikeCount, plural(post.LikeCount, "like", "likes"),
		post.ReplyCount, plural(post.ReplyCount, "reply", "replies"),
	)
	b.WriteString(pad)
	b.WriteString(styles.Meta.Render(meta))
	b.WriteString("\n")
}

func indent(depth int) string {
	return strings.Repeat(" ", depth*indentWidth)
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
