package importer

import (
	"crypto/sha256"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/mmcdole/gofeed"

	"github.com/pders01/tgscope/internal/archive"
)

// SenderTypeChannel is the sender type of every imported post.
const SenderTypeChannel = "Channel"

var postPathRe = regexp.MustCompile(`^/(?:s/)?([A-Za-z0-9_]{4,})/(\d+)/?$`)

// Parser turns channel feeds into archive messages.
type Parser struct {
	parser *gofeed.Parser
	now    func() time.Time
}

func NewParser() *Parser {
	return &Parser{
		parser: gofeed.NewParser(),
		now:    time.Now,
	}
}

// Parsed is the outcome of parsing one feed document.
type Parsed struct {
	Title    string
	Username string
	Messages []*archive.Message
}

// Parse reads a feed and converts its items into messages of channelID.
// The feed title becomes the sender of every message.
func (p *Parser) Parse(reader io.Reader, channelID string) (*Parsed, error) {
	feed, err := p.parser.Parse(reader)
	if err != nil {
		return nil, fmt.Errorf("parsing feed: %w", err)
	}

	out := &Parsed{
		Title:    strings.TrimSpace(feed.Title),
		Username: usernameFromLink(feed.Link),
	}
	sender := out.Title
	if sender == "" {
		sender = "Unknown Channel"
	}

	importedAt := p.now()
	out.Messages = make([]*archive.Message, 0, len(feed.Items))
	for _, item := range feed.Items {
		username, messageID := postRef(item.Link)
		if out.Username == "" {
			out.Username = username
		}
		if messageID == "" {
			messageID = hashID(item.GUID, item.Link, item.Title)
		}

		m := &archive.Message{
			ID:         archive.MessageKey(channelID, messageID),
			ChannelID:  channelID,
			MessageID:  messageID,
			Sender:     sender,
			SenderType: SenderTypeChannel,
			Content:    content(item),
			PostURL:    item.Link,
			ImportedAt: importedAt,
		}
		switch {
		case item.PublishedParsed != nil:
			m.Date = *item.PublishedParsed
		case item.UpdatedParsed != nil:
			m.Date = *item.UpdatedParsed
		default:
			m.Date = importedAt
		}

		if m.Content == "" {
			continue
		}
		out.Messages = append(out.Messages, m)
	}

	return out, nil
}

// content prefers the full item body and converts HTML to markdown. Items
// without a body fall back to their title.
func content(item *gofeed.Item) string {
	body := item.Content
	if body == "" {
		body = item.Description
	}
	if body == "" {
		return strings.TrimSpace(item.Title)
	}
	md, err := htmltomarkdown.ConvertString(body)
	if err != nil {
		return strings.TrimSpace(body)
	}
	return strings.TrimSpace(md)
}

// postRef extracts channel username and message id from a t.me post link.
func postRef(link string) (username, messageID string) {
	u, err := url.Parse(link)
	if err != nil || !isTelegramHost(u.Hostname()) {
		return "", ""
	}
	m := postPathRe.FindStringSubmatch(u.Path)
	if m == nil {
		return "", ""
	}
	return m[1], m[2]
}

func usernameFromLink(link string) string {
	u, err := url.Parse(link)
	if err != nil || !isTelegramHost(u.Hostname()) {
		return ""
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) >= 2 && parts[0] == "s" {
		return parts[1]
	}
	if len(parts) >= 1 {
		return parts[0]
	}
	return ""
}

func isTelegramHost(host string) bool {
	host = strings.ToLower(host)
	return host == "t.me" || host == "telegram.me"
}

func hashID(parts ...string) string {
	for _, p := range parts {
		if p != "" {
			return fmt.Sprintf("%x", sha256.Sum256([]byte(p)))[:16]
		}
	}
	return fmt.Sprintf("%d", time.Now().UnixNano())
}
