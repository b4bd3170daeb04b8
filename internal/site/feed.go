package site

import (
	"context"
	"encoding/xml"
	"fmt"
	"time"

	"github.com/ppiankov/spacetraveling/internal/output"
	"github.com/ppiankov/spacetraveling/internal/post"
)

// FeedPath is where the RSS feed of the newest posts is published.
const FeedPath = "/feed.xml"

// feedItems caps the number of posts in the feed.
const feedItems = 20

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language,omitempty"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string  `xml:"title"`
	Link        string  `xml:"link"`
	GUID        rssGUID `xml:"guid"`
	Description string  `xml:"description,omitempty"`
	Author      string  `xml:"author,omitempty"`
	PubDate     string  `xml:"pubDate,omitempty"`
}

type rssGUID struct {
	IsPermaLink bool   `xml:"isPermaLink,attr"`
	Value       string `xml:",chardata"`
}

// Feed renders the RSS feed of the newest posts.
func (s *Site) Feed(ctx context.Context) ([]byte, error) {
	posts, err := s.AllPosts(ctx)
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return s.feed(posts)
}

// feed renders posts newest first, keeping at most feedItems.
func (s *Site) feed(posts []post.Summary) ([]byte, error) {
	refs := post.OrderedRefs(posts)
	byUID := make(map[string]post.Summary, len(posts))
	for _, p := range posts {
		byUID[p.UID] = p
	}
	if len(refs) > feedItems {
		refs = refs[:feedItems]
	}

	ch := rssChannel{
		Title:       s.info.Title,
		Link:        s.info.BaseURL + "/",
		Description: s.info.Title,
		Language:    s.labels.Lang,
		Items:       make([]rssItem, 0, len(refs)),
	}
	for _, r := range refs {
		p := byUID[r.Slug]
		link := s.info.BaseURL + output.PostPath(p.UID)
		item := rssItem{
			Title:       p.Title,
			Link:        link,
			GUID:        rssGUID{IsPermaLink: s.info.BaseURL != "", Value: link},
			Description: p.Subtitle,
			Author:      p.Author,
		}
		if !p.PublishedAt.IsZero() {
			item.PubDate = p.PublishedAt.UTC().Format(time.RFC1123Z)
		}
		ch.Items = append(ch.Items, item)
	}

	data, err := xml.MarshalIndent(rssFeed{Version: "2.0", Channel: ch}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("feed: %w", err)
	}
	return append([]byte(xml.Header), append(data, '\n')...), nil
}
