package content

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/pepedome/backend/internal/pkg/httpretry"
	"github.com/pepedome/backend/internal/pkg/logger"
)

// FeedImporter pulls the blog's RSS/Atom feed into the article catalog.
// Items are keyed on their feed GUID so repeated polls are idempotent.
type FeedImporter struct {
	store  *Store
	parser *gofeed.Parser
	client *httpretry.RetryClient
	url    string
	log    *logger.Logger
}

// NewFeedImporter creates an importer for the given feed URL.
func NewFeedImporter(store *Store, url string) *FeedImporter {
	return &FeedImporter{
		store:  store,
		parser: gofeed.NewParser(),
		client: httpretry.New(nil, 3),
		url:    url,
		log:    logger.Component("feed-importer"),
	}
}

func (i *FeedImporter) fetch(ctx context.Context) (*gofeed.Feed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, i.url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := i.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed fetch: unexpected status %d", resp.StatusCode)
	}
	return i.parser.Parse(resp.Body)
}

// Run fetches the feed and inserts articles not seen before. Returns the
// number of newly imported articles.
func (i *FeedImporter) Run(ctx context.Context) (int, error) {
	feed, err := i.fetch(ctx)
	if err != nil {
		return 0, err
	}

	imported := 0
	for _, item := range feed.Items {
		guid := item.GUID
		if guid == "" {
			guid = item.Link
		}
		if guid == "" {
			continue
		}

		existing, err := i.store.GetArticleByGUID(ctx, guid)
		if err != nil {
			return imported, err
		}
		if existing != nil {
			continue
		}

		in := ArticleInput{
			Title:      item.Title,
			SourceGUID: &guid,
			Status:     StatusPublished,
		}
		if item.Link != "" {
			link := item.Link
			in.SourceURL = &link
		}
		if excerpt := stripHTML(item.Description); excerpt != "" {
			in.Excerpt = &excerpt
		}
		if item.Content != "" {
			body := item.Content
			in.Body = &body
		}
		if item.Image != nil {
			img := item.Image.URL
			in.ImageURL = &img
		} else {
			for _, enc := range item.Enclosures {
				if strings.HasPrefix(enc.Type, "image/") {
					img := enc.URL
					in.ImageURL = &img
					break
				}
			}
		}
		switch {
		case item.PublishedParsed != nil:
			in.PublishedAt = item.PublishedParsed
		case item.UpdatedParsed != nil:
			in.PublishedAt = item.UpdatedParsed
		default:
			now := time.Now()
			in.PublishedAt = &now
		}

		if _, err := i.store.CreateArticle(ctx, in); err != nil {
			return imported, err
		}
		imported++
	}

	i.log.Info("feed poll complete", "items", len(feed.Items), "imported", imported)
	return imported, nil
}

var tagRegex = regexp.MustCompile(`<[^>]*>`)

// stripHTML flattens feed HTML into plain text for excerpts.
func stripHTML(input string) string {
	text := tagRegex.ReplaceAllString(input, "")
	text = html.UnescapeString(text)
	return strings.Join(strings.Fields(text), " ")
}
