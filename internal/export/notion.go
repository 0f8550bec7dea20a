package export

import (
	"context"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/gymscout/leads-cli/internal/model"
	"github.com/gymscout/leads-cli/pkg/notion"
)

// NotionSink creates one page per lead in a Notion database. Page creation
// rides the client's rate limiter, 3 req/s by default.
type NotionSink struct {
	client notion.Client
	dbID   string
}

// NewNotionSink creates a sink targeting the given Notion database.
func NewNotionSink(client notion.Client, databaseID string) *NotionSink {
	return &NotionSink{client: client, dbID: databaseID}
}

// Push creates a page for each lead and returns the number created. The
// first failure stops the push; pages already created are kept.
func (s *NotionSink) Push(ctx context.Context, leads []model.Lead) (int, error) {
	created := 0
	for _, l := range leads {
		if ctx.Err() != nil {
			return created, eris.Wrap(ctx.Err(), "notion sink: cancelled")
		}

		req := &notionapi.PageCreateRequest{
			Parent: notionapi.Parent{
				Type:       notionapi.ParentTypeDatabaseID,
				DatabaseID: notionapi.DatabaseID(s.dbID),
			},
			Properties: leadProperties(l),
		}
		if _, err := s.client.CreatePage(ctx, req); err != nil {
			return created, eris.Wrapf(err, "notion sink: create page for %q", l.Name)
		}
		created++
	}
	return created, nil
}

// leadProperties maps a lead to Notion page properties. The name becomes the
// title, the website a URL property, everything else rich text. Empty fields
// are omitted so pages stay sparse.
func leadProperties(l model.Lead) notionapi.Properties {
	props := notionapi.Properties{
		"Name": notionapi.TitleProperty{
			Type:  notionapi.PropertyTypeTitle,
			Title: richText(model.CleanDisplayName(l.Name)),
		},
	}

	if l.Website != "" {
		props["Website"] = notionapi.URLProperty{
			Type: notionapi.PropertyTypeURL,
			URL:  l.Website,
		}
	}

	for name, value := range map[string]string{
		"Address":    l.Address,
		"City":       l.City,
		"State":      l.State,
		"Phone":      model.CanonicalPhone(l.Phone),
		"Category":   l.Category,
		"Provenance": l.Provenance(),
	} {
		if value == "" {
			continue
		}
		props[name] = notionapi.RichTextProperty{
			Type:     notionapi.PropertyTypeRichText,
			RichText: richText(value),
		}
	}

	return props
}

func richText(s string) []notionapi.RichText {
	return []notionapi.RichText{
		{Type: notionapi.ObjectTypeText, Text: &notionapi.Text{Content: s}},
	}
}
