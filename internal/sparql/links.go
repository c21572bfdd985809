package sparql

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/jonathan/occupation-matcher/internal/types"
)

// FetchLinks returns every requirement link of one tier, across all required
// concept types. Pages are fetched until a short page is returned.
func (c *Client) FetchLinks(ctx context.Context, tier types.Tier) ([]types.RequirementLink, error) {
	var links []types.RequirementLink
	for _, ct := range RequiredConceptTypes {
		part, err := c.FetchLinksFor(ctx, tier, ct)
		if err != nil {
			return nil, err
		}
		links = append(links, part...)
	}
	return links, nil
}

// FetchLinksFor returns the requirement links of one tier to one concept type
func (c *Client) FetchLinksFor(ctx context.Context, tier types.Tier, objectType types.ConceptType) ([]types.RequirementLink, error) {
	var links []types.RequirementLink
	for offset := 0; ; offset += c.pageSize {
		query, err := RequirementLinksQuery(tier, objectType, c.language, c.pageSize, offset)
		if err != nil {
			return nil, err
		}

		bindings, err := c.Select(ctx, query)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s links to %s: %w", tier, objectType, err)
		}

		for _, b := range bindings {
			link, ok := linkFromBinding(b, tier, objectType)
			if !ok {
				continue
			}
			links = append(links, link)
		}

		if len(bindings) < c.pageSize {
			break
		}
	}

	c.logger.Debug("fetched requirement links",
		slog.String("tier", tier.String()),
		slog.String("object_type", string(objectType)),
		slog.Int("links", len(links)))
	return links, nil
}

// CountOccupations returns the number of distinct occupations in the graph
func (c *Client) CountOccupations(ctx context.Context) (int, error) {
	bindings, err := c.Select(ctx, OccupationCountQuery())
	if err != nil {
		return 0, fmt.Errorf("failed to count occupations: %w", err)
	}
	if len(bindings) == 0 {
		return 0, &QueryError{Endpoint: c.endpoint, Message: "count query returned no rows", Cause: ErrEmptyResponse}
	}
	n, err := strconv.Atoi(bindings[0].Value("totalCount"))
	if err != nil {
		return 0, &QueryError{Endpoint: c.endpoint, Message: "count is not an integer", Cause: fmt.Errorf("%w: %v", ErrMalformedResponse, err)}
	}
	return n, nil
}

// Ping checks that the endpoint answers queries
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.Ask(ctx, PingQuery()); err != nil {
		return fmt.Errorf("failed to ping sparql endpoint: %w", err)
	}
	return nil
}

func linkFromBinding(b Binding, tier types.Tier, objectType types.ConceptType) (types.RequirementLink, bool) {
	subject := b.Value("subject")
	object := b.Value("object")
	if subject == "" || object == "" {
		return types.RequirementLink{}, false
	}
	return types.RequirementLink{
		SubjectURI:   subject,
		SubjectLabel: b.Value("subjectLabel"),
		ObjectURI:    object,
		ObjectLabel:  b.Value("objectLabel"),
		ObjectType:   objectType,
		Tier:         tier,
	}, true
}
